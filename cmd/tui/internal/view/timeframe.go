package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// Timeframe is a named date window offered by TimeframePicker.
type Timeframe int

const (
	TimeframeThisWeek Timeframe = iota
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframeLast30Days
	TimeframeThisYear
	TimeframeAll
	TimeframeCustom
)

var timeframeNames = map[Timeframe]string{
	TimeframeThisWeek:   "This Week",
	TimeframeThisMonth:  "This Month",
	TimeframeLastMonth:  "Last Month",
	TimeframeLast30Days: "Last 30 Days",
	TimeframeThisYear:   "This Year",
	TimeframeAll:        "All Time",
	TimeframeCustom:     "Custom Range",
}

func (t Timeframe) String() string {
	if name, ok := timeframeNames[t]; ok {
		return name
	}

	return "Unknown"
}

// SummaryTimeframes have both bounds, which the summary endpoint needs.
var SummaryTimeframes = []Timeframe{
	TimeframeThisMonth, TimeframeLastMonth, TimeframeThisWeek, TimeframeLast30Days, TimeframeThisYear, TimeframeCustom,
}

// ListTimeframes add an unbounded choice for listing and exporting.
var ListTimeframes = []Timeframe{
	TimeframeThisMonth, TimeframeLastMonth, TimeframeLast30Days, TimeframeThisYear, TimeframeAll, TimeframeCustom,
}

// window resolves a preset against now. Weeks start on Monday and windows end on the
// current day, except Last Month which ends on that month's last day.
func (t Timeframe) window(now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch t {
	case TimeframeThisWeek:
		sinceMonday := (int(today.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -sinceMonday), today
	case TimeframeLastMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)
	case TimeframeLast30Days:
		return today.AddDate(0, 0, -29), today
	case TimeframeThisYear:
		return time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC), today
	default:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), today
	}
}

// normalizeDateRange widens the range to whole days. The end keeps microsecond precision,
// the finest the API stores.
func normalizeDateRange(start, end time.Time) (time.Time, time.Time) {
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999999000, time.UTC)
}

// TimeframeSelectedMsg is emitted when the user has selected a valid date range.
// Start and End are zero values when All is true.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

// Bounds returns the range as optional API filter bounds, both nil for All.
func (m TimeframeSelectedMsg) Bounds() (*time.Time, *time.Time) {
	if m.All {
		return nil, nil
	}

	start, end := m.Start, m.End

	return &start, &end
}

// Label describes the range for headers.
func (m TimeframeSelectedMsg) Label() string {
	if m.All {
		return TimeframeAll.String()
	}

	return fmt.Sprintf("%s to %s", FormatDate(m.Start), FormatDate(m.End))
}

type timeframeInput struct {
	preset Timeframe
	start  string
	end    string
}

// TimeframePicker asks for one of a screen's presets, plus the dates when Custom is chosen.
type TimeframePicker struct {
	presets []Timeframe
	now     func() time.Time
	form    *huh.Form
	in      *timeframeInput
}

func NewTimeframePicker(presets []Timeframe) TimeframePicker {
	m := TimeframePicker{presets: presets, now: time.Now, in: &timeframeInput{}}
	m.Reset()

	return m
}

func (m TimeframePicker) Init() tea.Cmd {
	return m.form.Init()
}

// Reset rebuilds the form with the first preset selected.
func (m *TimeframePicker) Reset() tea.Cmd {
	*m.in = timeframeInput{preset: m.presets[0]}

	options := make([]huh.Option[Timeframe], len(m.presets))
	for i, p := range m.presets {
		options[i] = huh.NewOption(p.String(), p)
	}

	in := m.in

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Timeframe]().Title("Timeframe").Options(options...).Value(&in.preset),
		),
		huh.NewGroup(
			huh.NewInput().Title("From").Placeholder("YYYY-MM-DD").Value(&in.start).Validate(validateDate),
			huh.NewInput().Title("To").Placeholder("YYYY-MM-DD").Value(&in.end).Validate(func(s string) error {
				if err := validateDate(s); err != nil {
					return err
				}

				start, err := time.Parse(time.DateOnly, strings.TrimSpace(in.start))
				if err == nil && mustDate(s).Before(start) {
					return fmt.Errorf("end date must not be before start date")
				}

				return nil
			}),
		).WithHideFunc(func() bool { return in.preset != TimeframeCustom }),
	).WithWidth(40).WithShowHelp(false)

	return m.form.Init()
}

func mustDate(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, strings.TrimSpace(s))
	return t
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	selected := m.selection()
	reset := m.Reset()

	return m, tea.Batch(reset, func() tea.Msg { return selected })
}

// selection turns the completed input into a message.
func (m TimeframePicker) selection() TimeframeSelectedMsg {
	var start, end time.Time

	switch m.in.preset {
	case TimeframeAll:
		return TimeframeSelectedMsg{All: true}
	case TimeframeCustom:
		start, end = mustDate(m.in.start), mustDate(m.in.end)
	default:
		start, end = m.in.preset.window(m.now())
	}

	start, end = normalizeDateRange(start, end)

	return TimeframeSelectedMsg{Start: start, End: end}
}

func (m TimeframePicker) View() string {
	return m.form.View() + "\n\n(Enter to select, Esc to back)"
}
