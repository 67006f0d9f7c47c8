package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
)

type overviewState int

const (
	overviewStateTimeframe overviewState = iota
	overviewStateSummary
)

const barWidth = 30

// OverviewModel shows income, expenses and spending per category for a timeframe.
type OverviewModel struct {
	CommonModel
	api *client.Client

	state           overviewState
	timeframePicker TimeframePicker
	timeframe       TimeframeSelectedMsg

	summary *client.Summary
	loading bool
	err     error
}

func NewOverviewModel(api *client.Client) OverviewModel {
	return OverviewModel{
		api:             api,
		timeframePicker: NewTimeframePicker(SummaryTimeframes),
	}
}

func (m OverviewModel) Title() string { return "Overview" }

func (m OverviewModel) ShortHelp() string {
	if m.state == overviewStateSummary {
		return "Esc: back | t: timeframe | r: refresh"
	}

	return "Esc: back | Enter: select"
}

func (m OverviewModel) Init() tea.Cmd {
	return m.timeframePicker.Init()
}

func (m OverviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.timeframe = msg
		m.state = overviewStateSummary
		m.loading = true

		return m, m.loadCmd()

	case summaryMsg:
		m.loading = false
		m.summary = msg.summary
		m.err = msg.err

		if client.IsUnauthorized(msg.err) {
			return m, func() tea.Msg { return SessionExpiredMsg{} }
		}

		return m, nil
	}

	keyMsg, isKey := msg.(tea.KeyMsg)

	if m.state == overviewStateTimeframe {
		if isKey && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}

		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd
	}

	if !isKey {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "t":
		m.state = overviewStateTimeframe
		return m, m.timeframePicker.Reset()
	case "r":
		m.loading = true
		return m, m.loadCmd()
	}

	return m, nil
}

func (m OverviewModel) View() string {
	if m.state == overviewStateTimeframe {
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading summary...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle("Error: " + errorText(m.err)))
	}

	if m.summary == nil {
		return ""
	}

	s := m.summary

	var b strings.Builder

	fmt.Fprintf(&b, "%s  (%s to %s)\n\n",
		lipgloss.NewStyle().Bold(true).Render("Summary"),
		FormatDate(s.Period.Start), FormatDate(s.Period.End))
	fmt.Fprintf(&b, "Income:    %s\n", okStyle(FormatAmount(s.TotalIncome)))
	fmt.Fprintf(&b, "Expenses:  %s\n", errorStyle(FormatAmount(s.TotalExpenses)))

	net := FormatAmount(s.NetBalance)
	if s.NetBalance.IsNegative() {
		net = errorStyle(net)
	} else {
		net = okStyle(net)
	}

	fmt.Fprintf(&b, "Net:       %s\n\n", net)

	if len(s.ExpensesByCategory) == 0 {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("No expenses in this period."))
	} else {
		b.WriteString("Expenses by category:\n\n")

		for _, c := range s.ExpensesByCategory {
			fmt.Fprintf(&b, "  %-20s %12s  %s\n", c.Name, FormatAmount(c.Total), bar(c.Total, s.TotalExpenses))
		}
	}

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

// bar draws part's share of total as a horizontal bar.
func bar(part, total decimal.Decimal) string {
	if !total.IsPositive() {
		return ""
	}

	n := int(part.Div(total).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())

	return activeStyle(strings.Repeat("█", n))
}

type summaryMsg struct {
	summary *client.Summary
	err     error
}

func (m OverviewModel) loadCmd() tea.Cmd {
	api := m.api
	start, end := m.timeframe.Bounds()

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		s, err := api.Summary(ctx, client.SummaryFilter{StartDate: start, EndDate: end})

		return summaryMsg{summary: s, err: err}
	}
}
