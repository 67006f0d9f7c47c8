package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
)

type BudgetsModel struct {
	CommonModel
	api *client.Client

	adding     bool
	activeOnly bool
	table      table.Model
	budgets    []client.Budget
	names      map[int64]string
	cats       []client.Category
	form       *huh.Form
	in         *budgetInput
	status     string
	err        error
}

type budgetInput struct {
	name       string
	target     string
	start      string
	end        string
	categoryID int64
}

func NewBudgetsModel(api *client.Client) BudgetsModel {
	columns := []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Category", Width: 16},
		{Title: "Target", Width: 12},
		{Title: "Current", Width: 12},
		{Title: "From", Width: 12},
		{Title: "To", Width: 12},
		{Title: "Active", Width: 7},
	}

	return BudgetsModel{
		api:        api,
		activeOnly: true,
		table:      newTable(columns),
		in:         &budgetInput{},
	}
}

func (m BudgetsModel) Title() string { return "Budgets" }

func (m BudgetsModel) ShortHelp() string {
	if m.adding {
		return "Esc: cancel | Enter: next"
	}

	return "Esc: back | a: add | v: active/all | r: refresh"
}

func (m BudgetsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BudgetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case budgetsMsg:
		m.err = msg.err
		if msg.err == nil {
			m.budgets = msg.budgets
			m.cats = msg.cats
			m.names = categoryNames(msg.cats)
			m.refreshTable()
		}

		return m, expiredCmd(msg.err)

	case budgetSavedMsg:
		m.adding = false
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = "Error: " + errorText(msg.err)
		} else {
			m.status = msg.done
		}

		return m, m.loadCmd()
	}

	if m.adding {
		return m.updateAdd(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, m.loadCmd()
		case "v":
			m.activeOnly = !m.activeOnly
			return m, m.loadCmd()
		case "a":
			return m.startAdd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BudgetsModel) startAdd() (tea.Model, tea.Cmd) {
	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	*m.in = budgetInput{
		start: FormatDate(first),
		end:   FormatDate(first.AddDate(0, 1, -1)),
	}

	options := []huh.Option[int64]{huh.NewOption("Any category", int64(0))}
	for _, c := range m.cats {
		options = append(options, huh.NewOption(c.Name, c.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&m.in.name),
			huh.NewInput().Title("Target amount").Value(&m.in.target).Validate(validateAmount),
			huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").Value(&m.in.start).Validate(validateDate),
			huh.NewInput().Title("End date").Placeholder("YYYY-MM-DD").Value(&m.in.end).Validate(validateDate),
			huh.NewSelect[int64]().Title("Category").Options(options...).Value(&m.in.categoryID),
		),
	).WithWidth(45).WithShowHelp(false)
	m.adding = true
	m.table.Blur()

	return m, m.form.Init()
}

func (m BudgetsModel) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.adding = false
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m BudgetsModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle("Error: " + errorText(m.err)))
	}

	scope := "active now"
	if !m.activeOnly {
		scope = "all"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render("Showing: [v] "+activeStyle(scope)),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	if m.adding && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render("New Budget\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *BudgetsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.budgets))
	for _, b := range m.budgets {
		active := "no"
		if b.IsActive {
			active = "yes"
		}

		category := "Any"
		if b.CategoryID != nil {
			category = categoryLabel(m.names, b.CategoryID)
		}

		rows = append(rows, table.Row{
			deref(b.Name),
			category,
			FormatAmount(b.TargetAmount),
			FormatAmount(b.CurrentAmount),
			FormatDate(b.StartDate),
			FormatDate(b.EndDate),
			active,
		})
	}

	m.table.SetRows(rows)
}

type budgetsMsg struct {
	budgets []client.Budget
	cats    []client.Category
	err     error
}

func (m BudgetsModel) loadCmd() tea.Cmd {
	api := m.api
	activeOnly := m.activeOnly

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		budgets, err := api.ListBudgets(ctx, activeOnly)
		if err != nil {
			return budgetsMsg{err: err}
		}

		cats, err := api.ListCategories(ctx, "")

		return budgetsMsg{budgets: budgets, cats: cats, err: err}
	}
}

type budgetSavedMsg struct {
	done string
	err  error
}

func (m BudgetsModel) saveCmd() tea.Cmd {
	api := m.api
	in := *m.in

	return func() tea.Msg {
		target, err := decimal.NewFromString(strings.TrimSpace(in.target))
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		start, err := time.Parse(time.DateOnly, strings.TrimSpace(in.start))
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		end, err := time.Parse(time.DateOnly, strings.TrimSpace(in.end))
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		nb := client.NewBudget{TargetAmount: target, StartDate: start, EndDate: end}

		if name := strings.TrimSpace(in.name); name != "" {
			nb.Name = &name
		}

		if in.categoryID != 0 {
			nb.CategoryID = &in.categoryID
		}

		ctx, cancel := APICtx()
		defer cancel()

		b, err := api.CreateBudget(ctx, nb)
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		return budgetSavedMsg{done: fmt.Sprintf("Added budget of %s.", FormatAmount(b.TargetAmount))}
	}
}
