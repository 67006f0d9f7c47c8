package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
)

type createState int

const (
	createStateLoading createState = iota
	createStateForm
	createStateSaving
	createStateResult
)

type CreateModel struct {
	CommonModel
	api *client.Client

	state  createState
	form   *huh.Form
	cats   []client.Category
	in     *txInput
	status string
	err    error
}

func NewCreateModel(api *client.Client) CreateModel {
	return CreateModel{api: api, in: &txInput{}}
}

func (m CreateModel) Title() string { return "New Transaction" }

func (m CreateModel) ShortHelp() string {
	if m.state == createStateResult {
		return "Esc: back | n: add another"
	}

	return "Esc: back | Enter: next"
}

func (m CreateModel) Init() tea.Cmd {
	return loadCategoriesCmd(m.api, "")
}

func (m CreateModel) reset() (CreateModel, tea.Cmd) {
	*m.in = txInput{
		typ:  "expense",
		date: FormatDate(time.Now()),
	}

	if len(m.cats) > 0 {
		m.in.categoryID = m.cats[0].ID
	}

	m.form = transactionForm(m.in, m.cats).WithWidth(50).WithShowHelp(false)
	m.state = createStateForm
	m.err = nil

	return m, m.form.Init()
}

func (m CreateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesMsg:
		if msg.err != nil {
			m.state = createStateResult
			m.err = msg.err

			return m, nil
		}

		m.cats = msg.cats
		if len(m.cats) == 0 {
			m.state = createStateResult
			m.err = fmt.Errorf("no categories yet, add one first")

			return m, nil
		}

		return m.reset()

	case createResultMsg:
		m.state = createStateResult
		m.err = msg.err

		if msg.tx != nil {
			m.status = fmt.Sprintf("Created %s of %s on %s.", msg.tx.Type, FormatAmount(msg.tx.Amount), FormatDate(msg.tx.Date))
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.state == createStateResult && msg.String() == "n" && len(m.cats) > 0 {
			return m.reset()
		}
	}

	if m.state != createStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = createStateSaving

	return m, m.saveCmd()
}

func (m CreateModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	switch m.state {
	case createStateLoading:
		return style.Render("Loading categories...")
	case createStateForm:
		return style.Render(m.form.View())
	case createStateSaving:
		return style.Render("Saving...")
	}

	if m.err != nil {
		return style.Render(errorStyle("Error: "+errorText(m.err)) + "\n\n(Esc to go back)")
	}

	return style.Render(okStyle(m.status) + "\n\n(n to add another, Esc to go back)")
}

type createResultMsg struct {
	tx  *client.Transaction
	err error
}

func (m CreateModel) saveCmd() tea.Cmd {
	api := m.api
	in := *m.in

	return func() tea.Msg {
		amount, err := decimal.NewFromString(strings.TrimSpace(in.amount))
		if err != nil {
			return createResultMsg{err: err}
		}

		date, err := time.Parse(time.DateOnly, strings.TrimSpace(in.date))
		if err != nil {
			return createResultMsg{err: err}
		}

		nt := client.NewTransaction{
			CategoryID:  in.categoryID,
			Amount:      amount,
			Date:        date,
			Type:        in.typ,
			IsRecurring: in.recurring,
		}

		if d := strings.TrimSpace(in.description); d != "" {
			nt.Description = &d
		}

		if p := strings.TrimSpace(in.pattern); p != "" {
			nt.RecurrencePattern = &p
		}

		ctx, cancel := APICtx()
		defer cancel()

		tx, err := api.CreateTransaction(ctx, nt)

		return createResultMsg{tx: tx, err: err}
	}
}

type categoriesMsg struct {
	cats []client.Category
	err  error
}

func loadCategoriesCmd(api *client.Client, typ string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		cats, err := api.ListCategories(ctx, typ)

		return categoriesMsg{cats: cats, err: err}
	}
}
