package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
)

type categoriesState int

const (
	categoriesStateBrowse categoriesState = iota
	categoriesStateAdd
)

type CategoriesModel struct {
	CommonModel
	api *client.Client

	state  categoriesState
	table  table.Model
	cats   []client.Category
	form   *huh.Form
	in     *categoryInput
	status string
	err    error
}

type categoryInput struct {
	name string
	typ  string
}

func NewCategoriesModel(api *client.Client) CategoriesModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Type", Width: 10},
		{Title: "Owner", Width: 12},
	}

	return CategoriesModel{
		api:   api,
		table: newTable(columns),
		in:    &categoryInput{},
	}
}

func (m CategoriesModel) Title() string { return "Categories" }

func (m CategoriesModel) ShortHelp() string {
	if m.state == categoriesStateAdd {
		return "Esc: cancel | Enter: next"
	}

	return "Esc: back | a: add | x: delete | r: refresh"
}

func (m CategoriesModel) Init() tea.Cmd {
	return loadCategoriesCmd(m.api, "")
}

func (m CategoriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesMsg:
		m.err = msg.err
		if msg.err == nil {
			m.cats = msg.cats
			m.refreshTable()
		}

		return m, expiredCmd(msg.err)

	case categorySavedMsg:
		m.state = categoriesStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = "Error: " + errorText(msg.err)
		} else {
			m.status = msg.done
		}

		return m, loadCategoriesCmd(m.api, "")
	}

	if m.state == categoriesStateAdd {
		return m.updateAdd(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, loadCategoriesCmd(m.api, "")
		case "a":
			*m.in = categoryInput{typ: "expense"}
			m.form = huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Name").
						Value(&m.in.name).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("name is required")
							}
							return nil
						}),
					huh.NewSelect[string]().
						Title("Type").
						Options(huh.NewOption("Expense", "expense"), huh.NewOption("Income", "income")).
						Value(&m.in.typ),
				),
			).WithWidth(40).WithShowHelp(false)
			m.state = categoriesStateAdd
			m.table.Blur()

			return m, m.form.Init()
		case "x":
			return m, m.deleteCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m CategoriesModel) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = categoriesStateBrowse
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

	api := m.api
	in := *m.in

	return m, func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		c, err := api.CreateCategory(ctx, client.NewCategory{Name: strings.TrimSpace(in.name), Type: in.typ})
		if err != nil {
			return categorySavedMsg{err: err}
		}

		return categorySavedMsg{done: fmt.Sprintf("Added %s.", c.Name)}
	}
}

func (m CategoriesModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle("Error: " + errorText(m.err)))
	}

	content := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if m.state == categoriesStateAdd && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render("Add Category\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *CategoriesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.cats))
	for _, c := range m.cats {
		owner := "you"
		if c.UserID == nil {
			owner = "predefined"
		}

		rows = append(rows, table.Row{c.Name, c.Type, owner})
	}

	m.table.SetRows(rows)
}

type categorySavedMsg struct {
	done string
	err  error
}

func (m CategoriesModel) deleteCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.cats) {
		return nil
	}

	c := m.cats[idx]
	if c.UserID == nil {
		return func() tea.Msg {
			return categorySavedMsg{err: fmt.Errorf("predefined categories cannot be deleted")}
		}
	}

	api := m.api

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		if err := api.DeleteCategory(ctx, c.ID); err != nil {
			return categorySavedMsg{err: err}
		}

		return categorySavedMsg{done: fmt.Sprintf("Deleted %s. Its transactions are now uncategorized.", c.Name)}
	}
}
