package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/fintrack/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/fintrack/internal/client"
	"github.com/MrJamesThe3rd/fintrack/internal/config"
)

type View int

const (
	ViewLogin View = iota
	ViewMenu
	ViewOverview
	ViewList
	ViewCreate
	ViewCategories
	ViewBudgets
	ViewImport
	ViewExport
	ViewReview
)

type menuEntry struct {
	key   string
	label string
	view  View
}

var menu = []menuEntry{
	{"1", "Overview", ViewOverview},
	{"2", "Transactions", ViewList},
	{"3", "New Transaction", ViewCreate},
	{"4", "Categories", ViewCategories},
	{"5", "Budgets", ViewBudgets},
	{"6", "Import Transactions", ViewImport},
	{"7", "Export Transactions", ViewExport},
	{"8", "Review Uncategorized", ViewReview},
}

type model struct {
	api      *client.Client
	username string
	notice   string

	currentView View
	active      tea.Model
}

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	api := client.New(cfg.Client.APIURL)

	return model{
		api:         api,
		currentView: ViewLogin,
		active:      view.NewLoginModel(api),
	}
}

// open builds a fresh model for v so every visit starts from a clean state.
func (m model) open(v View) tea.Model {
	switch v {
	case ViewOverview:
		return view.NewOverviewModel(m.api)
	case ViewList:
		return view.NewListModel(m.api)
	case ViewCreate:
		return view.NewCreateModel(m.api)
	case ViewCategories:
		return view.NewCategoriesModel(m.api)
	case ViewBudgets:
		return view.NewBudgetsModel(m.api)
	case ViewImport:
		return view.NewImportModel(m.api)
	case ViewExport:
		return view.NewExportModel(m.api)
	case ViewReview:
		return view.NewReviewModel(m.api)
	}

	return view.NewLoginModel(m.api)
}

func (m model) Init() tea.Cmd {
	return m.active.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "l":
				m.api.SetToken("")
				m.username = ""
				m.notice = ""
				m.currentView = ViewLogin
				m.active = view.NewLoginModel(m.api)

				return m, m.active.Init()
			}

			for _, e := range menu {
				if msg.String() == e.key {
					m.currentView = e.view
					m.active = m.open(e.view)

					return m, m.active.Init()
				}
			}

			return m, nil
		}

	case view.LoggedInMsg:
		m.username = msg.Username
		m.notice = ""
		m.currentView = ViewMenu
		m.active = nil

		return m, nil

	case view.SessionExpiredMsg:
		m.api.SetToken("")
		m.notice = "Your session expired. Please sign in again."
		m.currentView = ViewLogin
		m.active = view.NewLoginModel(m.api)

		return m, m.active.Init()

	case view.BackMsg:
		m.currentView = ViewMenu
		m.active = nil

		return m, nil
	}

	if m.active == nil {
		return m, nil
	}

	var cmd tea.Cmd
	m.active, cmd = m.active.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.currentView == ViewMenu || m.active == nil {
		s := fmt.Sprintf("Fintrack (%s)\n\n", m.username)
		for _, e := range menu {
			s += fmt.Sprintf("%s. %s\n", e.key, e.label)
		}

		s += "\nl. Log out\nq. Quit"

		return lipgloss.NewStyle().Padding(2).Render(s)
	}

	content := m.active.View()

	if m.notice != "" && m.currentView == ViewLogin {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).PaddingLeft(2).Render(m.notice) + "\n" + content
	}

	if h, ok := m.active.(interface{ ShortHelp() string }); ok {
		content += "\n" + lipgloss.NewStyle().Faint(true).PaddingLeft(2).Render(h.ShortHelp())
	}

	return content
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
