package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
)

const (
	modeLogin    = "login"
	modeRegister = "register"
)

// LoggedInMsg is emitted once the client holds a valid token.
type LoggedInMsg struct {
	Username string
}

type LoginModel struct {
	CommonModel
	api *client.Client

	form    *huh.Form
	working bool
	status  string
	err     error

	// Form values live behind a pointer so copies of the model share them with the form.
	in *loginInput
}

type loginInput struct {
	mode     string
	username string
	email    string
	password string
}

func NewLoginModel(api *client.Client) LoginModel {
	m := LoginModel{api: api, in: &loginInput{mode: modeLogin}}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) buildForm() *huh.Form {
	notEmpty := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome to fintrack").
				Options(
					huh.NewOption("Log in", modeLogin),
					huh.NewOption("Create an account", modeRegister),
				).
				Value(&m.in.mode),
		),
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&m.in.username).Validate(notEmpty("username")),
		),
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&m.in.email).Validate(notEmpty("email")),
		).WithHideFunc(func() bool { return m.in.mode != modeRegister }),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.in.password).
				Validate(notEmpty("password")),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m LoginModel) Title() string { return "Login" }

func (m LoginModel) ShortHelp() string { return "Enter: next | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(authResultMsg); ok {
		m.working = false

		if res.err != nil {
			m.err = res.err
			m.in.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{Username: res.username} }
	}

	if m.working {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.working = true
	m.err = nil
	m.status = "Signing in..."

	return m, m.authCmd()
}

func (m LoginModel) View() string {
	content := m.form.View()

	if m.working {
		content = m.status
	}

	if m.err != nil {
		content = errorStyle("Error: "+errorText(m.err)) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

type authResultMsg struct {
	username string
	err      error
}

func (m LoginModel) authCmd() tea.Cmd {
	api := m.api
	mode, username, email, password := m.in.mode, strings.TrimSpace(m.in.username), strings.TrimSpace(m.in.email), m.in.password

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		if mode == modeRegister {
			if _, err := api.Register(ctx, username, email, password); err != nil {
				return authResultMsg{err: err}
			}
		}

		if _, err := api.Login(ctx, username, password); err != nil {
			return authResultMsg{err: err}
		}

		return authResultMsg{username: username}
	}
}
