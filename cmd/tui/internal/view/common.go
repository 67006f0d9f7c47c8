package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
)

const apiTimeout = 10 * time.Second

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// SessionExpiredMsg asks the root model to show the login screen again.
type SessionExpiredMsg struct{}

// APICtx returns a context with a standard timeout for API calls.
func APICtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), apiTimeout)
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// errorText renders err, turning API errors into their server message.
func errorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (%d)", apiErr.Message, apiErr.Status)
	}

	return err.Error()
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func okStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(s)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

// categoryNames indexes categories by id for display.
func categoryNames(cats []client.Category) map[int64]string {
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	return names
}

func categoryLabel(names map[int64]string, id *int64) string {
	if id == nil {
		return "Uncategorized"
	}

	if name, ok := names[*id]; ok {
		return name
	}

	return fmt.Sprintf("#%d", *id)
}

// expiredCmd returns a command announcing SessionExpiredMsg when err is a 401, else nil.
func expiredCmd(err error) tea.Cmd {
	if !client.IsUnauthorized(err) {
		return nil
	}

	return func() tea.Msg { return SessionExpiredMsg{} }
}
