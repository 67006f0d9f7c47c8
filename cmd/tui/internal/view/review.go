package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
	"github.com/MrJamesThe3rd/fintrack/internal/optional"
)

// ReviewModel walks through uncategorized transactions, preselecting the category the
// matching rules suggest. Confirming a choice also teaches a rule for the description.
type ReviewModel struct {
	CommonModel
	api *client.Client

	state           reviewState
	timeframePicker TimeframePicker

	cats       []client.Category
	queue      []client.Transaction
	current    *client.Transaction
	choices    []client.Category
	cursor     int
	suggested  *int64
	totalCount int

	status  string
	loading bool
}

type reviewState int

const (
	reviewStateTimeframe reviewState = iota
	reviewStateReviewing
)

func NewReviewModel(api *client.Client) ReviewModel {
	return ReviewModel{
		api:             api,
		timeframePicker: NewTimeframePicker(ListTimeframes),
	}
}

func (m ReviewModel) Title() string { return "Review Uncategorized" }

func (m ReviewModel) ShortHelp() string {
	if m.state == reviewStateTimeframe {
		return "Esc: back | Enter: select"
	}

	return "↑/↓: category | Enter: save & learn | s: skip | Esc: back"
}

func (m ReviewModel) Init() tea.Cmd {
	return m.timeframePicker.Init()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.state = reviewStateReviewing
		m.loading = true

		return m, m.loadCmd(msg)

	case loadUncategorizedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Error loading transactions: " + errorText(msg.err)
			return m, expiredCmd(msg.err)
		}

		m.cats = msg.cats
		m.queue = msg.txs
		m.totalCount = len(m.queue)

		return m, m.nextTx()

	case suggestionMsg:
		if m.current == nil || msg.txID != m.current.ID || msg.categoryID == nil {
			return m, nil
		}

		m.suggested = msg.categoryID
		for i, c := range m.choices {
			if c.ID == *msg.categoryID {
				m.cursor = i
			}
		}

		return m, nil

	case reviewSaveMsg:
		if msg.err != nil {
			m.status = "Error saving: " + errorText(msg.err)
			return m, nil
		}

		return m, m.nextTx()

	case tea.KeyMsg:
		if m.state == reviewStateReviewing {
			return m.updateReviewing(msg)
		}

		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.state == reviewStateTimeframe {
		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ReviewModel) updateReviewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m, Back
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "s":
		if m.current != nil {
			return m, m.nextTx()
		}
	case "enter":
		if m.current != nil && len(m.choices) > 0 {
			return m, m.saveCmd(*m.current, m.choices[m.cursor].ID)
		}
	}

	return m, nil
}

func (m ReviewModel) View() string {
	if m.state == reviewStateTimeframe {
		return lipgloss.NewStyle().Padding(1).Render("Review uncategorized transactions from:\n\n" + m.timeframePicker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading...")
	}

	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	tx := m.current
	info := fmt.Sprintf(
		"Date:        %s\nType:        %s\nAmount:      %s\nDescription: %s\n",
		FormatDate(tx.Date),
		tx.Type,
		FormatAmount(tx.Amount),
		deref(tx.Description),
	)

	var b strings.Builder

	for i, c := range m.choices {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		line := cursor + c.Name
		if m.suggested != nil && c.ID == *m.suggested {
			line += " (suggested)"
		}

		if i == m.cursor {
			line = activeStyle(line)
		}

		b.WriteString(line + "\n")
	}

	if len(m.choices) == 0 {
		b.WriteString(errorStyle(fmt.Sprintf("No %s categories exist yet.", tx.Type)) + "\n")
	}

	return lipgloss.NewStyle().Padding(2).Render(
		fmt.Sprintf("%s\n\n%s\nCategory:\n%s", m.status, info, b.String()),
	)
}

type loadUncategorizedMsg struct {
	txs  []client.Transaction
	cats []client.Category
	err  error
}

func (m ReviewModel) loadCmd(tf TimeframeSelectedMsg) tea.Cmd {
	api := m.api
	start, end := tf.Bounds()

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		txs, err := api.ListTransactions(ctx, client.TransactionFilter{StartDate: start, EndDate: end})
		if err != nil {
			return loadUncategorizedMsg{err: err}
		}

		cats, err := api.ListCategories(ctx, "")
		if err != nil {
			return loadUncategorizedMsg{err: err}
		}

		return loadUncategorizedMsg{txs: uncategorized(txs), cats: cats}
	}
}

func uncategorized(txs []client.Transaction) []client.Transaction {
	var out []client.Transaction

	for _, tx := range txs {
		if tx.CategoryID == nil {
			out = append(out, tx)
		}
	}

	return out
}

// categoriesOfType keeps the categories a transaction of typ may reference.
func categoriesOfType(cats []client.Category, typ string) []client.Category {
	var out []client.Category

	for _, c := range cats {
		if c.Type == typ {
			out = append(out, c)
		}
	}

	return out
}

// nextTx pops the queue and asks for a suggestion for the new current transaction.
func (m *ReviewModel) nextTx() tea.Cmd {
	m.suggested = nil
	m.cursor = 0

	if len(m.queue) == 0 {
		m.current = nil
		m.choices = nil

		if m.totalCount == 0 {
			m.status = "No uncategorized transactions found."
		} else {
			m.status = okStyle("All done!")
		}

		return nil
	}

	tx := m.queue[0]
	m.queue = m.queue[1:]
	m.current = &tx
	m.choices = categoriesOfType(m.cats, tx.Type)
	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)

	description := deref(tx.Description)
	if description == "" {
		return nil
	}

	api := m.api

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		id, err := api.SuggestCategory(ctx, description)
		if err != nil {
			return suggestionMsg{txID: tx.ID}
		}

		return suggestionMsg{txID: tx.ID, categoryID: id}
	}
}

type suggestionMsg struct {
	txID       int64
	categoryID *int64
}

type reviewSaveMsg struct {
	err error
}

func (m ReviewModel) saveCmd(tx client.Transaction, categoryID int64) tea.Cmd {
	api := m.api
	learn := tx.Description != nil && strings.TrimSpace(*tx.Description) != "" &&
		(m.suggested == nil || *m.suggested != categoryID)

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		patch := client.TransactionPatch{CategoryID: optional.Of(categoryID)}
		if _, err := api.UpdateTransaction(ctx, tx.ID, patch); err != nil {
			return reviewSaveMsg{err: err}
		}

		if learn {
			if _, err := api.LearnRule(ctx, *tx.Description, categoryID); err != nil {
				return reviewSaveMsg{err: fmt.Errorf("categorized, but learning the rule failed: %w", err)}
			}
		}

		return reviewSaveMsg{}
	}
}
