package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
	"github.com/MrJamesThe3rd/fintrack/internal/optional"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
	listStateDelete
)

var (
	typeFilters = []string{"", "income", "expense"}
	dateFilters = []string{"All Time", "This Month", "Last Month"}
)

type ListModel struct {
	CommonModel
	api *client.Client

	state listState
	table table.Model
	txs   []client.Transaction
	names map[int64]string
	cats  []client.Category
	form  *huh.Form

	typeFilterIdx int
	dateFilterIdx int

	filter  client.TransactionFilter
	loading bool
	err     error
	status  string

	in *txInput
}

// txInput holds form values. It is shared by the edit and create forms.
type txInput struct {
	amount      string
	description string
	date        string
	typ         string
	categoryID  int64
	recurring   bool
	pattern     string
	confirm     bool
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func NewListModel(api *client.Client) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 8},
		{Title: "Amount", Width: 12},
		{Title: "Category", Width: 18},
		{Title: "Description", Width: 40},
	}

	return ListModel{
		api:   api,
		table: newTable(columns),
		in:    &txInput{},
	}
}

func (m ListModel) Title() string { return "Transactions" }

func (m ListModel) ShortHelp() string {
	if m.state != listStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | e: edit | x: delete | t: type filter | d: date filter | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			if client.IsUnauthorized(msg.err) {
				return m, func() tea.Msg { return SessionExpiredMsg{} }
			}

			return m, nil
		}

		m.err = nil
		m.txs = msg.txs
		m.cats = msg.cats
		m.names = categoryNames(msg.cats)
		m.refreshTable()

		return m, nil

	case listSaveMsg:
		if msg.err != nil {
			m.status = "Error: " + errorText(msg.err)
		} else {
			m.status = msg.done
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit, listStateDelete:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "e":
			return m.enterEditMode()
		case "x":
			return m.enterDeleteMode()
		case "t":
			m.typeFilterIdx = (m.typeFilterIdx + 1) % len(typeFilters)
			m.applyFilter()

			return m, m.loadTxsCmd()
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % len(dateFilters)
			m.applyFilter()

			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() (client.Transaction, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return client.Transaction{}, false
	}

	return m.txs[idx], true
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	tx, ok := m.selected()
	if !ok {
		return m, nil
	}

	*m.in = txInput{
		amount:      FormatAmount(tx.Amount),
		description: deref(tx.Description),
		date:        FormatDate(tx.Date),
		typ:         tx.Type,
		recurring:   tx.IsRecurring,
		pattern:     deref(tx.RecurrencePattern),
	}

	if tx.CategoryID != nil {
		m.in.categoryID = *tx.CategoryID
	}

	m.form = transactionForm(m.in, m.cats).WithWidth(45).WithShowHelp(false)
	m.state = listStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) enterDeleteMode() (tea.Model, tea.Cmd) {
	tx, ok := m.selected()
	if !ok {
		return m, nil
	}

	m.in.confirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s %s on %s?", tx.Type, FormatAmount(tx.Amount), FormatDate(tx.Date))).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.in.confirm),
		),
	).WithWidth(45).WithShowHelp(false)
	m.state = listStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == listStateDelete {
		return m, m.deleteCmd()
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle("Error: " + errorText(m.err)))
	}

	typeLabel := typeFilters[m.typeFilterIdx]
	if typeLabel == "" {
		typeLabel = "All"
	}

	header := fmt.Sprintf(
		"Filter: [t] Type: %s | [d] Date: %s",
		activeStyle(typeLabel),
		activeStyle(dateFilters[m.dateFilterIdx]),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != listStateBrowse && m.form != nil {
		title := "Edit Transaction"
		if m.state == listStateDelete {
			title = "Delete Transaction"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) applyFilter() {
	m.filter.Type = typeFilters[m.typeFilterIdx]

	now := time.Now()

	switch m.dateFilterIdx {
	case 1:
		s := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		e := s.AddDate(0, 1, 0).Add(-time.Microsecond)
		m.filter.StartDate = &s
		m.filter.EndDate = &e
	case 2:
		s := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		e := s.AddDate(0, 1, 0).Add(-time.Microsecond)
		m.filter.StartDate = &s
		m.filter.EndDate = &e
	default:
		m.filter.StartDate = nil
		m.filter.EndDate = nil
	}
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			tx.Type,
			FormatAmount(tx.Amount),
			categoryLabel(m.names, tx.CategoryID),
			deref(tx.Description),
		})
	}

	m.table.SetRows(rows)
}

// transactionForm binds in to inputs for every editable transaction field.
func transactionForm(in *txInput, cats []client.Category) *huh.Form {
	options := make([]huh.Option[int64], 0, len(cats))
	for _, c := range cats {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", c.Name, c.Type), c.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Type").
				Options(huh.NewOption("Expense", "expense"), huh.NewOption("Income", "income")).
				Value(&in.typ),
			huh.NewInput().
				Title("Amount").
				Placeholder("12.50").
				Value(&in.amount).
				Validate(validateAmount),
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&in.date).
				Validate(validateDate),
			huh.NewInput().
				Title("Description").
				Value(&in.description),
		),
		huh.NewGroup(
			huh.NewSelect[int64]().
				Title("Category").
				Options(options...).
				Value(&in.categoryID),
			huh.NewConfirm().
				Title("Recurring?").
				Value(&in.recurring),
			huh.NewInput().
				Title("Recurrence pattern").
				Placeholder("monthly").
				Value(&in.pattern),
		),
	)
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("amount must be a number")
	}

	if !d.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}

	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}

	return nil
}

// optionalText maps an empty input to an explicit null.
func optionalText(s string) optional.Field[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return optional.Null[string]()
	}

	return optional.Of(s)
}

// patchFrom sends only the fields the user changed.
func patchFrom(tx client.Transaction, in txInput) client.TransactionPatch {
	var p client.TransactionPatch

	if amount, err := decimal.NewFromString(strings.TrimSpace(in.amount)); err == nil && !amount.Equal(tx.Amount) {
		p.Amount = optional.Of(amount)
	}

	if date, err := time.Parse(time.DateOnly, strings.TrimSpace(in.date)); err == nil && FormatDate(date) != FormatDate(tx.Date) {
		p.Date = optional.Of(date)
	}

	if strings.TrimSpace(in.description) != deref(tx.Description) {
		p.Description = optionalText(in.description)
	}

	if in.typ != tx.Type {
		p.Type = optional.Of(in.typ)
	}

	if in.categoryID != 0 && (tx.CategoryID == nil || *tx.CategoryID != in.categoryID) {
		p.CategoryID = optional.Of(in.categoryID)
	}

	if in.recurring != tx.IsRecurring {
		p.IsRecurring = optional.Of(in.recurring)
	}

	if strings.TrimSpace(in.pattern) != deref(tx.RecurrencePattern) {
		p.RecurrencePattern = optionalText(in.pattern)
	}

	return p
}

// changedFields names the fields p sets, in form order.
func changedFields(p client.TransactionPatch) []string {
	var fields []string

	for _, f := range []struct {
		name string
		set  bool
	}{
		{"type", p.Type.IsSet()},
		{"amount", p.Amount.IsSet()},
		{"date", p.Date.IsSet()},
		{"description", p.Description.IsSet()},
		{"category", p.CategoryID.IsSet()},
		{"recurring", p.IsRecurring.IsSet()},
		{"recurrence pattern", p.RecurrencePattern.IsSet()},
	} {
		if f.set {
			fields = append(fields, f.name)
		}
	}

	return fields
}

// Messages

type loadListMsg struct {
	txs  []client.Transaction
	cats []client.Category
	err  error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	api := m.api
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		txs, err := api.ListTransactions(ctx, filter)
		if err != nil {
			return loadListMsg{err: err}
		}

		cats, err := api.ListCategories(ctx, "")

		return loadListMsg{txs: txs, cats: cats, err: err}
	}
}

type listSaveMsg struct {
	done string
	err  error
}

func (m ListModel) saveCmd() tea.Cmd {
	tx, ok := m.selected()
	if !ok {
		return nil
	}

	api := m.api
	patch := patchFrom(tx, *m.in)

	return func() tea.Msg {
		changed := changedFields(patch)
		if len(changed) == 0 {
			return listSaveMsg{done: "No changes."}
		}

		ctx, cancel := APICtx()
		defer cancel()

		if _, err := api.UpdateTransaction(ctx, tx.ID, patch); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{done: "Updated " + strings.Join(changed, ", ") + "."}
	}
}

func (m ListModel) deleteCmd() tea.Cmd {
	tx, ok := m.selected()
	if !ok || !m.in.confirm {
		return func() tea.Msg { return listSaveMsg{done: "Kept."} }
	}

	api := m.api

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		if err := api.DeleteTransaction(ctx, tx.ID); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{done: "Deleted transaction " + strconv.FormatInt(tx.ID, 10) + "."}
	}
}
