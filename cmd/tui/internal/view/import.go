package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
	"github.com/MrJamesThe3rd/fintrack/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateSetup importState = iota
	importStateFilePick
	importStateImporting
	importStateConflicts
	importStateResult
)

type ImportModel struct {
	CommonModel
	api *client.Client

	state      importState
	form       *huh.Form
	in         *importInput
	cats       []client.Category
	filePicker filepicker.Model

	pending      []client.NewTransaction
	conflicts    []client.Conflict
	conflictList list.Model
	selected     map[int]bool

	status string
	err    error
}

type importInput struct {
	format     string
	categoryID int64
}

func NewImportModel(api *client.Client) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		api:        api,
		in:         &importInput{},
		filePicker: fp,
		selected:   make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import Transactions" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStateConflicts:
		return "Space: toggle | a: all | n: none | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return loadCategoriesCmd(m.api, "")
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}

	case categoriesMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = "Error: " + errorText(msg.err)

			return m, expiredCmd(msg.err)
		}

		m.cats = msg.cats

		return m, m.resetSetup()

	case importResultMsg:
		return m.handleImportResult(msg)

	case confirmResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = "Error: " + errorText(msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d transactions.", msg.count)

		return m, nil
	}

	switch m.state {
	case importStateSetup:
		return m.updateSetup(msg)
	case importStateFilePick:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.state = importStateImporting
			m.status = fmt.Sprintf("Importing from %s...", path)

			return m, m.importCmd(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m *ImportModel) resetSetup() tea.Cmd {
	*m.in = importInput{}

	categories := []huh.Option[int64]{huh.NewOption("None, every row must match a rule", int64(0))}
	for _, c := range m.cats {
		categories = append(categories, huh.NewOption(fmt.Sprintf("%s (%s)", c.Name, c.Type), c.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("File format").
				Options(
					huh.NewOption("Detect from header", string(importer.FormatAuto)),
					huh.NewOption("Fintrack export", string(importer.FormatFintrack)),
					huh.NewOption("Debit/credit columns", string(importer.FormatSplit)),
					huh.NewOption("Bank statement", string(importer.FormatStatement)),
				).
				Value(&m.in.format),
			huh.NewSelect[int64]().
				Title("Default category").
				Description("Used for rows no matching rule recognises").
				Options(categories...).
				Value(&m.in.categoryID),
		),
	).WithWidth(60).WithShowHelp(false)
	m.state = importStateSetup
	m.err = nil
	m.status = ""

	return m.form.Init()
}

func (m ImportModel) updateSetup(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = importStateFilePick

	return m, m.filePicker.Init()
}

func (m ImportModel) handleImportResult(msg importResultMsg) (tea.Model, tea.Cmd) {
	var conflict *client.ConflictError
	if errors.As(msg.err, &conflict) {
		m.pending = conflict.New
		m.conflicts = conflict.Conflicts
		m.selected = make(map[int]bool)
		m.state = importStateConflicts

		items := make([]list.Item, len(m.conflicts))
		for i, c := range m.conflicts {
			items[i] = conflictItem{conflict: c, index: i}
		}

		delegate := conflictDelegate{selected: &m.selected}
		m.conflictList = list.New(items, delegate, 80, 20)
		m.conflictList.Title = fmt.Sprintf("Possible duplicates (%d new rows will be imported regardless)", len(m.pending))
		m.conflictList.SetShowStatusBar(false)
		m.conflictList.SetFilteringEnabled(false)
		m.conflictList.SetShowHelp(false)

		return m, nil
	}

	m.state = importStateResult

	if msg.err != nil {
		m.err = msg.err
		m.status = "Error: " + errorText(msg.err)

		return m, nil
	}

	m.status = fmt.Sprintf("Imported %d transactions (%s, %s).", msg.result.Imported, msg.result.Format, msg.result.Charset)

	return m, nil
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick, importStateResult, importStateConflicts:
		m.pending = nil
		m.conflicts = nil
		m.selected = make(map[int]bool)

		return m, m.resetSetup()
	}

	return m, Back
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateSetup:
		if m.form == nil {
			return lipgloss.NewStyle().Padding(2).Render("Loading categories...")
		}

		return lipgloss.NewStyle().Padding(2).Render(m.form.View())
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select file to import (%s):\n\n%s", m.formatLabel(), m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateConflicts:
		return lipgloss.NewStyle().Padding(1).Render(m.conflictList.View())
	case importStateResult:
		status := okStyle(m.status)
		if m.err != nil {
			status = errorStyle(m.status)
		}

		return lipgloss.NewStyle().Padding(2).Render(status + "\n\n(Esc to import another)")
	}

	return ""
}

func (m ImportModel) formatLabel() string {
	if m.in.format == "" {
		return "auto"
	}

	return m.in.format
}

type importResultMsg struct {
	result *client.ImportResult
	err    error
}

type confirmResultMsg struct {
	count int
	err   error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	api := m.api
	in := *m.in

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := api.ImportTransactions(ctx, filepath.Base(path), f, in.format, in.categoryID)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{result: result}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	api := m.api
	pending := m.pending
	conflicts := m.conflicts
	selected := m.selected

	return func() tea.Msg {
		all := append([]client.NewTransaction(nil), pending...)

		for i, c := range conflicts {
			if !selected[i] {
				continue
			}

			all = append(all, c.Incoming)
		}

		if len(all) == 0 {
			return confirmResultMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := api.ConfirmImport(ctx, all)
		if err != nil {
			return confirmResultMsg{err: err}
		}

		return confirmResultMsg{count: result.Imported}
	}
}

type conflictItem struct {
	conflict client.Conflict
	index    int
}

func (i conflictItem) Title() string       { return "" }
func (i conflictItem) Description() string { return "" }
func (i conflictItem) FilterValue() string { return "" }

type conflictDelegate struct {
	selected *map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if (*d.selected)[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming
	existing := item.conflict.Existing

	line1 := fmt.Sprintf("%s%s %s  %s %s  %s",
		cursor, checkbox,
		FormatDate(incoming.Date),
		incoming.Type,
		FormatAmount(incoming.Amount),
		deref(incoming.Description),
	)

	line2 := fmt.Sprintf("      Existing #%d: %s  %s %s  %s",
		existing.ID,
		FormatDate(existing.Date),
		existing.Type,
		FormatAmount(existing.Amount),
		deref(existing.Description),
	)

	fmt.Fprintf(w, "%s\n%s\n", line1, line2)
}
