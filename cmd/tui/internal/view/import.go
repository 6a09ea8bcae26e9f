package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	"github.com/MrJamesThe3rd/ledgersync/internal/history"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
	"github.com/MrJamesThe3rd/ledgersync/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

// Importer runs the pipeline. *pipeline.Pipeline satisfies it.
type Importer interface {
	Run(ctx context.Context, params pipeline.Params) (*pipeline.Result, error)
	Submit(ctx context.Context, destination ledger.Destination, auth ledger.Auth, txs []*transaction.Transaction) (*history.Run, error)
}

type importState int

const (
	importStateConfig importState = iota
	importStateCutoff
	importStateRunning
	importStatePreview
	importStateConfirm
	importStateSubmitting
	importStateResult
)

type ImportModel struct {
	CommonModel
	importer Importer

	state   importState
	form    *huh.Form
	picker  CutoffPicker
	spinner spinner.Model
	table   table.Model

	configPath string
	confirmed  bool
	params     pipeline.Params
	result     *pipeline.Result

	status string
	err    error
}

func NewImportModel(imp Importer) ImportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ImportModel{
		importer:   imp,
		picker:     NewCutoffPicker(),
		spinner:    s,
		table:      newPreviewTable(),
		configPath: "import.yaml",
	}
	m.form = m.buildConfigForm()

	return m
}

func newPreviewTable() table.Model {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 10},
		{Title: "Amount", Width: 10},
		{Title: "Category", Width: 16},
		{Title: "Accounts", Width: 28},
		{Title: "Description", Width: 36},
		{Title: "", Width: 4},
	}

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

func (m ImportModel) Title() string { return "Import Statements" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStatePreview:
		return "Esc: back | s: submit | ↑/↓: scroll"
	case importStateRunning, importStateSubmitting:
		return "Working..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil

	case CutoffSelectedMsg:
		m.params.MaxDate = msg.Date
		return m.startRun()

	case runResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.result = msg.result
		m.state = importStatePreview
		m.refreshTable()
		m.table.Focus()

		return m, nil

	case submitResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Submitted %d transactions to %s.", msg.run.Imported, msg.run.Destination)

		return m, nil
	}

	switch m.state {
	case importStateConfig:
		return m.updateConfig(msg)
	case importStateCutoff:
		return m.updateCutoff(msg)
	case importStateRunning, importStateSubmitting:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case importStatePreview:
		return m.updatePreview(msg)
	case importStateConfirm:
		return m.updateConfirm(msg)
	case importStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ImportModel) buildConfigForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("config").
				Title("Import config").
				Description("YAML or JSON file listing the statements to import").
				Placeholder("import.yaml").
				Value(&m.configPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) updateConfig(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.configPath = m.form.GetString("config")

	imp, err := config.LoadImport(m.configPath)
	if err != nil {
		m.state = importStateResult
		m.err = err
		m.status = fmt.Sprintf("Error: %v", err)

		return m, nil
	}

	m.params = pipeline.Params{
		Destination: imp.Destination,
		Auth:        imp.APIAuth,
		DryRun:      true,
		Files:       imp.Files,
	}

	if imp.MaxDate != "" {
		// LoadImport already validated the date.
		m.params.MaxDate, _ = imp.Cutoff()
		return m.startRun()
	}

	m.state = importStateCutoff
	m.picker.Reset()

	return m, m.picker.Init()
}

func (m ImportModel) updateCutoff(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.picker.IsSelecting() {
		return m.reset()
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	return m, cmd
}

func (m ImportModel) startRun() (tea.Model, tea.Cmd) {
	m.state = importStateRunning
	m.err = nil
	m.status = fmt.Sprintf("Reconciling %d files against %s...", len(m.params.Files), m.params.Destination)

	return m, tea.Batch(m.spinner.Tick, m.runCmd(m.params))
}

func (m ImportModel) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m.reset()
		case "s":
			if len(m.result.Pending) == 0 {
				m.status = "Nothing new to submit."
				return m, nil
			}

			m.confirmed = false
			m.form = huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Key("confirm").
						Title(fmt.Sprintf("Submit %d transactions to %s?", len(m.result.Pending), m.params.Destination)).
						Affirmative("Submit").
						Negative("Cancel").
						Value(&m.confirmed),
				),
			).WithWidth(60).WithShowHelp(false)

			m.state = importStateConfirm
			m.table.Blur()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ImportModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = importStatePreview
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

	if !m.form.GetBool("confirm") {
		m.state = importStatePreview
		m.table.Focus()

		return m, nil
	}

	m.state = importStateSubmitting
	m.status = fmt.Sprintf("Submitting %d transactions...", len(m.result.Pending))

	return m, tea.Batch(m.spinner.Tick, m.submitCmd(m.params, m.result.Pending))
}

func (m ImportModel) reset() (tea.Model, tea.Cmd) {
	m.state = importStateConfig
	m.result = nil
	m.err = nil
	m.status = ""
	m.form = m.buildConfigForm()

	return m, m.form.Init()
}

func (m *ImportModel) refreshTable() {
	sent := make(map[*transaction.Transaction]bool, len(m.result.Skipped))
	for _, tx := range m.result.Skipped {
		sent[tx] = true
	}

	rows := make([]table.Row, 0, len(m.result.Transactions))
	for _, tx := range m.result.Transactions {
		mark := "new"
		if sent[tx] {
			mark = "sent"
		}

		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			string(tx.Type),
			FormatAmount(tx.Amount),
			tx.CategoryName(),
			accounts(tx),
			tx.Description,
			mark,
		})
	}

	m.table.SetRows(rows)
}

func accounts(tx *transaction.Transaction) string {
	var from, to string
	if tx.SourceAccount != nil {
		from = tx.SourceAccount.Name
	}

	if tx.DestinationAccount != nil {
		to = tx.DestinationAccount.Name
	}

	switch {
	case from != "" && to != "":
		return from + " → " + to
	case to != "":
		return "→ " + to
	}

	return from
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateConfig:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case importStateCutoff:
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())
	case importStateRunning, importStateSubmitting:
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("%s %s", m.spinner.View(), m.status))
	case importStatePreview, importStateConfirm:
		return m.viewPreview()
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewPreview() string {
	header := fmt.Sprintf(
		"%s: %s transactions, %s transfers, %s already submitted",
		m.params.Destination,
		activeStyle(fmt.Sprint(len(m.result.Transactions))),
		activeStyle(fmt.Sprint(len(m.result.Pairs))),
		activeStyle(fmt.Sprint(len(m.result.Skipped))),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == importStateConfirm && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render(m.form.View())

		content = lipgloss.JoinVertical(lipgloss.Left, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ImportModel) viewResult() string {
	color := lipgloss.Color("46")
	if m.err != nil {
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Padding(2).Render(
		lipgloss.NewStyle().Foreground(color).Render(m.status) +
			"\n\n(Esc to go back)",
	)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

// Messages

type runResultMsg struct {
	result *pipeline.Result
	err    error
}

type submitResultMsg struct {
	run *history.Run
	err error
}

func (m ImportModel) runCmd(params pipeline.Params) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RunCtx()
		defer cancel()

		res, err := m.importer.Run(ctx, params)

		return runResultMsg{result: res, err: err}
	}
}

func (m ImportModel) submitCmd(params pipeline.Params, txs []*transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RunCtx()
		defer cancel()

		run, err := m.importer.Submit(ctx, params.Destination, params.Auth, txs)

		return submitResultMsg{run: run, err: err}
	}
}
