package view

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgersync/internal/history"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
)

const runsLimit = 100

type RunLister interface {
	List(ctx context.Context, filter history.ListFilter) ([]*history.Run, error)
}

var destinationFilters = []ledger.Destination{"", ledger.Firefly, ledger.Wallet}

type RunsModel struct {
	CommonModel
	history RunLister

	table table.Model
	runs  []*history.Run

	destIdx int
	filter  history.ListFilter
	loading bool
	err     error
}

func NewRunsModel(h RunLister) RunsModel {
	columns := []table.Column{
		{Title: "Started", Width: 17},
		{Title: "Destination", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Loaded", Width: 7},
		{Title: "Imported", Width: 9},
		{Title: "Transfers", Width: 10},
		{Title: "Skipped", Width: 8},
		{Title: "Error", Width: 40},
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

	return RunsModel{
		history: h,
		table:   t,
		filter:  history.ListFilter{Limit: runsLimit},
		loading: true,
	}
}

func (m RunsModel) Title() string { return "Import Runs" }

func (m RunsModel) ShortHelp() string {
	return "Esc: back | d: destination filter | r: refresh"
}

func (m RunsModel) Init() tea.Cmd {
	return m.loadRunsCmd()
}

func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRunsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.runs = msg.runs
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadRunsCmd()
		case "d":
			m.destIdx = (m.destIdx + 1) % len(destinationFilters)
			m.filter.Destination = string(destinationFilters[m.destIdx])
			m.loading = true

			return m, m.loadRunsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m RunsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading runs...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	dest := "All"
	if m.filter.Destination != "" {
		dest = m.filter.Destination
	}

	header := fmt.Sprintf("Filter: [d] Destination: %s", activeStyle(dest))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	))
}

func (m *RunsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.runs))
	for _, run := range m.runs {
		rows = append(rows, table.Row{
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Destination,
			string(run.Status),
			fmt.Sprint(run.Loaded),
			fmt.Sprint(run.Imported),
			fmt.Sprint(run.Transfers),
			fmt.Sprint(run.Skipped),
			run.Error,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadRunsMsg struct {
	runs []*history.Run
	err  error
}

func (m RunsModel) loadRunsCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		runs, err := m.history.List(ctx, filter)

		return loadRunsMsg{runs: runs, err: err}
	}
}
