package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Cutoff is a predefined or custom last day to import.
type Cutoff int

const (
	CutoffNone      Cutoff = 0
	CutoffYesterday Cutoff = 1
	CutoffLastWeek  Cutoff = 2
	CutoffLastMonth Cutoff = 3
	CutoffCustom    Cutoff = 4
)

func (c Cutoff) String() string {
	switch c {
	case CutoffNone:
		return "Everything"
	case CutoffYesterday:
		return "Up to yesterday"
	case CutoffLastWeek:
		return "Up to last Sunday"
	case CutoffLastMonth:
		return "Up to the end of last month"
	case CutoffCustom:
		return "Custom date"
	}

	return "Unknown"
}

// CutoffDate resolves a predefined cutoff relative to now. CutoffNone and
// CutoffCustom yield the zero time.
func CutoffDate(c Cutoff, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch c {
	case CutoffYesterday:
		return today.AddDate(0, 0, -1)
	case CutoffLastWeek:
		offset := int(today.Weekday())
		if offset == 0 {
			offset = 7
		}

		return today.AddDate(0, 0, -offset)
	case CutoffLastMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}

	return time.Time{}
}

// CutoffSelectedMsg carries the chosen cutoff. Date is zero for no cutoff.
type CutoffSelectedMsg struct {
	Date time.Time
}

type cutoffState int

const (
	cutoffStateSelect cutoffState = iota
	cutoffStateCustom
)

type CutoffPicker struct {
	state    cutoffState
	selected Cutoff
	input    textinput.Model
	now      func() time.Time

	err error
}

func NewCutoffPicker() CutoffPicker {
	in := textinput.New()
	in.Placeholder = "YYYY-MM-DD"
	in.CharLimit = 10
	in.Width = 12
	in.Prompt = "Last day: "

	return CutoffPicker{
		state: cutoffStateSelect,
		input: in,
		now:   time.Now,
	}
}

func (m CutoffPicker) Init() tea.Cmd {
	return nil
}

func (m CutoffPicker) Update(msg tea.Msg) (CutoffPicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case cutoffStateSelect:
			return m.updateSelect(msg)
		case cutoffStateCustom:
			return m.updateCustom(msg)
		}
	}

	if m.state == cutoffStateCustom {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m CutoffPicker) updateSelect(msg tea.KeyMsg) (CutoffPicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > CutoffNone {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < CutoffCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == CutoffCustom {
			m.state = cutoffStateCustom
			m.input.Focus()

			return m, textinput.Blink
		}

		date := CutoffDate(m.selected, m.now())

		return m, func() tea.Msg {
			return CutoffSelectedMsg{Date: date}
		}
	}

	return m, nil
}

func (m CutoffPicker) updateCustom(msg tea.KeyMsg) (CutoffPicker, tea.Cmd) {
	switch msg.String() {
	case "enter":
		date, err := time.Parse(time.DateOnly, m.input.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid date (YYYY-MM-DD)")
			return m, nil
		}

		m.err = nil

		return m, func() tea.Msg {
			return CutoffSelectedMsg{Date: date}
		}

	case "esc":
		m.state = cutoffStateSelect
		m.err = nil

		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m CutoffPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == cutoffStateCustom {
		return fmt.Sprintf(
			"Enter the last day to import:\n\n%s\n\n(Enter to confirm, Esc to back)%s",
			m.input.View(),
			errStr,
		)
	}

	now := m.now()

	s := "Import records dated:\n\n"
	for c := CutoffNone; c <= CutoffCustom; c++ {
		cursor := " "
		if m.selected == c {
			cursor = ">"
		}

		label := c.String()
		if d := CutoffDate(c, now); !d.IsZero() {
			label += lipgloss.NewStyle().Faint(true).Render(" (" + FormatDate(d) + ")")
		}

		s += fmt.Sprintf("%s %s\n", cursor, label)
	}
	s += "\n(Enter to select, Esc to back)"

	return s + errStr
}

// IsSelecting reports whether the picker shows the option list.
func (m CutoffPicker) IsSelecting() bool {
	return m.state == cutoffStateSelect
}

func (m *CutoffPicker) Reset() {
	m.state = cutoffStateSelect
	m.selected = CutoffNone
	m.err = nil
	m.input.SetValue("")
}
