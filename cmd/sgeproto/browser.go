package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/sgeproto/schema"
)

type browserState int

const (
	stateList browserState = iota
	stateDetail
)

// browserModel lists message types, narrowed by a filter, and shows the
// fields of the selected one.
type browserModel struct {
	filename string
	messages []*schema.MessageDef
	visible  []*schema.MessageDef
	filter   textinput.Model
	selected int
	state    browserState
}

func newBrowserModel(filename string, reg *schema.Registry) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter by message or field name"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()

	m := &browserModel{
		filename: filename,
		messages: reg.Messages(),
		filter:   ti,
	}
	m.applyFilter()
	return m
}

func (m *browserModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.state == stateDetail {
				m.state = stateList
				return m, nil
			}
			return m, tea.Quit

		case "up", "ctrl+p":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.state == stateList && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.state == stateList && len(m.visible) > 0 {
				m.state = stateDetail
			} else {
				m.state = stateList
			}
			return m, nil
		}
	}

	if m.state != stateList {
		return m, nil
	}
	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m *browserModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for _, msg := range m.messages {
		if q == "" || matches(msg, q) {
			m.visible = append(m.visible, msg)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(0, len(m.visible)-1)
	}
}

func matches(m *schema.MessageDef, q string) bool {
	if strings.Contains(strings.ToLower(m.Name), q) {
		return true
	}
	for _, f := range m.Fields {
		if strings.Contains(strings.ToLower(f.Name), q) {
			return true
		}
	}
	return false
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("sgeproto"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateList:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.visible) == 0 {
			b.WriteString(errorStyle.Render("no matching messages"))
			b.WriteString("\n")
		}
		for i, msg := range m.visible {
			line := fmt.Sprintf("%s (id %d, %d fields)", msg.Name, msg.ID, len(msg.Fields))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter fields • esc quit"))

	case stateDetail:
		b.WriteString(renderMessage(m.visible[m.selected]))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/esc back • ctrl+c quit"))
	}

	return b.String()
}

func runBrowser(filename string, reg *schema.Registry) error {
	p := tea.NewProgram(newBrowserModel(filename, reg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
