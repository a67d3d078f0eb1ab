package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel asks a yes/no question.
type confirmModel struct {
	question    string
	keys        keyMap
	help        help.Model
	answer      bool
	interrupted bool
	done        bool
}

func newConfirmModel(question string) *confirmModel {
	return &confirmModel{question: question, keys: newKeyMap(), help: help.New()}
}

func (m *confirmModel) Init() tea.Cmd {
	return nil
}

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.quit):
			m.interrupted = true
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.yes):
			m.answer = true
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.no):
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *confirmModel) View() string {
	if m.done {
		return ""
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n", styles.warn.Render(m.question), helpView)
}

// editModel offers an editable line of text.
type editModel struct {
	label       string
	input       textinput.Model
	keys        keyMap
	help        help.Model
	confirmed   bool
	interrupted bool
	done        bool
}

func newEditModel(label, initial string) *editModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = defaultWidth - 4
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()

	return &editModel{label: label, input: ti, keys: newKeyMap(), help: help.New()}
}

func (m *editModel) Value() string {
	return m.input.Value()
}

func (m *editModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.quit):
			m.interrupted = true
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *editModel) View() string {
	if m.done {
		return ""
	}
	confirm := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm"))
	cancel := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	helpView := m.help.ShortHelpView([]key.Binding{confirm, cancel, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n", styles.title.Render(m.label), m.input.View(), helpView)
}
