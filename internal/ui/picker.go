package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playsheet/internal/models"
)

const (
	defaultWidth  = 80
	defaultHeight = 20
)

// candidateItem adapts a [models.Candidate] to [list.DefaultItem].
type candidateItem struct {
	candidate models.Candidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Label() }
func (i candidateItem) Title() string       { return i.candidate.Title }
func (i candidateItem) Description() string {
	if i.candidate.Subtitle == "" {
		return i.candidate.URI
	}
	return i.candidate.Subtitle
}

// optionItem is a plain labelled choice.
type optionItem string

func (i optionItem) FilterValue() string { return string(i) }
func (i optionItem) Title() string       { return string(i) }
func (i optionItem) Description() string { return "" }

// pickerModel shows a list and reports the selected index.
type pickerModel struct {
	list        list.Model
	keys        keyMap
	help        help.Model
	header      string
	choice      int
	chosen      bool
	interrupted bool
	done        bool
}

func newPickerModel(title, header string, items []list.Item, showDescription bool) *pickerModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = showDescription
	if !showDescription {
		delegate.SetSpacing(0)
	}

	l := list.New(items, delegate, defaultWidth, defaultHeight)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()

	return &pickerModel{list: l, keys: newKeyMap(), help: help.New(), header: header}
}

func candidateItems(candidates []models.Candidate) []list.Item {
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = candidateItem{candidate: c}
	}
	return items
}

func optionItems(options []string) []list.Item {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = optionItem(o)
	}
	return items
}

func (m *pickerModel) Init() tea.Cmd {
	return nil
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.interrupted = true
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if len(m.list.Items()) > 0 {
				m.choice = m.list.Index()
				m.chosen = true
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *pickerModel) View() string {
	if m.done {
		return ""
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.back, m.keys.quit})
	if m.header == "" {
		return fmt.Sprintf("%s\n\n%s\n", m.list.View(), helpView)
	}
	return fmt.Sprintf("%s\n%s\n\n%s\n", styles.help.Render(m.header), m.list.View(), helpView)
}
