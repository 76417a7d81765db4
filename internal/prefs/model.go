// Package prefs implements the terminal preferences page of veil.
//
// The page lists the items the daemon last published under all-items and
// lets the user choose which ones stay visible while veil hides the rest.
// Edits are written straight to the settings store; a running daemon picks
// them up through its file watcher.
package prefs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/shelepuginivan/veil/settings"
)

// KeyMap defines the key bindings of the page.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Clear  key.Binding
	Prune  key.Binding
	Quit   key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "keep visible"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear all"),
	),
	Prune: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "remove orphans"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D97706"))
)

// ReloadMsg tells the model to read the store again.
type ReloadMsg struct{}

// Model is the bubbletea model of the preferences page.
type Model struct {
	store settings.Store
	keys  KeyMap
	log   zerolog.Logger

	items   []string
	visible []string
	cursor  int
	status  string
}

// New returns a [Model] editing store.
func New(store settings.Store, log zerolog.Logger) Model {
	m := Model{
		store: store,
		keys:  DefaultKeyMap,
		log:   log.With().Str("component", "prefs").Logger(),
	}
	m.reload()

	return m
}

// Watch forwards changes of the item lists in store to p as [ReloadMsg].
func Watch(store settings.Store, p *tea.Program) (disconnect func()) {
	send := func(string) { p.Send(ReloadMsg{}) }

	disconnects := []func(){
		store.Connect(settings.KeyAllItems, send),
		store.Connect(settings.KeyVisibleItems, send),
	}

	return func() {
		for _, d := range disconnects {
			d()
		}
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadMsg:
		m.reload()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			m.toggle()

		case key.Matches(msg, m.keys.Clear):
			m.write(nil)
			m.status = "visible items cleared"

		case key.Matches(msg, m.keys.Prune):
			m.prune()
		}
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Items kept visible while hidden"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(dimStyle.Render("No items seen yet. Start the daemon to populate this list."))
		b.WriteString("\n")
	}

	for i, name := range m.items {
		check := "[ ]"
		if slices.Contains(m.visible, name) {
			check = "[x]"
		}

		line := fmt.Sprintf("%s %s", check, name)
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if orphans := m.Orphans(); len(orphans) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d orphaned entries: %s", len(orphans), strings.Join(orphans, ", "))))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help()))

	return b.String()
}

// Items returns the rows of the page.
func (m Model) Items() []string {
	return slices.Clone(m.items)
}

// Visible returns the names kept visible.
func (m Model) Visible() []string {
	return slices.Clone(m.visible)
}

// Cursor returns the index of the selected row.
func (m Model) Cursor() int {
	return m.cursor
}

// Status returns the message shown after the last action.
func (m Model) Status() string {
	return m.status
}

// Orphans returns the visible names that match no known item.
func (m Model) Orphans() []string {
	var orphans []string
	for _, name := range m.visible {
		if !slices.Contains(m.items, name) {
			orphans = append(orphans, name)
		}
	}

	return orphans
}

func (m *Model) reload() {
	m.items = m.store.Strings(settings.KeyAllItems)
	m.visible = m.store.Strings(settings.KeyVisibleItems)

	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m *Model) toggle() {
	if len(m.items) == 0 {
		return
	}

	name := m.items[m.cursor]
	visible := slices.Clone(m.visible)

	if i := slices.Index(visible, name); i >= 0 {
		visible = slices.Delete(visible, i, i+1)
		m.status = fmt.Sprintf("%s hidden with the rest", name)
	} else {
		visible = append(visible, name)
		m.status = fmt.Sprintf("%s kept visible", name)
	}

	m.write(visible)
}

func (m *Model) prune() {
	orphans := m.Orphans()
	if len(orphans) == 0 {
		m.status = "no orphaned entries"
		return
	}

	visible := slices.DeleteFunc(slices.Clone(m.visible), func(name string) bool {
		return slices.Contains(orphans, name)
	})

	m.write(visible)
	m.status = fmt.Sprintf("removed %d orphaned entries", len(orphans))
}

func (m *Model) write(visible []string) {
	if visible == nil {
		visible = []string{}
	}

	if err := m.store.SetStrings(settings.KeyVisibleItems, visible); err != nil {
		m.log.Error().Err(err).Msg("failed to save visible items")
		m.status = fmt.Sprintf("error: %v", err)
		return
	}

	m.visible = visible
}

func (m Model) help() string {
	bindings := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.Clear, m.keys.Prune, m.keys.Quit}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}

	return strings.Join(parts, " • ")
}
