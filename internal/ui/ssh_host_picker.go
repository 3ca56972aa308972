package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/appd/pkg/sshutil"
)

// sshHostItem implements list.Item for the Bubbles list component.
type sshHostItem struct {
	host sshutil.SSHHostEntry
}

func (i sshHostItem) Title() string {
	if i.host.User == "" {
		return i.host.Alias + " (no User)"
	}
	return i.host.Alias
}

func (i sshHostItem) Description() string {
	return i.host.Description()
}

func (i sshHostItem) FilterValue() string {
	// Allow searching by alias, hostname, and user
	values := []string{i.host.Alias}
	if i.host.Hostname != "" {
		values = append(values, i.host.Hostname)
	}
	if i.host.User != "" {
		values = append(values, i.host.User)
	}
	return strings.Join(values, " ")
}

// PickOutcome is how the host picker was left.
type PickOutcome int

const (
	PickPending PickOutcome = iota
	PickSelected
	PickManual
	PickCancelled
)

// SSHHostPickerModel is a Bubble Tea model for selecting an SSH host.
type SSHHostPickerModel struct {
	list     list.Model
	selected *sshutil.SSHHostEntry
	outcome  PickOutcome
}

var (
	pickKeySelect = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
	pickKeyManual = key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "type a host"))
	pickKeyQuit   = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "cancel"))
)

// NewSSHHostPickerModel creates a new SSH host picker model.
func NewSSHHostPickerModel(hosts []sshutil.SSHHostEntry) SSHHostPickerModel {
	items := make([]list.Item, 0, len(hosts))
	for _, h := range hosts {
		items = append(items, sshHostItem{host: h})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Which host should be provisioned?"
	l.Styles.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{pickKeyManual}
	}

	return SSHHostPickerModel{list: l}
}

// Init implements tea.Model.
func (m SSHHostPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SSHHostPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.list.SetSize(size.Width, size.Height-2)
	}

	// While filtering, every key belongs to the filter input.
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(keyMsg, pickKeySelect):
			item, ok := m.list.SelectedItem().(sshHostItem)
			if !ok {
				return m, nil
			}
			host := item.host
			m.selected = &host
			return m.finish(PickSelected)
		case key.Matches(keyMsg, pickKeyManual):
			return m.finish(PickManual)
		case key.Matches(keyMsg, pickKeyQuit):
			return m.finish(PickCancelled)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SSHHostPickerModel) finish(outcome PickOutcome) (tea.Model, tea.Cmd) {
	m.outcome = outcome
	return m, tea.Quit
}

// View implements tea.Model.
func (m SSHHostPickerModel) View() string {
	if m.outcome != PickPending {
		return ""
	}
	hint := lipgloss.NewStyle().Foreground(ColorMuted).Render("\n  Press 'm' to type a host alias instead")
	return m.list.View() + hint
}

// Outcome reports how the picker ended.
func (m SSHHostPickerModel) Outcome() PickOutcome {
	return m.outcome
}

// Selected returns the chosen host. It is nil unless Outcome is PickSelected.
func (m SSHHostPickerModel) Selected() *sshutil.SSHHostEntry {
	return m.selected
}

// PickSSHHost runs the picker on output. It returns the chosen host, or nil
// when the user asked to type one (or there was nothing to pick from).
// cancelled is true when the user backed out.
func PickSSHHost(hosts []sshutil.SSHHostEntry, output io.Writer, input io.Reader) (host *sshutil.SSHHostEntry, cancelled bool, err error) {
	if len(hosts) == 0 {
		return nil, false, nil
	}

	final, err := tea.NewProgram(
		NewSSHHostPickerModel(hosts),
		tea.WithOutput(output),
		tea.WithInput(input),
	).Run()
	if err != nil {
		return nil, false, fmt.Errorf("SSH host picker: %w", err)
	}

	m, ok := final.(SSHHostPickerModel)
	if !ok {
		return nil, true, nil
	}
	switch m.Outcome() {
	case PickSelected:
		return m.Selected(), false, nil
	case PickManual:
		return nil, false, nil
	}
	return nil, true, nil
}
