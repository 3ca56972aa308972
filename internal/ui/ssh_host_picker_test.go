package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/appd/pkg/sshutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pickerHosts = []sshutil.SSHHostEntry{
	{Alias: "server1", Hostname: "10.0.0.5", User: "deploy"},
	{Alias: "nouser", Hostname: "nouser.example.com"},
}

func TestSSHHostItem(t *testing.T) {
	item := sshHostItem{host: pickerHosts[0]}
	assert.Equal(t, "server1", item.Title())
	assert.Equal(t, pickerHosts[0].Description(), item.Description())
	assert.Equal(t, "server1 10.0.0.5 deploy", item.FilterValue())

	noUser := sshHostItem{host: pickerHosts[1]}
	assert.Equal(t, "nouser (no User)", noUser.Title())
}

func TestSSHHostPicker_Select(t *testing.T) {
	m := NewSSHHostPickerModel(pickerHosts)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	picker := updated.(SSHHostPickerModel)
	require.NotNil(t, picker.Selected())
	assert.Equal(t, "server1", picker.Selected().Alias)
	assert.Equal(t, PickSelected, picker.Outcome())
	assert.Empty(t, picker.View())
}

func TestSSHHostPicker_Manual(t *testing.T) {
	m := NewSSHHostPickerModel(pickerHosts)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	picker := updated.(SSHHostPickerModel)
	assert.Equal(t, PickManual, picker.Outcome())
	assert.Nil(t, picker.Selected())
}

func TestSSHHostPicker_Cancel(t *testing.T) {
	m := NewSSHHostPickerModel(pickerHosts)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	picker := updated.(SSHHostPickerModel)
	assert.Equal(t, PickCancelled, picker.Outcome())
	assert.Nil(t, picker.Selected())
}

func TestSSHHostPicker_PendingView(t *testing.T) {
	m := NewSSHHostPickerModel(pickerHosts)
	assert.Equal(t, PickPending, m.Outcome())
	assert.Contains(t, m.View(), "Press 'm' to type a host alias instead")
}

func TestSSHHostPicker_EnterWithNothingToSelect(t *testing.T) {
	m := NewSSHHostPickerModel([]sshutil.SSHHostEntry{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, PickPending, updated.(SSHHostPickerModel).Outcome())
}

func TestPickSSHHost_NoHosts(t *testing.T) {
	host, cancelled, err := PickSSHHost(nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, host)
	assert.False(t, cancelled)
}
