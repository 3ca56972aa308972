package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestConfigureColors(t *testing.T) {
	orig := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(orig) })

	t.Run("flag disables", func(t *testing.T) {
		lipgloss.SetColorProfile(termenv.ANSI256)
		assert.True(t, ConfigureColors(true))
		assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
	})

	t.Run("NO_COLOR disables", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		lipgloss.SetColorProfile(termenv.ANSI256)
		assert.True(t, ConfigureColors(false))
		assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
	})

	t.Run("left alone otherwise", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		t.Setenv("CLICOLOR", "")
		lipgloss.SetColorProfile(termenv.ANSI256)
		assert.False(t, ConfigureColors(false))
		assert.Equal(t, termenv.ANSI256, lipgloss.ColorProfile())
	})
}

func TestDisabledColorsRenderPlainText(t *testing.T) {
	orig := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(orig) })

	DisableColors()
	assert.Equal(t, "✓ done", FormatPhase(SymbolSuccess, ColorSuccess, "done", ""))
}
