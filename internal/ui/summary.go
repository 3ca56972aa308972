package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderProvisionSummary returns the closing message of a provisioning run:
// the remote path, then the git command to register it, each followed by a
// blank line. The command line is left unstyled so it copies cleanly.
func RenderProvisionSummary(remoteName, remotePath string) string {
	successStyle := lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)

	var sb strings.Builder
	sb.WriteString(successStyle.Render("Done!"))
	sb.WriteString(fmt.Sprintf(" You can now add a new git remote %s:\n\n", remotePath))
	sb.WriteString(fmt.Sprintf("\tgit remote add %s %s\n\n", remoteName, remotePath))
	return sb.String()
}

// RenderRemoteAdded returns the line shown after --add-remote registered
// the remote in the local repository.
func RenderRemoteAdded(remoteName, remotePath string) string {
	symbolStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	return fmt.Sprintf("%s Added git remote '%s' -> %s\n", symbolStyle.Render(SymbolSuccess), remoteName, remotePath)
}
