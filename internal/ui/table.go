package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/appd/pkg/sshutil"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	// Not focused, so nothing should look selected
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string. Columns with a
// zero width are sized to fit their widest cell.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	sized := make([]TableColumn, len(columns))
	copy(sized, columns)
	for i := range sized {
		if sized[i].Width > 0 {
			continue
		}
		w := lipgloss.Width(sized[i].Title)
		for _, row := range rows {
			if i < len(row) && lipgloss.Width(row[i]) > w {
				w = lipgloss.Width(row[i])
			}
		}
		sized[i].Width = w + 2
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := NewTable(sized, tableRows)
	return t.View()
}

// RenderHostsTable lists SSH config hosts. Entries without a User can't be
// provisioned and are marked as such.
func RenderHostsTable(hosts []sshutil.SSHHostEntry) string {
	if len(hosts) == 0 {
		return "No hosts found in your SSH config"
	}

	columns := []TableColumn{
		{Title: "ALIAS"},
		{Title: "HOSTNAME"},
		{Title: "USER"},
		{Title: "PORT"},
		{Title: "STATUS"},
	}

	rows := make([][]string, len(hosts))
	for i, h := range hosts {
		status := "ready"
		if h.User == "" {
			status = "missing User"
		}
		hostname := h.Hostname
		if hostname == "" {
			hostname = h.Alias
		}
		port := h.Port
		if port == "" {
			port = "22"
		}
		rows[i] = []string{h.Alias, hostname, h.User, port, status}
	}

	return RenderSimpleTable(columns, rows)
}
