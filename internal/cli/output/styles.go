package output

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles used across commands.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Prompt  lipgloss.Style
	Key     lipgloss.Style
}

// NewStyles builds styles bound to lg so color is dropped for non-terminals.
func NewStyles(lg *lipgloss.Renderer) Styles {
	return Styles{
		Header:  lg.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("12")),
		Bold:    lg.NewStyle().Bold(true),
		Muted:   lg.NewStyle().Foreground(lipgloss.Color("8")),
		Success: lg.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lg.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lg.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:    lg.NewStyle().Foreground(lipgloss.Color("14")),
		Prompt:  lg.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Key:     lg.NewStyle().Foreground(lipgloss.Color("6")),
	}
}
