package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ConfirmationState holds the state for a yes/no confirmation modal.
type ConfirmationState struct {
	Active  bool
	Title   string
	Message string
}

// RenderConfirmationModal renders a centered confirmation dialog.
func RenderConfirmationModal(state ConfirmationState, width, height int) string {
	if !state.Active {
		return ""
	}

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	title := TitleStyle.Copy().
		Align(lipgloss.Center).
		Width(modalWidth - 4).
		Render(state.Title)

	message := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth - 4).
		Render(state.Message)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth - 4).
		Render(FormatFooter("y/Enter", "Confirm", "n/Esc", "Cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", message, "", footer)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
