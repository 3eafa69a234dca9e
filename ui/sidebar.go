package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"orchat/storage"
)

// sidebarMode is the sidebar's interaction state. Rename and delete are
// modal: while one is active, list navigation is suspended until the action
// commits or cancels.
type sidebarMode int

const (
	sidebarBrowse sidebarMode = iota
	sidebarSearching
	sidebarRenaming
	sidebarConfirmDelete
)

// Sidebar is the conversation browser: list, debounced search, rename,
// delete confirmation, and a local-only reorder of the visible list.
type Sidebar struct {
	visible bool
	mode    sidebarMode

	conversations []*storage.Conversation // full list, newest first
	results       []*storage.Conversation // search results; nil when not searching

	selectedIdx int

	renameInput textinput.Model
	searchInput textinput.Model

	// searchSeq increments on every keystroke; only results matching the
	// latest sequence are accepted.
	searchSeq int
}

func NewSidebar() Sidebar {
	renameInput := textinput.New()
	renameInput.Prompt = "Rename: "
	renameInput.CharLimit = 100

	searchInput := textinput.New()
	searchInput.Prompt = "Search: "
	searchInput.CharLimit = 100

	return Sidebar{
		renameInput: renameInput,
		searchInput: searchInput,
	}
}

// displayList returns what the list shows: search results when a search is
// live, the full list otherwise.
func (s *Sidebar) displayList() []*storage.Conversation {
	if s.results != nil {
		return s.results
	}
	return s.conversations
}

// selected returns the conversation under the cursor, or nil.
func (s *Sidebar) selected() *storage.Conversation {
	list := s.displayList()
	if s.selectedIdx < 0 || s.selectedIdx >= len(list) {
		return nil
	}
	return list[s.selectedIdx]
}

func (s *Sidebar) clampSelection() {
	list := s.displayList()
	if s.selectedIdx >= len(list) {
		s.selectedIdx = len(list) - 1
	}
	if s.selectedIdx < 0 {
		s.selectedIdx = 0
	}
}

// moveSelection moves the cursor, clamped to the list.
func (s *Sidebar) moveSelection(delta int) {
	s.selectedIdx += delta
	s.clampSelection()
}

// reorder swaps the selected entry with its neighbor. Display-only: the
// stored order (by update time) is untouched and restores on next fetch.
func (s *Sidebar) reorder(delta int) {
	list := s.displayList()
	target := s.selectedIdx + delta
	if target < 0 || target >= len(list) {
		return
	}
	list[s.selectedIdx], list[target] = list[target], list[s.selectedIdx]
	s.selectedIdx = target
}

// removeByID drops a conversation from both lists after a delete.
func (s *Sidebar) removeByID(id string) {
	s.conversations = filterOut(s.conversations, id)
	if s.results != nil {
		s.results = filterOut(s.results, id)
	}
	s.clampSelection()
}

func filterOut(list []*storage.Conversation, id string) []*storage.Conversation {
	out := list[:0]
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// View renders the sidebar as a full-screen list.
func (s *Sidebar) View(currentID string, width, height int) string {
	// Delete confirmation replaces the list entirely
	if s.mode == sidebarConfirmDelete {
		if conv := s.selected(); conv != nil {
			warning := ErrorStyle.Render("This action cannot be undone.")
			return RenderConfirmationModal(ConfirmationState{
				Active:  true,
				Title:   "⚠ Delete Conversation",
				Message: fmt.Sprintf("Are you sure you want to delete:\n\n\"%s\"\n\n%s", conv.DisplayTitle(), warning),
			}, width, height)
		}
	}

	listWidth := width - 4
	if listWidth > 100 {
		listWidth = 100
	}

	title := TitleStyle.Copy().
		Align(lipgloss.Center).
		Width(listWidth).
		Render("Conversations")

	// Header: search input while searching, count otherwise
	var header string
	switch {
	case s.mode == sidebarSearching:
		header = s.searchInput.View()
	case s.results != nil:
		header = fmt.Sprintf("%d of %d conversations", len(s.results), len(s.conversations))
	default:
		header = fmt.Sprintf("%d conversations", len(s.conversations))
	}
	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(listWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	list := s.displayList()
	maxLines := height - 8
	if maxLines < 1 {
		maxLines = 1
	}

	var lines []string
	if len(list) == 0 {
		emptyMsg := "No conversations yet. Start chatting to create one!"
		if s.results != nil {
			emptyMsg = "No matches found"
		}
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(listWidth).
			Render(emptyMsg))
	} else {
		startIdx, endIdx := scrollWindow(len(list), s.selectedIdx, maxLines/2)

		for i := startIdx; i < endIdx; i++ {
			lines = append(lines, s.renderEntry(list[i], i, currentID, listWidth))
		}
	}

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Width(listWidth).
		Render(s.footerHints())

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		headerSection,
		strings.Join(lines, "\n"),
		"",
		footer,
	)

	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

func (s *Sidebar) renderEntry(conv *storage.Conversation, idx int, currentID string, width int) string {
	cursor := "  "
	if idx == s.selectedIdx {
		cursor = SelectedStyle.Render("▶ ")
	}

	marker := " "
	if conv.ID == currentID {
		marker = HighlightStyle.Render("*")
	}

	// Selected entry in rename mode shows the input in place of the title
	if idx == s.selectedIdx && s.mode == sidebarRenaming {
		return fmt.Sprintf("%s%s %s", cursor, marker, s.renameInput.View())
	}

	age := DimStyle.Render(formatTimeAgo(conv.UpdatedAt()))
	title := truncateTitle(conv.DisplayTitle(), width-28)
	if idx == s.selectedIdx {
		title = SelectedStyle.Render(title)
	}

	line := fmt.Sprintf("%s%s %s  %s", cursor, marker, title, age)

	preview := conv.Preview
	if preview != "" {
		preview = DimStyle.Render("     " + truncateTitle(preview, width-8))
		return line + "\n" + preview
	}
	return line
}

func (s *Sidebar) footerHints() string {
	switch s.mode {
	case sidebarSearching:
		return FormatFooter("Enter", "Keep results", "Esc", "Clear")
	case sidebarRenaming:
		return FormatFooter("Enter", "Save", "Esc", "Cancel")
	default:
		return FormatFooter("Enter", "Open", "r", "Rename", "d", "Delete", "/", "Search",
			"^↑/^↓", "Reorder", "n", "New", "Esc", "Close")
	}
}

// scrollWindow centers the cursor in a window of 2*half lines.
func scrollWindow(length, cursor, half int) (int, int) {
	size := half * 2
	if size < 1 {
		size = 1
	}
	if length <= size {
		return 0, length
	}
	start := cursor - half
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > length {
		end = length
		start = end - size
	}
	return start, end
}
