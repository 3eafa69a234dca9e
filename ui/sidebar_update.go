package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	appmodel "orchat/model"
)

// openSidebar shows the sidebar and refreshes the conversation list.
func (a *AppView) openSidebar() tea.Cmd {
	a.sidebar.visible = true
	a.sidebar.mode = sidebarBrowse
	a.sidebar.results = nil
	a.sidebar.searchInput.Reset()
	return a.dataModel.FetchConversations()
}

func (a *AppView) closeSidebar() {
	a.sidebar.visible = false
	a.sidebar.mode = sidebarBrowse
	a.sidebar.results = nil
	a.sidebar.searchInput.Reset()
}

// handleSidebarKeys routes keys while the sidebar is visible.
func (a AppView) handleSidebarKeys(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch a.sidebar.mode {
	case sidebarRenaming:
		return a.handleSidebarRename(msg)
	case sidebarConfirmDelete:
		return a.handleSidebarDelete(msg)
	case sidebarSearching:
		return a.handleSidebarSearch(msg)
	default:
		return a.handleSidebarBrowse(msg)
	}
}

func (a AppView) handleSidebarBrowse(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+s", "q":
		a.closeSidebar()
		return a, nil

	case "up", "k":
		a.sidebar.moveSelection(-1)
		return a, nil

	case "down", "j":
		a.sidebar.moveSelection(1)
		return a, nil

	case "ctrl+up":
		a.sidebar.reorder(-1)
		return a, nil

	case "ctrl+down":
		a.sidebar.reorder(1)
		return a, nil

	case "enter":
		if conv := a.sidebar.selected(); conv != nil {
			return a, a.dataModel.LoadConversation(conv.ID)
		}
		return a, nil

	case "r":
		if conv := a.sidebar.selected(); conv != nil {
			a.sidebar.mode = sidebarRenaming
			a.sidebar.renameInput.SetValue(conv.DisplayTitle())
			a.sidebar.renameInput.CursorEnd()
			a.sidebar.renameInput.Focus()
		}
		return a, nil

	case "d":
		if a.sidebar.selected() != nil {
			a.sidebar.mode = sidebarConfirmDelete
		}
		return a, nil

	case "/":
		a.sidebar.mode = sidebarSearching
		a.sidebar.searchInput.Reset()
		a.sidebar.searchInput.Focus()
		return a, nil

	case "n":
		a.dataModel.NewConversation()
		a.closeSidebar()
		a.updateViewportContent(true)
		return a, nil
	}

	return a, nil
}

func (a AppView) handleSidebarRename(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "enter":
		conv := a.sidebar.selected()
		title := a.sidebar.renameInput.Value()
		a.sidebar.mode = sidebarBrowse
		a.sidebar.renameInput.Blur()
		if conv == nil || title == "" || title == conv.DisplayTitle() {
			return a, nil
		}
		// Optimistic local update; store confirms via ConversationRenamedMsg
		conv.Title = title
		conv.Preview = title
		return a, a.dataModel.RenameConversation(conv.ID, title)

	case "esc":
		a.sidebar.mode = sidebarBrowse
		a.sidebar.renameInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.sidebar.renameInput, cmd = a.sidebar.renameInput.Update(msg)
	return a, cmd
}

func (a AppView) handleSidebarDelete(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		conv := a.sidebar.selected()
		a.sidebar.mode = sidebarBrowse
		if conv == nil {
			return a, nil
		}
		return a, a.dataModel.DeleteConversation(conv.ID)

	case "n", "esc":
		a.sidebar.mode = sidebarBrowse
		return a, nil
	}
	return a, nil
}

func (a AppView) handleSidebarSearch(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.sidebar.mode = sidebarBrowse
		a.sidebar.results = nil
		a.sidebar.searchInput.Reset()
		a.sidebar.clampSelection()
		return a, nil

	case "enter":
		// Keep results, move focus back to the list
		a.sidebar.mode = sidebarBrowse
		a.sidebar.searchInput.Blur()
		return a, nil
	}

	before := a.sidebar.searchInput.Value()
	var cmd tea.Cmd
	a.sidebar.searchInput, cmd = a.sidebar.searchInput.Update(msg)
	after := a.sidebar.searchInput.Value()

	if after == before {
		return a, cmd
	}

	// Debounce: bump the sequence and search only if it is still
	// current when the timer fires.
	a.sidebar.searchSeq++
	if after == "" {
		a.sidebar.results = nil
		a.sidebar.clampSelection()
		return a, cmd
	}
	return a, tea.Batch(cmd, appmodel.DebounceSearch(a.sidebar.searchSeq))
}
