package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"orchat/config"
	appmodel "orchat/model"
	"orchat/tools"
)

// lowCreditThreshold is the remaining-credit level (USD) below which a
// one-time warning is shown in the conversation.
const lowCreditThreshold = 1.0

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Update spinner FIRST so TickMsg animates the waiting indicator
	if a.dataModel.Waiting {
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		cmds = append(cmds, cmd)
		a.updateViewportContent(true)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Reserve space for title, separator, textarea and status bar
		a.viewport.Width = a.width
		a.viewport.Height = a.height - 6
		a.textarea.SetWidth(a.width)

		a.ready = true
		a.updateViewportContent(true)

		if a.dataModel.NeedsInitialRender {
			a.dataModel.NeedsInitialRender = false
			cmds = append(cmds, a.renderAllMarkdown()...)
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if a.sidebar.visible {
			a, cmd = a.handleSidebarKeys(msg)
			return a, tea.Batch(append(cmds, cmd)...)
		}
		if a.showModelSelector {
			a, cmd = a.handleModelSelectorKeys(msg)
			return a, tea.Batch(append(cmds, cmd)...)
		}
		return a.handleChatKeys(msg, cmds)

	case appmodel.ChatReplyMsg:
		return a.handleChatReply(msg, cmds)

	case appmodel.MarkdownRenderedMsg:
		if msg.MessageIndex >= 0 && msg.MessageIndex < len(a.dataModel.Messages) {
			a.dataModel.Messages[msg.MessageIndex].Rendered = msg.Rendered
			a.updateViewportContent(true)
		}
		return a, tea.Batch(cmds...)

	case appmodel.ModelsListMsg:
		if msg.Err != nil {
			a.statusFlash = fmt.Sprintf("model list: %v", msg.Err)
			return a, tea.Batch(cmds...)
		}
		a.modelList = msg.Models
		if msg.ShowSelector {
			a.openModelSelector()
		}
		return a, tea.Batch(cmds...)

	case appmodel.ConversationsListMsg:
		if msg.Err != nil {
			a.statusFlash = fmt.Sprintf("conversations: %v", msg.Err)
			return a, tea.Batch(cmds...)
		}
		a.sidebar.conversations = msg.Conversations
		a.sidebar.clampSelection()
		return a, tea.Batch(cmds...)

	case appmodel.ConversationLoadedMsg:
		return a.handleConversationLoaded(msg, cmds)

	case appmodel.ConversationSavedMsg:
		if msg.Err != nil {
			a.statusFlash = fmt.Sprintf("save failed: %v", msg.Err)
			return a, tea.Batch(cmds...)
		}
		// Adopt the ID assigned on first save
		a.dataModel.CurrentConversationID = msg.Conversation.ID
		return a, tea.Batch(cmds...)

	case appmodel.ConversationDeletedMsg:
		if msg.Err != nil {
			a.statusFlash = fmt.Sprintf("delete failed: %v", msg.Err)
			return a, tea.Batch(cmds...)
		}
		a.sidebar.removeByID(msg.ID)
		if msg.WasActive {
			a.dataModel.NewConversation()
			a.updateViewportContent(true)
		}
		return a, tea.Batch(cmds...)

	case appmodel.ConversationRenamedMsg:
		if msg.Err != nil {
			a.statusFlash = fmt.Sprintf("rename failed: %v", msg.Err)
		}
		return a, tea.Batch(cmds...)

	case appmodel.SearchDebounceMsg:
		if a.sidebar.visible && a.sidebar.mode == sidebarSearching && msg.Seq == a.sidebar.searchSeq {
			cmds = append(cmds, a.dataModel.SearchConversations(a.sidebar.searchInput.Value(), msg.Seq))
		}
		return a, tea.Batch(cmds...)

	case appmodel.SearchResultsMsg:
		if msg.Err != nil {
			a.statusFlash = fmt.Sprintf("search failed: %v", msg.Err)
			return a, tea.Batch(cmds...)
		}
		// Drop stale results from earlier keystrokes
		if msg.Seq == a.sidebar.searchSeq {
			a.sidebar.results = msg.Conversations
			a.sidebar.clampSelection()
		}
		return a, tea.Batch(cmds...)

	case appmodel.FinanceChartMsg:
		if card := a.financeCardAt(msg.MessageIndex); card != nil {
			card.ApplyChart(msg.Chart, msg.Err)
			a.updateViewportContent(true)
		}
		return a, tea.Batch(cmds...)

	case appmodel.RateInfoMsg:
		if msg.Err == nil && msg.Info != nil {
			a.rateLine = formatRateLine(msg.Info)
			if r := msg.Info.LimitRemaining; r != nil && *r < lowCreditThreshold && !a.rateWarned {
				a.rateWarned = true
				a.appendSystemMessage(fmt.Sprintf("⚠️ Only $%.2f of API credit remaining.", *r))
				a.updateViewportContent(false)
			}
		}
		return a, tea.Batch(cmds...)
	}

	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a AppView) handleChatReply(msg appmodel.ChatReplyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	a.dataModel.Waiting = false
	a.dropWaitingPlaceholder()

	if msg.Err != nil {
		a.appendSystemMessage("⚠️ " + msg.Err.Error())
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)
	}

	idx := len(a.dataModel.Messages)
	a.dataModel.Messages = append(a.dataModel.Messages, newMessage("assistant", msg.Content, msg.Fragment))

	// Persist the raw text even for tool calls: reload re-renders the
	// fragment from it
	cmds = append(cmds, a.dataModel.PersistMessage("assistant", msg.Content))
	cmds = append(cmds, a.dataModel.FetchRateInfo())

	if msg.Fragment == nil {
		cmds = append(cmds, a.renderMarkdownAsync(idx, msg.Content))
	} else if card, ok := msg.Fragment.(*tools.FinanceCard); ok {
		// Direct-mode finance cards come back loading; start the fetch
		if symbol, pending := card.PendingFetch(); pending {
			cmds = append(cmds, appmodel.FetchFinanceChart(card, symbol, idx))
		}
	}

	a.updateViewportContent(true)
	return a, tea.Batch(cmds...)
}

func (a AppView) handleConversationLoaded(msg appmodel.ConversationLoadedMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("conversation load failed: %v", msg.Err)
		}
		a.statusFlash = fmt.Sprintf("load failed: %v", msg.Err)
		a.dataModel.NewConversation()
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)
	}

	conv := msg.Conversation
	a.dataModel.CurrentConversationID = conv.ID
	a.dataModel.Messages = a.dataModel.Messages[:0]
	a.dataModel.Waiting = false

	for i, stored := range conv.Messages {
		m := appmodel.Message{
			Role:      stored.Role,
			Content:   stored.Content,
			Timestamp: stored.Time(),
			Fragment:  msg.Fragments[i],
		}
		a.dataModel.Messages = append(a.dataModel.Messages, m)

		if m.Fragment == nil {
			cmds = append(cmds, a.renderMarkdownAsync(i, m.Content))
		} else if card, ok := m.Fragment.(*tools.FinanceCard); ok {
			if symbol, pending := card.PendingFetch(); pending {
				cmds = append(cmds, appmodel.FetchFinanceChart(card, symbol, i))
			}
		}
	}

	a.closeSidebar()
	a.updateViewportContent(true)
	return a, tea.Batch(cmds...)
}

// financeCardAt returns the finance card fragment at a message index, or nil.
func (a *AppView) financeCardAt(idx int) *tools.FinanceCard {
	if idx < 0 || idx >= len(a.dataModel.Messages) {
		return nil
	}
	card, _ := a.dataModel.Messages[idx].Fragment.(*tools.FinanceCard)
	return card
}

// activeFinanceCard returns the newest card awaiting a symbol choice.
func (a *AppView) activeFinanceCard() (*tools.FinanceCard, int) {
	for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
		if card, ok := a.dataModel.Messages[i].Fragment.(*tools.FinanceCard); ok {
			if card.AwaitingChoice() {
				return card, i
			}
			return nil, -1
		}
	}
	return nil, -1
}

func formatRateLine(info *appmodel.RateInfo) string {
	if info.Limit == nil {
		return fmt.Sprintf("usage $%.2f", info.Usage)
	}
	return fmt.Sprintf("usage $%.2f of $%.2f", info.Usage, *info.Limit)
}
