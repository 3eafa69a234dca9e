package model

import (
	"context"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"orchat/config"
	"orchat/storage"
	"orchat/tools"
)

const chatTimeout = 2 * time.Minute

// SearchDebounce is how long the sidebar waits after the last keystroke
// before querying the store.
const SearchDebounce = 150 * time.Millisecond

// BuildSystemPrompt combines the configured system prompt with tool
// instructions for tools matched against the raw user text.
func (m *Model) BuildSystemPrompt(userText string) string {
	var parts []string
	if m.Config.DefaultSystemPrompt != "" {
		parts = append(parts, m.Config.DefaultSystemPrompt)
	}
	if m.Tools != nil {
		matched := m.Tools.Detect(userText)
		if prompt := m.Tools.BuildPrompt(matched); prompt != "" {
			if config.DebugLog != nil {
				names := make([]string, len(matched))
				for i, t := range matched {
					names[i] = t.ID
				}
				config.DebugLog.Printf("[Model] Matched tools for prompt: %s", strings.Join(names, ", "))
			}
			parts = append(parts, prompt)
		}
	}
	return strings.Join(parts, "\n\n")
}

// buildAPIMessages prepends the system prompt to the transcript.
func buildAPIMessages(uiMessages []Message, systemPrompt string) []Message {
	apiMessages := make([]Message, 0, len(uiMessages)+1)
	if systemPrompt != "" {
		apiMessages = append(apiMessages, Message{Role: "system", Content: systemPrompt})
	}
	apiMessages = append(apiMessages, uiMessages...)
	return apiMessages
}

// SendChat sends the transcript to the active provider. The user message
// must already be appended to m.Messages; userText is its raw content, used
// for tool matching.
func (m *Model) SendChat(userText string) tea.Cmd {
	provider := m.ActiveProvider()
	systemPrompt := m.BuildSystemPrompt(userText)
	history := make([]Message, len(m.Messages))
	copy(history, m.Messages)
	engine := m.Tools

	return func() tea.Msg {
		if provider == nil {
			return ChatReplyMsg{Err: &noProviderError{}}
		}

		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()

		reply, err := provider.Chat(ctx, buildAPIMessages(history, systemPrompt))
		if err != nil {
			return ChatReplyMsg{Err: err}
		}

		var frag tools.Fragment
		if engine != nil {
			frag = engine.TryRender(ctx, reply)
		}

		return ChatReplyMsg{Content: reply, Fragment: frag}
	}
}

type noProviderError struct{}

func (e *noProviderError) Error() string {
	return "no provider configured - set an API key or enable Ollama in config.toml"
}

// PersistMessage appends one message to the current conversation through the
// store worker. The saved conversation is returned so the UI can adopt a
// freshly assigned ID and refresh the sidebar entry.
func (m *Model) PersistMessage(role, content string) tea.Cmd {
	store := m.Store
	id := m.CurrentConversationID
	return func() tea.Msg {
		conv, err := store.AppendMessage(id, role, content)
		return ConversationSavedMsg{Conversation: conv, Err: err}
	}
}

// FetchConversations lists all conversations, newest first.
func (m *Model) FetchConversations() tea.Cmd {
	store := m.Store
	return func() tea.Msg {
		convs, err := store.All()
		return ConversationsListMsg{Conversations: convs, Err: err}
	}
}

// LoadConversation loads a conversation and re-renders any persisted tool
// calls through the parse → dispatch → render path. Fragments are keyed by
// message index; messages whose recall fails stay textual.
func (m *Model) LoadConversation(id string) tea.Cmd {
	store := m.Store
	engine := m.Tools
	return func() tea.Msg {
		conv, err := store.Get(id)
		if err != nil {
			return ConversationLoadedMsg{Err: err}
		}

		fragments := make(map[int]tools.Fragment)
		if engine != nil {
			recall := make([]tools.RecallMessage, len(conv.Messages))
			for i, msg := range conv.Messages {
				recall[i] = tools.RecallMessage{Role: msg.Role, Content: msg.Content}
			}

			ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
			defer cancel()
			engine.Recall(ctx, recall, func(index int, frag tools.Fragment) {
				fragments[index] = frag
			})
		}

		return ConversationLoadedMsg{Conversation: conv, Fragments: fragments}
	}
}

// DeleteConversation removes a conversation from the store.
func (m *Model) DeleteConversation(id string) tea.Cmd {
	store := m.Store
	wasActive := id == m.CurrentConversationID
	return func() tea.Msg {
		err := store.Delete(id)
		return ConversationDeletedMsg{ID: id, WasActive: wasActive, Err: err}
	}
}

// RenameConversation sets a conversation's title.
func (m *Model) RenameConversation(id, title string) tea.Cmd {
	store := m.Store
	return func() tea.Msg {
		err := store.Rename(id, title)
		return ConversationRenamedMsg{ID: id, Title: title, Err: err}
	}
}

// DebounceSearch schedules a search for after the debounce interval. The
// sidebar only runs the search if seq still matches its latest keystroke.
func DebounceSearch(seq int) tea.Cmd {
	return tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return SearchDebounceMsg{Seq: seq}
	})
}

// SearchConversations runs a store search for the sidebar.
func (m *Model) SearchConversations(query string, seq int) tea.Cmd {
	store := m.Store
	return func() tea.Msg {
		var (
			convs []*storage.Conversation
			err   error
		)
		if strings.TrimSpace(query) == "" {
			convs, err = store.All()
		} else {
			convs, err = store.Search(query)
		}
		return SearchResultsMsg{Query: query, Seq: seq, Conversations: convs, Err: err}
	}
}

// FetchAllModels retrieves models from all configured providers.
// showSelector: whether to auto-show the model selector after the fetch.
func (m *Model) FetchAllModels(showSelector bool) tea.Cmd {
	providers := m.Providers
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var all []ModelInfo
		var lastErr error
		for id, p := range providers {
			models, err := p.ListModels(ctx)
			if err != nil {
				// Keep models from the providers that did answer
				lastErr = err
				if config.DebugLog != nil {
					config.DebugLog.Printf("[Model] ListModels failed for %s: %v", id, err)
				}
				continue
			}
			all = append(all, models...)
		}

		if len(all) > 0 {
			lastErr = nil
		}
		sort.Slice(all, func(i, j int) bool {
			return all[i].Name < all[j].Name
		})
		return ModelsListMsg{Models: all, Err: lastErr, ShowSelector: showSelector}
	}
}

// FetchRateInfo queries key usage for the active provider, when supported.
func (m *Model) FetchRateInfo() tea.Cmd {
	provider := m.ActiveProvider()
	return func() tea.Msg {
		rp, ok := provider.(RateInfoProvider)
		if !ok {
			return RateInfoMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		info, err := rp.RateInfo(ctx)
		return RateInfoMsg{Info: info, Err: err}
	}
}

// FetchFinanceChart fetches chart data for a finance card off the event
// loop. The UI applies the result to the card on FinanceChartMsg.
func FetchFinanceChart(card *tools.FinanceCard, symbol string, messageIndex int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chart, err := card.FetchChart(ctx, symbol)
		return FinanceChartMsg{MessageIndex: messageIndex, Chart: chart, Err: err}
	}
}
