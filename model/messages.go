package model

import (
	"orchat/storage"
	"orchat/tools"
)

// ChatReplyMsg carries the assistant's full reply, plus a rendered tool
// fragment when the reply was a structured tool call.
type ChatReplyMsg struct {
	Content  string
	Fragment tools.Fragment
	Err      error
}

type MarkdownRenderedMsg struct {
	MessageIndex int
	Rendered     string
}

type ModelsListMsg struct {
	Models       []ModelInfo
	Err          error
	ShowSelector bool
}

type ConversationsListMsg struct {
	Conversations []*storage.Conversation
	Err           error
}

// ConversationLoadedMsg delivers a loaded conversation together with tool
// fragments recalled from persisted assistant text, keyed by message index.
type ConversationLoadedMsg struct {
	Conversation *storage.Conversation
	Fragments    map[int]tools.Fragment
	Err          error
}

type ConversationSavedMsg struct {
	Conversation *storage.Conversation
	Err          error
}

type ConversationDeletedMsg struct {
	ID        string
	WasActive bool
	Err       error
}

type ConversationRenamedMsg struct {
	ID    string
	Title string
	Err   error
}

// SearchResultsMsg carries results for the sidebar search box. Seq guards
// against stale results overwriting newer ones.
type SearchResultsMsg struct {
	Query         string
	Seq           int
	Conversations []*storage.Conversation
	Err           error
}

// SearchDebounceMsg fires after the search debounce interval.
type SearchDebounceMsg struct {
	Seq int
}

// FinanceChartMsg delivers a fetched chart for a finance card awaiting data.
type FinanceChartMsg struct {
	MessageIndex int
	Chart        *tools.ChartData
	Err          error
}

type RateInfoMsg struct {
	Info *RateInfo
	Err  error
}
