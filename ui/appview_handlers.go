package ui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	appmodel "orchat/model"
	"orchat/tools"
)

const waitingPlaceholder = "Waiting for response..."

func newMessage(role, content string, frag tools.Fragment) appmodel.Message {
	return appmodel.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Fragment:  frag,
	}
}

func (a *AppView) appendSystemMessage(content string) {
	a.dataModel.Messages = append(a.dataModel.Messages, newMessage("system", content, nil))
}

// dropWaitingPlaceholder removes the trailing spinner message, if present.
func (a *AppView) dropWaitingPlaceholder() {
	n := len(a.dataModel.Messages)
	if n > 0 && a.dataModel.Messages[n-1].Role == "system" && a.dataModel.Messages[n-1].Content == waitingPlaceholder {
		a.dataModel.Messages = a.dataModel.Messages[:n-1]
	}
}

// handleChatKeys routes keys in the main chat view.
func (a AppView) handleChatKeys(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	// Finance confirmation routing: while the newest card waits for a
	// symbol choice and the input is empty, digits/arrows/enter go to it.
	if card, idx := a.activeFinanceCard(); card != nil && a.textarea.Value() == "" {
		switch key := msg.String(); key {
		case "1", "2", "3", "4", "5":
			if symbol, ok := card.Choose(int(key[0] - '1')); ok {
				a.updateViewportContent(true)
				cmds = append(cmds, appmodel.FetchFinanceChart(card, symbol, idx))
			}
			return a, tea.Batch(cmds...)
		case "up":
			card.MoveCursor(-1)
			a.updateViewportContent(true)
			return a, tea.Batch(cmds...)
		case "down":
			card.MoveCursor(1)
			a.updateViewportContent(true)
			return a, tea.Batch(cmds...)
		case "enter":
			if symbol, ok := card.Choose(-1); ok {
				a.updateViewportContent(true)
				cmds = append(cmds, appmodel.FetchFinanceChart(card, symbol, idx))
			}
			return a, tea.Batch(cmds...)
		}
	}

	switch msg.String() {
	case "ctrl+c":
		a.dataModel.Quitting = true
		return a, tea.Quit

	case "enter":
		return a.sendMessage(cmds)

	case "ctrl+s":
		cmds = append(cmds, a.openSidebar())
		return a, tea.Batch(cmds...)

	case "ctrl+n":
		a.dataModel.NewConversation()
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case "ctrl+l":
		if len(a.modelList) == 0 {
			cmds = append(cmds, a.dataModel.FetchAllModels(true))
			return a, tea.Batch(cmds...)
		}
		a.openModelSelector()
		return a, tea.Batch(cmds...)

	case "ctrl+r":
		cmds = append(cmds, a.dataModel.FetchRateInfo())
		return a, tea.Batch(cmds...)

	case "ctrl+y":
		a.copyLastAssistantMessage()
		return a, tea.Batch(cmds...)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)
	}

	a.statusFlash = ""
	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// sendMessage submits the textarea content: append to the transcript,
// persist, and send to the provider with tool instructions matched against
// the raw text.
func (a AppView) sendMessage(cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.textarea.Value())
	if text == "" || a.dataModel.Waiting {
		return a, tea.Batch(cmds...)
	}

	a.textarea.Reset()

	userIdx := len(a.dataModel.Messages)
	a.dataModel.Messages = append(a.dataModel.Messages, newMessage("user", text, nil))

	a.dataModel.Waiting = true
	a.appendSystemMessage(waitingPlaceholder)
	a.updateViewportContent(true)

	cmds = append(cmds,
		a.renderMarkdownAsync(userIdx, text),
		a.dataModel.PersistMessage("user", text),
		a.dataModel.SendChat(text),
		a.loadingSpinner.Tick,
	)
	return a, tea.Batch(cmds...)
}

// copyLastAssistantMessage copies the newest assistant reply (raw text) to
// the system clipboard.
func (a *AppView) copyLastAssistantMessage() {
	for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
		msg := a.dataModel.Messages[i]
		if msg.Role != "assistant" {
			continue
		}
		if err := clipboard.WriteAll(msg.Content); err != nil {
			a.statusFlash = "clipboard unavailable"
			return
		}
		a.statusFlash = "copied to clipboard"
		return
	}
}

// renderAllMarkdown queues markdown rendering for every textual message,
// newest first so the visible tail fills in quickly.
func (a *AppView) renderAllMarkdown() []tea.Cmd {
	var cmds []tea.Cmd
	for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
		msg := a.dataModel.Messages[i]
		if msg.Fragment != nil || msg.Rendered != "" {
			continue
		}
		if msg.Role == "assistant" || msg.Role == "user" {
			cmds = append(cmds, a.renderMarkdownAsync(i, msg.Content))
		}
	}
	return cmds
}
