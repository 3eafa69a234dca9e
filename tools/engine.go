package tools

import (
	"context"
	"errors"
	"fmt"

	"orchat/config"
)

// Engine glues the pipeline together: catalog, matcher, prompt builder,
// parser, dispatcher and renderers. One engine is built at startup; the
// renderer registry is resolved then, so a catalog entry naming an unknown
// renderer is rejected at load time instead of failing mid-conversation.
type Engine struct {
	catalog    *Catalog
	dispatcher *Dispatcher
	renderers  map[string]Renderer
}

// NewEngine builds an engine over a loaded catalog. Every catalog entry's
// renderer reference must resolve against the static registry.
func NewEngine(catalog *Catalog, dispatcher *Dispatcher) (*Engine, error) {
	renderers := make(map[string]Renderer, len(catalog.Tools))
	for _, tool := range catalog.Tools {
		r, err := newRenderer(tool.Renderer, dispatcher)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", tool.ID, err)
		}
		renderers[tool.ID] = r
	}

	return &Engine{
		catalog:    catalog,
		dispatcher: dispatcher,
		renderers:  renderers,
	}, nil
}

// newRenderer is the static renderer registry: catalog renderer references
// map to concrete implementations here.
func newRenderer(name string, dispatcher *Dispatcher) (Renderer, error) {
	switch name {
	case "time":
		return &TimeRenderer{}, nil
	case "weather":
		return &WeatherRenderer{}, nil
	case "finance":
		return &FinanceRenderer{Dispatcher: dispatcher}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", name)
	}
}

// Catalog returns the engine's tool catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Detect returns the tools triggered by a raw user message.
func (e *Engine) Detect(userMessage string) []Definition {
	return e.catalog.Match(userMessage)
}

// BuildPrompt builds the system instruction block for matched tools.
func (e *Engine) BuildPrompt(matched []Definition) string {
	return BuildPrompt(matched)
}

// ParseCall extracts a validated tool invocation from a model reply.
func (e *Engine) ParseCall(reply string) (Invocation, bool) {
	return e.catalog.ParseCall(reply)
}

// HandleCall dispatches a validated invocation to its backend and renders the
// result.
func (e *Engine) HandleCall(ctx context.Context, call Invocation) (Fragment, error) {
	def := e.catalog.Find(call.Tool)
	if def == nil {
		return nil, fmt.Errorf("unknown tool: %s", call.Tool)
	}
	call.Endpoint = def.BackendEndpoint

	data, err := e.dispatcher.Dispatch(ctx, def.BackendEndpoint, call.payload())
	if err != nil {
		return nil, err
	}

	return e.renderers[call.Tool].Render(data, call)
}

// TryRender runs the full parse → dispatch → render path over a model reply.
// It returns nil when the reply is not a tool call (the reply is then shown
// as ordinary text), and an error card when the call fails: tool failures
// degrade to a renderable fragment instead of aborting message delivery.
func (e *Engine) TryRender(ctx context.Context, reply string) Fragment {
	call, ok := e.ParseCall(reply)
	if !ok {
		return nil
	}

	frag, err := e.HandleCall(ctx, call)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Tools] %s call failed: %v", call.Tool, err)
		}
		return ErrorCard(errorCardMessage(e.catalog.Find(call.Tool), err))
	}
	return frag
}

func errorCardMessage(def *Definition, err error) string {
	var domainErr *DomainError
	if def != nil && errors.As(err, &domainErr) {
		return fmt.Sprintf("%s error: %s", def.Name, domainErr.Message)
	}
	return fmt.Sprintf("Tool error: %v", err)
}

// RecallMessage is the minimal view of a persisted message the replay path
// needs.
type RecallMessage struct {
	Role    string
	Content string
}

// Recall scans every assistant message of a loaded conversation for tool
// calls and re-runs the dispatch → render path for each, invoking replace
// with the message index and the fresh fragment. Only the reply text is
// persisted, so recalled cards are rebuilt from live backend data; a message
// that fails to replay is left as plain text.
func (e *Engine) Recall(ctx context.Context, messages []RecallMessage, replace func(index int, frag Fragment)) {
	for i, msg := range messages {
		if msg.Role != "assistant" {
			continue
		}
		call, ok := e.ParseCall(msg.Content)
		if !ok {
			continue
		}

		frag, err := e.HandleCall(ctx, call)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Tools] recall of %s failed: %v", call.Tool, err)
			}
			continue
		}
		replace(i, frag)
	}
}
