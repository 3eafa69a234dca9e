package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodel "orchat/model"
)

// AppView is the bubbletea model for the whole application. It owns the UI
// components and delegates business logic to the core data model.
type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// UI Components
	viewport viewport.Model
	textarea textarea.Model

	// Window state
	width  int
	height int
	ready  bool

	// Loading spinner shown while waiting for a reply
	loadingSpinner spinner.Model

	// Conversation sidebar
	sidebar Sidebar

	// Model selector
	showModelSelector bool
	modelList         []appmodel.ModelInfo
	filteredModelList []appmodel.ModelInfo
	selectedModelIdx  int
	modelFilterMode   bool
	modelFilterInput  textinput.Model

	// Status bar state
	statusFlash string
	rateLine    string
	rateWarned  bool
}

// NewAppView creates the application view around an assembled data model.
func NewAppView(dataModel *appmodel.Model) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone sends (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	// "> " for first line, "| " for subsequent lines
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	modelFilterInput := textinput.New()
	modelFilterInput.Prompt = "Filter: "
	modelFilterInput.CharLimit = 64

	return AppView{
		dataModel:        dataModel,
		textarea:         ta,
		viewport:         vp,
		loadingSpinner:   sp,
		sidebar:          NewSidebar(),
		modelFilterInput: modelFilterInput,
	}
}

func (a AppView) Init() tea.Cmd {
	// Markdown rendering waits for WindowSizeMsg so it has a real width
	return tea.Batch(
		textarea.Blink,
		a.dataModel.FetchAllModels(false), // Background fetch, don't show selector
		a.dataModel.FetchRateInfo(),
	)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading ORCHAT..."
	}

	if a.sidebar.visible {
		return a.sidebar.View(a.dataModel.CurrentConversationID, a.width, a.height)
	}

	if a.showModelSelector {
		provider := a.dataModel.ActiveProvider()
		current := ""
		if provider != nil {
			current = provider.GetModel()
		}
		return renderModelSelector(a.modelList, a.filteredModelList, a.selectedModelIdx,
			current, a.modelFilterMode, a.modelFilterInput, a.width, a.height)
	}

	title := TitleStyle.Render("ORCHAT")
	separator := DimStyle.Render(strings.Repeat("─", a.width))

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		title,
		a.viewport.View(),
		separator,
		a.textarea.View(),
		a.statusBar(),
	)
}

func (a AppView) statusBar() string {
	if a.statusFlash != "" {
		return ErrorStyle.Render(a.statusFlash)
	}

	var left string
	provider := a.dataModel.ActiveProvider()
	if provider != nil {
		left = fmt.Sprintf("%s · %s", a.dataModel.ActiveProviderID, provider.GetDisplayName())
	} else {
		left = "no provider"
	}

	if a.dataModel.Waiting {
		left += " · thinking"
	}
	if a.rateLine != "" {
		left += " · " + a.rateLine
	}

	hints := FormatFooter("^S", "Conversations", "^L", "Models", "^N", "New", "^C", "Quit")

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		return StatusStyle.Render(left)
	}
	return StatusStyle.Render(left) + strings.Repeat(" ", gap) + hints
}
