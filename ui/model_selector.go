package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	appmodel "orchat/model"
)

func (a *AppView) openModelSelector() {
	a.showModelSelector = true
	a.modelFilterMode = false
	a.modelFilterInput.SetValue("")
	a.filteredModelList = nil

	// Start the cursor on the active model
	a.selectedModelIdx = 0
	provider := a.dataModel.ActiveProvider()
	if provider == nil {
		return
	}
	current := provider.GetModel()
	for i, m := range a.modelList {
		if m.InternalName == current && m.Provider == a.dataModel.ActiveProviderID {
			a.selectedModelIdx = i
			break
		}
	}
}

func (a *AppView) closeModelSelector() {
	a.showModelSelector = false
	a.modelFilterMode = false
	a.modelFilterInput.Blur()
	a.modelFilterInput.SetValue("")
	a.filteredModelList = nil
}

// selectorList returns the list the selector is currently showing.
func (a *AppView) selectorList() []appmodel.ModelInfo {
	if a.filteredModelList != nil {
		return a.filteredModelList
	}
	return a.modelList
}

func (a AppView) handleModelSelectorKeys(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if a.modelFilterMode {
		switch msg.String() {
		case "esc":
			a.modelFilterMode = false
			a.modelFilterInput.Blur()
			a.modelFilterInput.SetValue("")
			a.filteredModelList = nil
			a.selectedModelIdx = 0
			return a, nil

		case "enter":
			return a.chooseSelectedModel()

		case "alt+j", "alt+down", "down":
			if a.selectedModelIdx < len(a.selectorList())-1 {
				a.selectedModelIdx++
			}
			return a, nil

		case "alt+k", "alt+up", "up":
			if a.selectedModelIdx > 0 {
				a.selectedModelIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.modelFilterInput, cmd = a.modelFilterInput.Update(msg)

		filterValue := a.modelFilterInput.Value()
		if filterValue == "" {
			a.filteredModelList = a.modelList
		} else {
			targets := make([]string, len(a.modelList))
			for i, m := range a.modelList {
				targets[i] = m.Name
			}
			matches := fuzzy.Find(filterValue, targets)
			a.filteredModelList = make([]appmodel.ModelInfo, len(matches))
			for i, match := range matches {
				a.filteredModelList[i] = a.modelList[match.Index]
			}
		}

		if list := a.selectorList(); a.selectedModelIdx >= len(list) && len(list) > 0 {
			a.selectedModelIdx = len(list) - 1
		}
		return a, cmd
	}

	switch msg.String() {
	case "esc", "ctrl+l", "q":
		a.closeModelSelector()
		return a, nil

	case "/":
		a.modelFilterMode = true
		a.modelFilterInput.Focus()
		a.modelFilterInput.SetValue("")
		a.filteredModelList = a.modelList
		a.selectedModelIdx = 0
		return a, textinput.Blink

	case "j", "down":
		if a.selectedModelIdx < len(a.selectorList())-1 {
			a.selectedModelIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil

	case "enter":
		return a.chooseSelectedModel()
	}
	return a, nil
}

func (a AppView) chooseSelectedModel() (AppView, tea.Cmd) {
	list := a.selectorList()
	if a.selectedModelIdx < 0 || a.selectedModelIdx >= len(list) {
		return a, nil
	}
	info := list[a.selectedModelIdx]
	if !a.dataModel.SwitchModel(info) {
		a.statusFlash = fmt.Sprintf("provider %s is not configured", info.Provider)
		a.closeModelSelector()
		return a, nil
	}
	a.closeModelSelector()
	return a, a.dataModel.FetchRateInfo()
}

func renderModelSelector(models, filtered []appmodel.ModelInfo, selectedIdx int, currentModel string, filterMode bool, filterInput textinput.Model, width, height int) string {
	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}
	modalHeight := height - 6

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Select Model")

	displayList := models
	if filtered != nil {
		displayList = filtered
	}

	var header string
	if filterMode {
		header = filterInput.View()
	} else if len(displayList) == len(models) {
		header = fmt.Sprintf("%d models", len(models))
	} else {
		header = fmt.Sprintf("%d of %d models", len(displayList), len(models))
	}

	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var modelLines []string
	maxLines := modalHeight - 8

	if len(displayList) == 0 {
		emptyMsg := "No models available"
		if filterMode {
			emptyMsg = "No matches found"
		}
		modelLines = append(modelLines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg))
	} else {
		startIdx, endIdx := scrollWindow(len(displayList), selectedIdx, maxLines/2)
		for i := startIdx; i < endIdx; i++ {
			m := displayList[i]

			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			name := m.Name
			providerSuffix := ""
			if m.Provider != "" {
				providerSuffix = fmt.Sprintf(" (%s)", m.Provider)
			}

			currentMarker := ""
			if m.InternalName == currentModel {
				currentMarker = " (current)"
			}

			maxNameWidth := modalWidth - len(providerSuffix) - len(currentMarker) - 6
			if len(name) > maxNameWidth && maxNameWidth > 3 {
				name = name[:maxNameWidth-3] + "..."
			}

			line := indicator + name + providerSuffix + currentMarker

			lineStyle := lipgloss.NewStyle()
			if i == selectedIdx {
				lineStyle = lineStyle.Foreground(successColor).Bold(true)
			} else if m.InternalName == currentModel {
				lineStyle = lineStyle.Foreground(accentColor).Bold(true)
			}

			modelLines = append(modelLines, lipgloss.NewStyle().
				Width(modalWidth).
				Render(lineStyle.Render(line)))
		}
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	modelLines = append([]string{emptyLine}, modelLines...)
	modelLines = append(modelLines, emptyLine)

	var footerText string
	if filterMode {
		footerText = FormatFooter("Type", "to filter", "Alt+J/K", "Navigate", "Enter", "Select", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Select", "Esc", "Exit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection}
	sections = append(sections, modelLines...)
	sections = append(sections, footerSection)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n"))
}
