package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/analysis"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		m.renderSection("Navigation", []keyHelp{
			{"1", "Dashboard"},
			{"2", "Runs list"},
			{"3", "Training paces"},
			{"4", "Training plan"},
			{"5 or s", "Sync screen"},
			{"?", "Help (this screen)"},
			{"q", "Quit"},
			{"esc", "Back / close help"},
		}),
		m.renderSection("Runs", []keyHelp{
			{"j / down", "Move cursor down"},
			{"k / up", "Move cursor up"},
			{"pgdn / pgup", "Next / previous page"},
			{"enter", "Open run details"},
			{"r", "Refresh"},
		}),
		m.renderSection("Paces", []keyHelp{
			{"e", "Edit race and finish time"},
			{"tab", "Next field"},
			{"enter", "Calculate and save"},
		}),
		m.renderSection("Plan", []keyHelp{
			{"n", "Draft a new plan"},
			{"enter", "Generate (on the last field)"},
		}),
		m.renderZonesHelp(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderZonesHelp() string {
	lines := []string{
		"",
		sectionStyle.Render("Training Zones"),
		mutedStyle.Render("  Zones are multiples of your threshold pace, predicted from a race"),
		mutedStyle.Render(fmt.Sprintf("  result with Riegel's formula (exponent %.2f).", analysis.RiegelExponent)),
		"",
	}

	descriptions := map[string]string{
		"easy":      "Conversational. Most of your weekly volume.",
		"steady":    "Comfortably hard aerobic running.",
		"threshold": "About what you could hold for an hour.",
		"interval":  "Hard repeats of 3 to 5 minutes.",
		"speed":     "Short fast reps with full recovery.",
		"long":      "Long run pace, a little quicker than easy.",
	}
	for _, b := range analysis.ZoneBands() {
		band := fmt.Sprintf("%.2f-%.2fx", b.MinMul, b.MaxMul)
		lines = append(lines, "  "+zoneStyle(b.Name).Render(fmt.Sprintf("%-10s", b.Name))+" "+
			fmt.Sprintf("%-11s", band)+" "+mutedStyle.Render(descriptions[b.Name]))
	}

	return strings.Join(lines, "\n")
}
