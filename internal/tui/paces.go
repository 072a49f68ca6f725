package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/analysis"
	"runcoach/internal/service"
	"runcoach/internal/store"
)

const (
	fieldEvent = iota
	fieldTime
)

// PacesModel lets the runner enter a PB and shows the resulting training zones
type PacesModel struct {
	paceService *service.PaceService
	units       Units
	inputs      []textinput.Model
	focus       int
	report      *service.PaceReport
	err         error
	loading     bool
}

// NewPacesModel creates a new paces model
func NewPacesModel(ps *service.PaceService, units Units) PacesModel {
	event := textinput.New()
	event.Placeholder = strings.Join(analysis.Events, " | ")
	event.CharLimit = 16
	event.Width = 40

	finish := textinput.New()
	finish.Placeholder = "h:mm:ss or m:ss"
	finish.CharLimit = 10
	finish.Width = 20

	return PacesModel{
		paceService: ps,
		units:       units,
		inputs:      []textinput.Model{event, finish},
		loading:     true,
	}
}

// Editing reports whether a text field has focus, so global keys should be ignored
func (m PacesModel) Editing() bool {
	return m.inputs[m.focus].Focused()
}

// Init loads the stored reference performance, if any
func (m PacesModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCurrent)
}

type pacesLoadedMsg struct {
	report *service.PaceReport
	err    error
	saved  bool
}

func (m PacesModel) loadCurrent() tea.Msg {
	report, err := m.paceService.Current()
	if errors.Is(err, store.ErrNoReferencePerformance) {
		return pacesLoadedMsg{}
	}
	return pacesLoadedMsg{report: report, err: err}
}

func (m PacesModel) calculate() tea.Cmd {
	event := m.inputs[fieldEvent].Value()
	finish := m.inputs[fieldTime].Value()
	return func() tea.Msg {
		report, err := m.paceService.CalculateAndSave(event, finish)
		return pacesLoadedMsg{report: report, err: err, saved: err == nil}
	}
}

// Update handles messages
func (m PacesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pacesLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.report != nil {
			m.report = msg.report
			if !msg.saved {
				m.inputs[fieldEvent].SetValue(msg.report.Input.Event)
				m.inputs[fieldTime].SetValue(msg.report.Input.TimeHMS)
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			return m.cycleFocus(msg.String() == "shift+tab" || msg.String() == "up")
		case "enter":
			if m.focus == fieldEvent {
				return m.cycleFocus(false)
			}
			m.loading = true
			return m, m.calculate()
		case "esc":
			m.inputs[m.focus].Blur()
			return m, nil
		case "e", "i":
			if !m.Editing() {
				return m, m.inputs[m.focus].Focus()
			}
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m PacesModel) cycleFocus(backwards bool) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	if backwards {
		m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
	} else {
		m.focus = (m.focus + 1) % len(m.inputs)
	}
	return m, m.inputs[m.focus].Focus()
}

// View renders the paces screen
func (m PacesModel) View() string {
	sections := []string{cardTitleStyle.Render("Training Paces"), m.renderForm()}

	switch {
	case m.loading:
		sections = append(sections, "\n  Calculating...")
	case m.err != nil:
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  %v", m.err)))
	case m.report == nil:
		sections = append(sections, mutedStyle.Render("\n  Press 'e' and enter a recent race result to see your training zones."))
	default:
		sections = append(sections, m.renderZones(), m.renderEquivalents())
	}

	help := "  tab: next field  enter: calculate  esc: stop editing"
	if !m.Editing() {
		help = "  e: edit  1-5: switch screen"
	}
	sections = append(sections, statusStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PacesModel) renderForm() string {
	labels := []string{"Race", "Finish time"}
	var lines []string
	for i, input := range m.inputs {
		style := inputLabelStyle
		if i == m.focus && input.Focused() {
			style = inputFocusedLabelStyle
		}
		lines = append(lines, "  "+style.Render(labels[i])+input.View())
	}
	return strings.Join(lines, "\n")
}

func (m PacesModel) renderZones() string {
	r := m.report
	lines := []string{
		"",
		sectionStyle.Render("Threshold"),
		fmt.Sprintf("  %s  (%s)", m.units.FormatSecPerKm(r.Threshold.SecondsPerKm), r.Threshold.PerMile),
		mutedStyle.Render("  " + r.Notes),
		"",
		sectionStyle.Render("Zones"),
		tableHeaderStyle.Render(fmt.Sprintf("%-11s  %-21s  %-21s", "Zone", "per km", "per mile")),
	}

	for _, z := range r.Zones {
		lines = append(lines, " "+zoneStyle(z.Name).Render(z.Name)+"  "+
			fmt.Sprintf("%-21s  %-21s", z.MinPerKm+" - "+z.MaxPerKm, z.MinPerMile+" - "+z.MaxPerMile))
	}
	return strings.Join(lines, "\n")
}

func (m PacesModel) renderEquivalents() string {
	lines := []string{
		"",
		sectionStyle.Render("Equivalent Race Times"),
	}
	for _, eq := range m.report.Equivalents {
		secPerKm := float64(eq.PredictedSeconds) / (eq.DistanceMeters / analysis.MetersPerKm)
		lines = append(lines, fmt.Sprintf("  %-14s %9s   %s", eq.Label, eq.PredictedTime, m.units.FormatSecPerKm(secPerKm)))
	}
	return strings.Join(lines, "\n")
}
