package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/analysis"
	"runcoach/internal/service"
	"runcoach/internal/store"
)

// ActivityDetailModel is the activity detail screen model
type ActivityDetailModel struct {
	queryService *service.QueryService
	paceService  *service.PaceService
	units        Units
	activityID   int64
	activity     *store.Activity
	paces        *service.PaceReport // nil until a reference performance is stored
	viewport     viewport.Model
	loading      bool
	err          error
	ready        bool
}

// NewActivityDetailModel creates a new activity detail model
func NewActivityDetailModel(qs *service.QueryService, ps *service.PaceService, units Units, activityID int64, width, height int) ActivityDetailModel {
	m := ActivityDetailModel{
		queryService: qs,
		paceService:  ps,
		units:        units,
		activityID:   activityID,
		loading:      true,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // header and footer rows
		m.ready = true
	}

	return m
}

// Init initializes the activity detail screen
func (m ActivityDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type activityDetailLoadedMsg struct {
	activity *store.Activity
	paces    *service.PaceReport
	err      error
}

func (m ActivityDetailModel) loadDetail() tea.Msg {
	activity, err := m.queryService.GetActivity(m.activityID)
	if err != nil {
		return activityDetailLoadedMsg{err: err}
	}

	paces, err := m.paceService.Current()
	if err != nil && !errors.Is(err, store.ErrNoReferencePerformance) {
		return activityDetailLoadedMsg{err: err}
	}
	return activityDetailLoadedMsg{activity: activity, paces: paces}
}

// Update handles messages
func (m ActivityDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activityDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.activity = msg.activity
		m.paces = msg.paces
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.activity != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadDetail
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the activity detail screen
func (m ActivityDetailModel) View() string {
	if m.loading {
		return "\n  Loading activity..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to list  j/k or arrows: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m ActivityDetailModel) renderContent() string {
	if m.activity == nil {
		return "No data"
	}

	sections := []string{m.renderHeader(), m.renderSummary()}
	if m.paces != nil {
		sections = append(sections, m.renderZoneFit())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ActivityDetailModel) renderHeader() string {
	a := m.activity
	title := cardTitleStyle.Render(a.Name)
	subtitle := mutedStyle.Render(a.StartDateLocal.Format("Monday, January 2, 2006 at 3:04 PM"))

	stats := fmt.Sprintf("%s  •  %s  •  %s",
		m.units.FormatDistance(a.Distance),
		formatDuration(a.MovingTime),
		m.units.FormatPace(a.MovingTime, a.Distance),
	)
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(stats)

	return lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, statsLine, "")
}

func (m ActivityDetailModel) renderSummary() string {
	a := m.activity
	lines := []string{sectionStyle.Render("Summary")}

	lines = append(lines, fmt.Sprintf("  Type:              %s", a.Type))
	lines = append(lines, fmt.Sprintf("  Moving time:       %s", analysis.FormatDuration(a.MovingTime)))
	lines = append(lines, fmt.Sprintf("  Elapsed time:      %s", analysis.FormatDuration(a.ElapsedTime)))
	lines = append(lines, fmt.Sprintf("  Elevation gain:    %.0f m", a.TotalElevationGain))
	if a.MaxSpeed > 0 {
		lines = append(lines, fmt.Sprintf("  Fastest pace:      %s", m.units.FormatSecPerKm(analysis.MetersPerKm/a.MaxSpeed)))
	}
	if a.AverageHeartrate != nil {
		lines = append(lines, fmt.Sprintf("  Average HR:        %.0f bpm", *a.AverageHeartrate))
	}
	if a.MaxHeartrate != nil {
		lines = append(lines, fmt.Sprintf("  Max HR:            %.0f bpm", *a.MaxHeartrate))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// renderZoneFit shows which training zones the run's average pace falls in
func (m ActivityDetailModel) renderZoneFit() string {
	a := m.activity
	lines := []string{sectionStyle.Render(fmt.Sprintf("Training Zones (from %s in %s)",
		analysis.GetEventLabel(m.paces.Input.Event), m.paces.Input.TimeHMS))}

	if a.Distance <= 0 || a.MovingTime <= 0 {
		lines = append(lines, mutedStyle.Render("  No pace recorded"))
		return strings.Join(lines, "\n")
	}

	pace := float64(a.MovingTime) / (a.Distance / analysis.MetersPerKm)
	matched := matchingZones(m.paces.Zones, pace)

	for _, z := range m.paces.Zones {
		marker := "  "
		if matched[z.Name] {
			marker = "▶ "
		}
		lines = append(lines, marker+zoneStyle(z.Name).Render(z.Name)+" "+
			m.units.FormatSecPerKm(z.MinSecPerKm)+" - "+m.units.FormatSecPerKm(z.MaxSecPerKm))
	}

	if len(matched) == 0 {
		lines = append(lines, "", mutedStyle.Render("  Average pace is outside every zone"))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// matchingZones returns the zones whose band contains pace (seconds per km)
func matchingZones(zones []analysis.PaceZone, pace float64) map[string]bool {
	matched := make(map[string]bool)
	for _, z := range zones {
		if pace >= z.MinSecPerKm && pace <= z.MaxSecPerKm {
			matched[z.Name] = true
		}
	}
	return matched
}
