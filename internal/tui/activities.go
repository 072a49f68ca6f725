package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/analysis"
	"runcoach/internal/service"
	"runcoach/internal/store"
)

// ActivitiesModel is the activities list screen model
type ActivitiesModel struct {
	queryService *service.QueryService
	paceService  *service.PaceService
	units        Units
	activities   []store.Activity
	zones        []analysis.PaceZone // empty until a reference performance is saved
	cursor       int
	offset       int
	total        int
	pageSize     int
	loading      bool
	err          error
}

// NewActivitiesModel creates a new activities model
func NewActivitiesModel(qs *service.QueryService, ps *service.PaceService, units Units) ActivitiesModel {
	return ActivitiesModel{
		queryService: qs,
		paceService:  ps,
		units:        units,
		pageSize:     15,
		loading:      true,
	}
}

// Init initializes the activities screen
func (m ActivitiesModel) Init() tea.Cmd {
	return m.loadPage
}

type activitiesLoadedMsg struct {
	activities []store.Activity
	zones      []analysis.PaceZone
	total      int
	err        error
}

// OpenActivityDetailMsg asks the app to show one activity
type OpenActivityDetailMsg struct {
	ActivityID int64
}

func (m ActivitiesModel) loadPage() tea.Msg {
	activities, err := m.queryService.ListActivities(m.pageSize, m.offset)
	if err != nil {
		return activitiesLoadedMsg{err: err}
	}

	total, err := m.queryService.CountActivities()
	if err != nil {
		return activitiesLoadedMsg{err: err}
	}

	msg := activitiesLoadedMsg{activities: activities, total: total}
	if m.paceService != nil {
		report, err := m.paceService.Current()
		switch {
		case err == nil:
			msg.zones = report.Zones
		case !errors.Is(err, store.ErrNoReferencePerformance):
			msg.err = err
		}
	}
	return msg
}

func (m ActivitiesModel) reload() (ActivitiesModel, tea.Cmd) {
	m.loading = true
	return m, m.loadPage
}

// Update handles messages
func (m ActivitiesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activitiesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.activities = msg.activities
		m.zones = msg.zones
		m.total = msg.total
		if m.cursor >= len(m.activities) {
			m.cursor = max(len(m.activities)-1, 0)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = m.pageSize - 1
				return m.reload()
			}
		case "down", "j":
			if m.cursor < len(m.activities)-1 {
				m.cursor++
			} else if m.offset+len(m.activities) < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				return m.reload()
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = 0
				return m.reload()
			}
		case "pgdown":
			if m.offset+m.pageSize < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				return m.reload()
			}
		case "r":
			return m.reload()
		case "enter":
			if m.cursor < len(m.activities) {
				id := m.activities[m.cursor].ID
				return m, func() tea.Msg { return OpenActivityDetailMsg{ActivityID: id} }
			}
		}
	}
	return m, nil
}

// View renders the activities list
func (m ActivitiesModel) View() string {
	if m.loading {
		return "\n  Loading activities..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.activities) == 0 {
		return "\n  No runs found. Press 's' to sync with Strava."
	}

	var sections []string

	title := cardTitleStyle.Render(fmt.Sprintf("Runs (%d-%d of %d)", m.offset+1, m.offset+len(m.activities), m.total))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("  %-10s  %-26s  %9s  %10s  %8s  %6s  %-9s",
		"Date", "Name", "Distance", "Pace", "Time", "Elev", "Zone"))
	sections = append(sections, header)

	for i, a := range m.activities {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-10s  %-26s  %9s  %10s  %8s  %5.0fm  %-9s",
			cursor,
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 26),
			m.units.FormatDistance(a.Distance),
			m.units.FormatPace(a.MovingTime, a.Distance),
			formatDuration(a.MovingTime),
			a.TotalElevationGain,
			runZone(m.zones, a),
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	if len(m.zones) == 0 {
		sections = append(sections, mutedStyle.Render("  Save a race result on the paces screen (4) to see zones."))
	}
	sections = append(sections, statusStyle.Render("  enter: details  j/k: navigate  pgup/pgdown: page  r: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// runZone names the first zone, in table order, containing the run's
// average pace
func runZone(zones []analysis.PaceZone, a store.Activity) string {
	if a.Distance <= 0 || a.MovingTime <= 0 {
		return "-"
	}
	pace := float64(a.MovingTime) / (a.Distance / analysis.MetersPerKm)
	for _, z := range zones {
		if pace >= z.MinSecPerKm && pace <= z.MaxSecPerKm {
			return z.Name
		}
	}
	return "-"
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm %02ds", m, seconds%60)
}
