package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"runcoach/internal/service"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	paceUnit     string
	data         *service.DashboardData
	loading      bool
	err          error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, paceUnit string) DashboardModel {
	return DashboardModel{
		queryService: qs,
		paceUnit:     paceUnit,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.GetDashboardData()
	return dashboardDataMsg{data: data, err: err}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

func (m DashboardModel) units() Units {
	unit := "km"
	if m.data != nil && m.data.Profile != nil {
		unit = m.data.Profile.DistanceUnit
	}
	return NewUnits(unit, m.paceUnit)
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available. Press 's' to sync with Strava."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderTotalsCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	if m.hasWeeklyData() {
		sections = append(sections, m.renderChart())
	}

	sections = append(sections, m.renderRecentActivities())
	sections = append(sections, m.renderConnection())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderTotalsCard() string {
	u := m.units()
	stats := m.data.Stats

	avgPace := stats.AveragePace
	if stats.AveragePaceSec > 0 {
		avgPace = u.FormatSecPerKm(stats.AveragePaceSec)
	}

	lines := []string{
		RenderMetric("Total runs", fmt.Sprintf("%d", stats.TotalRuns)),
		RenderMetric("Total distance", fmt.Sprintf("%.1f %s", u.FromKm(stats.TotalDistanceKm), u.DistanceLabel())),
		RenderMetric("Average pace", avgPace),
	}

	title := cardTitleStyle.Render("All Time")
	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	u := m.units()
	stats := m.data.Stats

	lines := []string{
		RenderMetric("Distance", fmt.Sprintf("%.1f %s", u.FromKm(stats.WeekDistanceKm), u.DistanceLabel())),
		RenderMetric("Weekly goal", fmt.Sprintf("%.0f %s", u.FromKm(stats.WeeklyGoalKm), u.DistanceLabel())),
		"",
		RenderProgressBar(stats.WeeklyGoalProgress, 24) + fmt.Sprintf(" %3.0f%%", stats.WeeklyGoalProgress*100),
	}

	title := cardTitleStyle.Render("This Week")
	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) hasWeeklyData() bool {
	for _, km := range m.data.WeeklyKm {
		if km > 0 {
			return true
		}
	}
	return false
}

func (m DashboardModel) renderChart() string {
	u := m.units()
	series := make([]float64, len(m.data.WeeklyKm))
	for i, km := range m.data.WeeklyKm {
		series[i] = u.FromKm(km)
	}

	title := cardTitleStyle.Render(fmt.Sprintf("Weekly Distance (%s)", u.DistanceLabel()))
	graph := asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
	)

	var axis string
	if n := len(m.data.WeeklyLabels); n > 0 {
		axis = mutedStyle.Render(fmt.Sprintf("%s%*s", m.data.WeeklyLabels[0], 60, m.data.WeeklyLabels[n-1]))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph, axis))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Runs")

	if len(m.data.RecentActivities) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No runs yet"))
	}

	u := m.units()
	rows := []string{
		tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-24s  %9s  %10s  %6s", "Date", "Name", "Distance", "Pace", "HR")),
	}
	for _, a := range m.data.RecentActivities {
		hr := "-"
		if a.AverageHeartrate != nil {
			hr = fmt.Sprintf("%.0f", *a.AverageHeartrate)
		}
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-10s  %-24s  %9s  %10s  %6s",
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 24),
			u.FormatDistance(a.Distance),
			u.FormatPace(a.MovingTime, a.Distance),
			hr,
		)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m DashboardModel) renderConnection() string {
	var status string
	switch {
	case !m.data.StravaConnected:
		status = warningStyle.Render("Strava not connected. Run 'runcoach connect'.")
	case m.data.LastSyncError != "":
		status = errorStyle.Render("Last sync failed: " + m.data.LastSyncError)
	case m.data.LastSync != nil:
		status = successStyle.Render("Last synced " + m.data.LastSync.Local().Format("Jan 02 15:04"))
	default:
		status = mutedStyle.Render("Never synced. Press 's' to sync.")
	}
	return statusStyle.Render(status + mutedStyle.Render("   r: refresh  s: sync"))
}
