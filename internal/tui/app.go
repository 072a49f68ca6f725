package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/config"
	"runcoach/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenActivities
	ScreenActivityDetail
	ScreenPaces
	ScreenPlan
	ScreenSync
	ScreenHelp
)

// Services are the application services the screens read from
type Services struct {
	Query  *service.QueryService
	Paces  *service.PaceService
	Plans  *service.PlanService
	Strava *service.StravaConnector // nil when Strava is not configured
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard  DashboardModel
	activities ActivitiesModel
	detail     ActivityDetailModel
	paces      PacesModel
	plan       PlanModel
	syncScreen SyncModel
	help       HelpModel

	services Services
	units    Units

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(services Services, display config.DisplayConfig) *App {
	units := NewUnits(display.DistanceUnit, display.PaceUnit)
	return &App{
		screen:     ScreenDashboard,
		services:   services,
		units:      units,
		dashboard:  NewDashboardModel(services.Query, display.PaceUnit),
		activities: NewActivitiesModel(services.Query, services.Paces, units),
		paces:      NewPacesModel(services.Paces, units),
		plan:       NewPlanModel(services.Plans, 0, 0),
		syncScreen: NewSyncModel(services.Strava),
		help:       NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.dashboard.Init(), a.syncScreen.Init())
}

// capturesKeys reports whether the current screen needs every keystroke
func (a *App) capturesKeys() bool {
	switch a.screen {
	case ScreenPaces:
		return a.paces.Editing()
	case ScreenPlan:
		return a.plan.Editing()
	case ScreenSync:
		return a.syncScreen.Syncing()
	}
	return false
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.capturesKeys() {
			if model, cmd, handled := a.handleGlobalKey(msg); handled {
				return model, cmd
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var cmds []tea.Cmd
		var m tea.Model
		var cmd tea.Cmd
		m, cmd = a.plan.Update(msg)
		a.plan = m.(PlanModel)
		cmds = append(cmds, cmd)
		if a.screen == ScreenActivityDetail {
			m, cmd = a.detail.Update(msg)
			a.detail = m.(ActivityDetailModel)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case OpenActivityDetailMsg:
		a.screen = ScreenActivityDetail
		a.detail = NewActivityDetailModel(a.services.Query, a.services.Paces, a.units, msg.ActivityID, a.width, a.height)
		return a, a.detail.Init()

	case SyncCompleteMsg:
		// Stored runs changed; reload the screens that show them
		return a, tea.Batch(a.dashboard.Init(), a.activities.Init())

	case syncStatusMsg, syncProgressMsg, SyncDoneMsg:
		m, cmd := a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
		return a, cmd

	case planLoadedMsg, planGeneratedMsg:
		m, cmd := a.plan.Update(msg)
		a.plan = m.(PlanModel)
		return a, cmd

	case dashboardDataMsg:
		m, cmd := a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
		return a, cmd

	case activitiesLoadedMsg:
		m, cmd := a.activities.Update(msg)
		a.activities = m.(ActivitiesModel)
		return a, cmd

	case pacesLoadedMsg:
		m, cmd := a.paces.Update(msg)
		a.paces = m.(PacesModel)
		if msg.saved {
			// New zones change the runs list's zone column
			return a, tea.Batch(cmd, a.activities.Init())
		}
		return a, cmd

	case activityDetailLoadedMsg:
		m, cmd := a.detail.Update(msg)
		a.detail = m.(ActivityDetailModel)
		return a, cmd

	case spinner.TickMsg:
		// Each spinner ignores ticks carrying another spinner's ID
		var m tea.Model
		var syncCmd, planCmd tea.Cmd
		m, syncCmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
		m, planCmd = a.plan.Update(msg)
		a.plan = m.(PlanModel)
		return a, tea.Batch(syncCmd, planCmd)
	}

	return a, a.updateScreen(msg)
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return a, tea.Quit, true
	case "1":
		a.screen = ScreenDashboard
		return a, a.dashboard.Init(), true
	case "2":
		a.screen = ScreenActivities
		return a, a.activities.Init(), true
	case "3":
		a.screen = ScreenPaces
		return a, a.paces.Init(), true
	case "4":
		a.screen = ScreenPlan
		return a, a.plan.Init(), true
	case "5", "s":
		if a.screen != ScreenSync {
			a.screen = ScreenSync
			return a, a.syncScreen.Init(), true
		}
		// Let 's' fall through to sync screen when already there
	case "?":
		if a.screen != ScreenHelp {
			a.prevScreen = a.screen
			a.screen = ScreenHelp
		}
		return a, nil, true
	case "esc":
		switch a.screen {
		case ScreenHelp:
			a.screen = a.prevScreen
			return a, nil, true
		case ScreenActivityDetail:
			a.screen = ScreenActivities
			return a, nil, true
		}
	}
	return a, nil, false
}

func (a *App) updateScreen(msg tea.Msg) tea.Cmd {
	var m tea.Model
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenActivities:
		m, cmd = a.activities.Update(msg)
		a.activities = m.(ActivitiesModel)
	case ScreenActivityDetail:
		m, cmd = a.detail.Update(msg)
		a.detail = m.(ActivityDetailModel)
	case ScreenPaces:
		m, cmd = a.paces.Update(msg)
		a.paces = m.(PacesModel)
	case ScreenPlan:
		m, cmd = a.plan.Update(msg)
		a.plan = m.(PlanModel)
	case ScreenSync:
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}
	return cmd
}

// View renders the app
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenActivityDetail:
		content = a.detail.View()
	case ScreenPaces:
		content = a.paces.View()
	case ScreenPlan:
		content = a.plan.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), a.renderNav(), content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("runcoach")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Runs", ScreenActivities},
		{"3", "Paces", ScreenPaces},
		{"4", "Plan", ScreenPlan},
		{"5", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	active := a.screen
	if active == ScreenActivityDetail {
		active = ScreenActivities
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if active == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}
