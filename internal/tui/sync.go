package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/service"
	"runcoach/internal/store"
)

// SyncModel is the sync screen model
type SyncModel struct {
	connector *service.StravaConnector // nil when Strava credentials are not configured
	spinner   spinner.Model

	status    service.ConnectionStatus
	lastSync  time.Time
	rateShort int
	rateDaily int

	syncing  bool
	progress service.SyncProgress
	updates  chan service.SyncProgress
	cancel   context.CancelFunc

	result *service.SyncResult
	err    error
	done   bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(connector *service.StravaConnector) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return SyncModel{
		connector: connector,
		spinner:   s,
	}
}

// Syncing reports whether a sync is in flight
func (m SyncModel) Syncing() bool {
	return m.syncing
}

// Init checks the Strava connection
func (m SyncModel) Init() tea.Cmd {
	return m.checkStatus
}

type syncStatusMsg struct {
	status    service.ConnectionStatus
	lastSync  time.Time
	rateShort int
	rateDaily int
	err       error
}

// syncProgressMsg carries one progress update from a running sync
type syncProgressMsg service.SyncProgress

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

// SyncCompleteMsg tells the app that stored runs changed
type SyncCompleteMsg struct{}

func (m SyncModel) checkStatus() tea.Msg {
	if m.connector == nil {
		return syncStatusMsg{}
	}

	status, err := m.connector.Status()
	if err != nil {
		return syncStatusMsg{err: err}
	}
	if !status.Connected {
		return syncStatusMsg{}
	}

	msg := syncStatusMsg{status: status}
	svc, err := m.connector.Sync()
	if errors.Is(err, store.ErrNoAuth) {
		return syncStatusMsg{}
	}
	if err != nil {
		return syncStatusMsg{err: err}
	}
	msg.lastSync = svc.LastSync()
	if client, err := m.connector.Client(); err == nil {
		msg.rateShort, msg.rateDaily = client.RateLimitStatus()
	}
	return msg
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncStatusMsg:
		m.status = msg.status
		m.lastSync = msg.lastSync
		m.rateShort, m.rateDaily = msg.rateShort, msg.rateDaily
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case syncProgressMsg:
		m.progress = service.SyncProgress(msg)
		return m, waitForProgress(m.updates)

	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		m.cancel = nil
		if msg.Err != nil {
			return m, m.checkStatus
		}
		return m, tea.Batch(m.checkStatus, func() tea.Msg { return SyncCompleteMsg{} })

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "s":
			if !m.syncing && m.status.Connected {
				return m.start()
			}
		case "esc":
			if m.syncing && m.cancel != nil {
				m.cancel()
			}
		}
	}
	return m, nil
}

func (m SyncModel) start() (tea.Model, tea.Cmd) {
	svc, err := m.connector.Sync()
	if err != nil {
		m.err = err
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan service.SyncProgress, 8)

	m.syncing = true
	m.done = false
	m.err = nil
	m.result = nil
	m.progress = service.SyncProgress{}
	m.updates = updates
	m.cancel = cancel

	run := func() tea.Msg {
		defer cancel()
		result, err := svc.SyncAll(ctx, updates)
		return SyncDoneMsg{Result: result, Err: err}
	}

	return m, tea.Batch(m.spinner.Tick, run, waitForProgress(updates))
}

// waitForProgress reads the next update; nil once the sync closes the channel
func waitForProgress(updates <-chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-updates
		if !ok {
			return nil
		}
		return syncProgressMsg(p)
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	switch {
	case m.connector == nil:
		sections = append(sections, warningStyle.Render("\n  Strava credentials are missing from config.json."))
	case !m.status.Connected && !m.syncing:
		sections = append(sections,
			warningStyle.Render("\n  Strava is not connected."),
			mutedStyle.Render("  Run 'runcoach connect' and approve access in your browser."))
	case m.syncing:
		sections = append(sections, m.renderProgress())
	default:
		if m.done {
			sections = append(sections, m.renderSummary())
		}
		sections = append(sections, m.renderStartPrompt())
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	lines := []string{
		"",
		"  Fetches every run newer than the latest one stored.",
		"  Other activity types are skipped.",
		"",
	}

	if m.lastSync.IsZero() {
		lines = append(lines, mutedStyle.Render("  Never synced"))
	} else {
		lines = append(lines, mutedStyle.Render("  Last synced "+m.lastSync.Local().Format("Jan 02 15:04")))
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  API requests left: %d (15 min), %d (daily)", m.rateShort, m.rateDaily)))
	if m.status.NeedsRefresh {
		lines = append(lines, mutedStyle.Render("  Access token expired, it is refreshed on the next request"))
	} else if !m.status.TokenExpiry.IsZero() {
		lines = append(lines, mutedStyle.Render("  Access token valid until "+m.status.TokenExpiry.Local().Format("15:04")))
	}
	lines = append(lines, "", statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	lines := []string{
		"",
		"  " + m.spinner.View() + " Syncing with Strava...",
		"",
		fmt.Sprintf("  Activities fetched: %d", m.progress.Fetched),
		fmt.Sprintf("  Runs stored:        %d", m.progress.Stored),
	}
	if m.progress.LastTitle != "" {
		lines = append(lines, mutedStyle.Render("  Latest: "+truncateName(m.progress.LastTitle, 40)))
	}
	lines = append(lines, "", statusStyle.Render("  esc: cancel"))
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	r := m.result
	lines := []string{""}

	if m.err == nil {
		lines = append(lines, successStyle.Render("  Sync complete!"))
	}
	if r.RunsStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d runs synced", r.RunsStored)))
	} else {
		lines = append(lines, statusStyle.Render("  No new runs"))
	}
	if r.Skipped > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %d other activities skipped", r.Skipped)))
	}
	if errs := r.Errors(); len(errs) > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d runs could not be saved", len(errs))))
	}

	return strings.Join(lines, "\n")
}
