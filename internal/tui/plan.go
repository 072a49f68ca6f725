package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/llm"
	"runcoach/internal/service"
	"runcoach/internal/store"
)

const planTimeout = 2 * time.Minute

const (
	planFieldRace = iota
	planFieldGoal
	planFieldDate
	planFieldRuns
)

var planFieldLabels = []string{"Race", "Goal time", "Race date", "Runs / week"}

// PlanModel shows the active training plan and drafts new ones
type PlanModel struct {
	planService *service.PlanService
	plan        *store.TrainingPlan
	viewport    viewport.Model
	spinner     spinner.Model
	ready       bool

	form       bool
	inputs     []textinput.Model
	focus      int
	generating bool

	loading bool
	err     error
}

// NewPlanModel creates a new plan model
func NewPlanModel(ps *service.PlanService, width, height int) PlanModel {
	placeholders := []string{"half", "1:45:00", time.Now().AddDate(0, 3, 0).Format("2006-01-02"), "4"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		in := textinput.New()
		in.Placeholder = p
		in.CharLimit = 16
		in.Width = 20
		inputs[i] = in
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	m := PlanModel{
		planService: ps,
		inputs:      inputs,
		spinner:     s,
		loading:     true,
	}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-8)
		m.ready = true
	}
	return m
}

// Editing reports whether the plan form has keyboard focus
func (m PlanModel) Editing() bool {
	return m.form
}

// Busy reports whether a plan is being generated
func (m PlanModel) Busy() bool {
	return m.generating
}

// Init loads the latest plan
func (m PlanModel) Init() tea.Cmd {
	return m.loadLatest
}

type planLoadedMsg struct {
	plan *store.TrainingPlan
	err  error
}

type planGeneratedMsg struct {
	err error
}

func (m PlanModel) loadLatest() tea.Msg {
	plan, err := m.planService.Latest()
	if errors.Is(err, store.ErrPlanNotFound) {
		return planLoadedMsg{}
	}
	return planLoadedMsg{plan: plan, err: err}
}

func (m PlanModel) generate() tea.Cmd {
	runs, _ := strconv.Atoi(strings.TrimSpace(m.inputs[planFieldRuns].Value()))
	in := service.PlanInput{
		RaceType:    strings.TrimSpace(m.inputs[planFieldRace].Value()),
		GoalTime:    strings.TrimSpace(m.inputs[planFieldGoal].Value()),
		RaceDate:    strings.TrimSpace(m.inputs[planFieldDate].Value()),
		RunsPerWeek: runs,
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
		defer cancel()
		_, err := m.planService.Generate(ctx, in)
		return planGeneratedMsg{err: err}
	}
}

// Update handles messages
func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.plan = msg.plan
		m.refreshContent()
		return m, nil

	case planGeneratedMsg:
		m.generating = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loading = true
		return m, m.loadLatest

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-8)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 8
		}
		m.refreshContent()

	case tea.KeyMsg:
		if m.form {
			return m.updateForm(msg)
		}
		switch msg.String() {
		case "n":
			if !m.generating {
				m.form = true
				m.err = nil
				m.focus = planFieldRace
				return m, m.inputs[m.focus].Focus()
			}
		case "r":
			m.loading = true
			return m, m.loadLatest
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m PlanModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputs[m.focus].Blur()
		m.form = false
		return m, nil
	case "tab", "down":
		return m.moveFocus(1)
	case "shift+tab", "up":
		return m.moveFocus(-1)
	case "enter":
		if m.focus < len(m.inputs)-1 {
			return m.moveFocus(1)
		}
		m.inputs[m.focus].Blur()
		m.form = false
		m.generating = true
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.generate())
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m PlanModel) moveFocus(step int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + step + len(m.inputs)) % len(m.inputs)
	return m, m.inputs[m.focus].Focus()
}

func (m *PlanModel) refreshContent() {
	if m.ready && m.plan != nil {
		m.viewport.SetContent(m.renderPlan())
	}
}

// View renders the plan screen
func (m PlanModel) View() string {
	sections := []string{cardTitleStyle.Render("Training Plan")}

	switch {
	case m.form:
		sections = append(sections, m.renderForm())
	case m.generating:
		sections = append(sections, "\n  "+m.spinner.View()+" Drafting your plan...")
	case m.loading:
		sections = append(sections, "\n  Loading plan...")
	case m.plan == nil:
		sections = append(sections, mutedStyle.Render("\n  No training plan yet. Press 'n' to create one."))
	case m.ready:
		sections = append(sections, m.viewport.View())
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render("\n  "+planErrorText(m.err)))
	}

	help := "  n: new plan  r: refresh  j/k: scroll"
	if m.form {
		help = "  tab: next field  enter: generate  esc: cancel"
	}
	sections = append(sections, statusStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlanModel) renderForm() string {
	lines := []string{""}
	for i, input := range m.inputs {
		style := inputLabelStyle
		if i == m.focus {
			style = inputFocusedLabelStyle
		}
		lines = append(lines, "  "+style.Render(planFieldLabels[i])+input.View())
	}
	lines = append(lines, "", mutedStyle.Render("  Recent runs and your stored race pace are sent along with the goal."))
	return strings.Join(lines, "\n")
}

func (m PlanModel) renderPlan() string {
	p := m.plan
	lines := []string{
		fmt.Sprintf("  %s in %s on %s, %d runs per week", p.RaceType, p.GoalTime, p.RaceDate, p.RunsPerWeek),
		RenderMetric("Weekly goal", fmt.Sprintf("%.0f km", p.WeeklyGoal)),
		mutedStyle.Render("  Created " + p.CreatedAt.Local().Format("Jan 02 2006 15:04")),
		"",
	}
	if p.Message != "" {
		lines = append(lines, sectionStyle.Render("Coach"), "  "+p.Message, "")
	}
	lines = append(lines, sectionStyle.Render("Plan"))
	for _, l := range strings.Split(p.Plan, "\n") {
		lines = append(lines, "  "+l)
	}
	return strings.Join(lines, "\n")
}

func planErrorText(err error) string {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return "No LLM API key configured. Set llm.api_key in config.json or OPENAI_API_KEY."
	case errors.Is(err, service.ErrInvalidPlanRequest):
		return err.Error()
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
