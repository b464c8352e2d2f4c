package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/keys"
	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/schedule"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/internal/theme"
)

// LoadedMsg carries the dashboard data: the next pill, today's pills,
// and any timing conflicts for today.
type LoadedMsg struct {
	Next      *schedule.NextDose
	Today     []schedule.NextDose
	Conflicts []schedule.Conflict
	MedNames  map[string]string
}

// DoseTakenMsg is sent after a dose was successfully marked taken.
type DoseTakenMsg struct {
	Event model.DoseEvent
}

// DoseSkippedMsg is sent after a dose was recorded as skipped.
type DoseSkippedMsg struct {
	Event model.DoseEvent
}

// ErrorMsg carries a failed mutating operation to the surface.
type ErrorMsg struct {
	Err error
}

// Model is the next-pill dashboard view.
type Model struct {
	planner  *schedule.Planner
	store    store.Store
	keys     *keys.KeyMap
	logger   *zap.Logger
	next     *schedule.NextDose
	today    []schedule.NextDose
	conflict []schedule.Conflict
	medNames map[string]string
	cursor   int
	errText  string
	width    int
	height   int
}

// New creates a dashboard model.
func New(p *schedule.Planner, s store.Store, k *keys.KeyMap, logger *zap.Logger, width, height int) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		planner:  p,
		store:    s,
		keys:     k,
		logger:   logger,
		medNames: map[string]string{},
		width:    width,
		height:   height,
	}
}

// Init loads the dashboard data.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that recomputes the dashboard. Read failures
// degrade to an empty dashboard so the surface stays responsive; the
// cause is logged.
func (m Model) Load() tea.Cmd {
	p := m.planner
	s := m.store
	logger := m.logger
	return func() tea.Msg {
		ctx := context.Background()

		msg := LoadedMsg{MedNames: map[string]string{}}

		next, err := p.NextPill(ctx)
		if err != nil {
			logger.Error("loading next pill failed", zap.Error(err))
			return msg
		}
		msg.Next = next

		msg.Today, err = p.TodaysPills(ctx)
		if err != nil {
			logger.Error("loading today's pills failed", zap.Error(err))
			return msg
		}

		_, msg.Conflicts, err = p.ScheduleForDay(ctx, time.Now())
		if err != nil {
			logger.Error("loading schedule conflicts failed", zap.Error(err))
		}

		meds, err := s.GetMedications(ctx)
		if err != nil {
			logger.Error("loading medications failed", zap.Error(err))
			return msg
		}
		for _, med := range meds {
			msg.MedNames[med.ID] = med.Name
		}
		return msg
	}
}

// markTaken returns a command that records the selected dose as taken.
func (m Model) markTaken(regimenID string) tea.Cmd {
	p := m.planner
	return func() tea.Msg {
		event, err := p.MarkTaken(context.Background(), regimenID, time.Time{})
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return DoseTakenMsg{Event: event}
	}
}

// markSkipped returns a command that records the selected dose as
// skipped without advancing the regimen.
func (m Model) markSkipped(regimenID string) tea.Cmd {
	p := m.planner
	return func() tea.Msg {
		event, err := p.MarkSkipped(context.Background(), regimenID)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return DoseSkippedMsg{Event: event}
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the dashboard view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.next = msg.Next
		m.today = msg.Today
		m.conflict = msg.Conflicts
		m.medNames = msg.MedNames
		m.errText = ""
		if m.cursor >= len(m.today) {
			m.cursor = 0
		}
		return m, nil

	case DoseTakenMsg, DoseSkippedMsg:
		return m, m.Load()

	case ErrorMsg:
		m.errText = msg.Err.Error()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.today)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Take):
			if target := m.selectedRegimen(); target != "" {
				return m, m.markTaken(target)
			}
		case key.Matches(msg, m.keys.Skip):
			if target := m.selectedRegimen(); target != "" {
				return m, m.markSkipped(target)
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		}
	}
	return m, nil
}

// selectedRegimen returns the regimen under the cursor, preferring the
// next pill when today's list is empty.
func (m Model) selectedRegimen() string {
	if len(m.today) > 0 && m.cursor < len(m.today) {
		return m.today[m.cursor].Regimen.ID
	}
	if m.next != nil {
		return m.next.Regimen.ID
	}
	return ""
}

// View renders the dashboard.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	var sections []string

	sections = append(sections, title.Render("Next pill"))
	if m.next == nil {
		sections = append(sections, theme.HelpStyle.Render("  No active regimens. Press 2 to add a medication."))
	} else {
		sections = append(sections, "  "+m.renderDose(*m.next, true))
	}

	sections = append(sections, "", title.Render(fmt.Sprintf("Today (%d)", len(m.today))))
	if len(m.today) == 0 {
		sections = append(sections, theme.HelpStyle.Render("  Nothing more due today."))
	}
	for i, d := range m.today {
		line := "  " + m.renderDose(d, false)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(m.renderDose(d, false))
		}
		sections = append(sections, line)
	}

	if len(m.conflict) > 0 {
		sections = append(sections, "", title.Render("Conflicts"))
		for _, c := range m.conflict {
			sections = append(sections,
				"  "+theme.SeverityStyle(c.Severity).Render(c.Severity)+" "+c.Message)
		}
	}

	if m.errText != "" {
		sections = append(sections, "", theme.OverdueStyle.Render(m.errText))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDose formats one next-dose line.
func (m Model) renderDose(d schedule.NextDose, detailed bool) string {
	name := m.medNames[d.Regimen.MedicationID]
	if name == "" {
		name = d.Regimen.MedicationID
	}

	when := d.DueAt.Format("15:04")
	line := fmt.Sprintf("%s  %s %s", when, name, d.Regimen.DoseAmount)

	if d.Overdue {
		line = theme.OverdueStyle.Render(line + fmt.Sprintf("  overdue %dm", d.OverdueMinutes))
	} else if time.Until(d.DueAt) < time.Hour {
		line = theme.DueSoonStyle.Render(line)
	}

	if !d.CanTakeNow {
		line += theme.HelpStyle.Render("  (too soon)")
	}
	if detailed && d.Reason != "" {
		line += theme.HelpStyle.Render("  " + d.Reason)
	}
	return line
}
