package weekview

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/keys"
	"github.com/nhle/pillbox/internal/schedule"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/internal/theme"
)

// DayPlan holds the generated schedule for one day of the week strip.
type DayPlan struct {
	Date      time.Time
	Doses     []schedule.Dose
	Conflicts []schedule.Conflict
}

// LoadedMsg carries a full week of day plans, starting at Days[0].
type LoadedMsg struct {
	Days     []DayPlan
	MedNames map[string]string
}

// ErrorMsg carries a failed schedule computation to the surface.
type ErrorMsg struct {
	Err error
}

// Model is the seven-day schedule view.
type Model struct {
	planner  *schedule.Planner
	store    store.Store
	keys     *keys.KeyMap
	logger   *zap.Logger
	days     []DayPlan
	medNames map[string]string
	selected int
	errText  string
	width    int
	height   int
}

// New creates a week view model.
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

// Init loads the week starting today.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that computes the schedule for the next seven
// days, today first.
func (m Model) Load() tea.Cmd {
	p := m.planner
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		start := time.Now()

		msg := LoadedMsg{MedNames: map[string]string{}}
		for i := 0; i < 7; i++ {
			day := start.AddDate(0, 0, i)
			doses, conflicts, err := p.ScheduleForDay(ctx, day)
			if err != nil {
				return ErrorMsg{Err: err}
			}
			msg.Days = append(msg.Days, DayPlan{Date: day, Doses: doses, Conflicts: conflicts})
		}

		meds, err := s.GetMedications(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		regimenMed := map[string]string{}
		for _, med := range meds {
			for _, r := range med.Regimens {
				regimenMed[r.ID] = med.Name
			}
		}
		msg.MedNames = regimenMed
		return msg
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the week view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.days = msg.Days
		m.medNames = msg.MedNames
		m.errText = ""
		if m.selected >= len(m.days) {
			m.selected = 0
		}
		return m, nil

	case ErrorMsg:
		m.errText = msg.Err.Error()
		m.logger.Error("week schedule computation failed", zap.Error(msg.Err))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.WeekLeft):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.WeekRight):
			if m.selected < len(m.days)-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		}
	}
	return m, nil
}

// View renders the week strip and the selected day's schedule.
func (m Model) View() string {
	if m.errText != "" {
		return theme.OverdueStyle.Render(m.errText)
	}
	if len(m.days) == 0 {
		return theme.HelpStyle.Render("Loading week...")
	}

	strip := make([]string, len(m.days))
	for i, d := range m.days {
		label := fmt.Sprintf("%s %d (%d)", d.Date.Format("Mon"), d.Date.Day(), len(d.Doses))
		if i == m.selected {
			strip[i] = theme.ActiveTabStyle.Render(label)
		} else {
			strip[i] = theme.TabStyle.Render(label)
		}
	}

	sections := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, strip...),
		"",
	}

	day := m.days[m.selected]
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, title.Render(day.Date.Format("Monday, Jan 2")))

	if len(day.Doses) == 0 {
		sections = append(sections, theme.HelpStyle.Render("  Nothing scheduled."))
	}
	for _, d := range day.Doses {
		name := m.medNames[d.RegimenID]
		if name == "" {
			name = d.RegimenID
		}
		line := fmt.Sprintf("  %s  %s %s", d.At.Format("15:04"), name, d.Amount)
		if d.Reason != "" {
			line += theme.HelpStyle.Render("  " + d.Reason)
		}
		sections = append(sections, line)
	}

	if len(day.Conflicts) > 0 {
		sections = append(sections, "", title.Render("Conflicts"))
		for _, c := range day.Conflicts {
			sections = append(sections,
				"  "+theme.SeverityStyle(c.Severity).Render(c.Severity)+" "+c.Message)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
