package settings

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/internal/theme"
)

// PrefsLoadedMsg carries the settings record into the form.
type PrefsLoadedMsg struct {
	Prefs model.UserPrefs
}

// PrefsSavedMsg is dispatched after the settings were persisted.
type PrefsSavedMsg struct {
	Prefs model.UserPrefs
}

// ErrorMsg carries a failed store operation to the surface.
type ErrorMsg struct {
	Err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	sleepWindow string
	workHours   string
	notifyStyle string
	tzPolicy    string
	breakfast   string
	lunch       string
	dinner      string
	snack       string
}

// Model is the settings view: a form over the single preferences record.
type Model struct {
	store    store.Store
	defaults model.UserPrefs
	logger   *zap.Logger
	form     *huh.Form
	fb       *formBindings
	prefs    model.UserPrefs
	saved    bool
	errText  string
	width    int
	height   int
}

// New creates a settings model. defaults seed the preferences row when
// none exists yet.
func New(s store.Store, defaults model.UserPrefs, logger *zap.Logger, width, height int) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		store:    s,
		defaults: defaults,
		logger:   logger,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init loads or creates the preferences record.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that reads the preferences, creating the row
// with defaults on first run.
func (m Model) Load() tea.Cmd {
	s := m.store
	defaults := m.defaults
	return func() tea.Msg {
		prefs, err := s.GetOrCreateUserPrefs(context.Background(), defaults)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return PrefsLoadedMsg{Prefs: prefs}
	}
}

// save returns a command that persists the edited preferences.
func (m Model) save(prefs model.UserPrefs) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.UpdateUserPrefs(context.Background(), prefs); err != nil {
			return ErrorMsg{Err: err}
		}
		return PrefsSavedMsg{Prefs: prefs}
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PrefsLoadedMsg:
		m.prefs = msg.Prefs
		m.saved = false
		m.errText = ""
		m.fb.sleepWindow = msg.Prefs.SleepWindow.String()
		m.fb.workHours = msg.Prefs.WorkHours.String()
		m.fb.notifyStyle = string(msg.Prefs.NotificationStyle)
		m.fb.tzPolicy = string(msg.Prefs.TimezonePolicy)
		m.fb.breakfast = msg.Prefs.BreakfastTime.String()
		m.fb.lunch = msg.Prefs.LunchTime.String()
		m.fb.dinner = msg.Prefs.DinnerTime.String()
		m.fb.snack = msg.Prefs.SnackTime.String()
		m.form = m.buildForm()
		return m, m.form.Init()

	case PrefsSavedMsg:
		m.prefs = msg.Prefs
		m.saved = true
		m.form = nil
		return m, nil

	case ErrorMsg:
		m.errText = msg.Err.Error()
		m.logger.Error("settings operation failed", zap.Error(msg.Err))
		return m, nil
	}

	if m.form == nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			// Reopen the form after a save confirmation.
			return m, m.Load()
		}
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		prefs := m.applyBindings()
		m.form = nil
		return m, m.save(prefs)
	}
	if m.form.State == huh.StateAborted {
		// Discard edits and reload the stored values.
		return m, m.Load()
	}

	return m, cmd
}

// applyBindings copies the validated form values back onto the record.
func (m Model) applyBindings() model.UserPrefs {
	prefs := m.prefs

	if w, err := model.ParseTimeWindow(strings.TrimSpace(m.fb.sleepWindow)); err == nil {
		prefs.SleepWindow = w
	}
	if w, err := model.ParseTimeWindow(strings.TrimSpace(m.fb.workHours)); err == nil {
		prefs.WorkHours = w
	}
	prefs.NotificationStyle = model.NotificationStyle(m.fb.notifyStyle)
	prefs.TimezonePolicy = model.TimezonePolicy(m.fb.tzPolicy)

	if t, err := model.ParseClockTime(strings.TrimSpace(m.fb.breakfast)); err == nil {
		prefs.BreakfastTime = t
	}
	if t, err := model.ParseClockTime(strings.TrimSpace(m.fb.lunch)); err == nil {
		prefs.LunchTime = t
	}
	if t, err := model.ParseClockTime(strings.TrimSpace(m.fb.dinner)); err == nil {
		prefs.DinnerTime = t
	}
	if t, err := model.ParseClockTime(strings.TrimSpace(m.fb.snack)); err == nil {
		prefs.SnackTime = t
	}

	return prefs
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sleep window").
				Description("Reminders are held until you wake").
				Placeholder("HH:mm-HH:mm").
				Value(&m.fb.sleepWindow).
				Validate(validateWindow),
			huh.NewInput().
				Title("Work hours").
				Placeholder("HH:mm-HH:mm").
				Value(&m.fb.workHours).
				Validate(validateWindow),
			huh.NewSelect[string]().
				Title("Notification style").
				Options(
					huh.NewOption("Gentle", string(model.NotifyGentle)),
					huh.NewOption("Persistent", string(model.NotifyPersistent)),
					huh.NewOption("Urgent", string(model.NotifyUrgent)),
				).
				Value(&m.fb.notifyStyle),
			huh.NewSelect[string]().
				Title("When traveling").
				Options(
					huh.NewOption("Keep local clock times", string(model.TimezoneRelative)),
					huh.NewOption("Keep absolute times", string(model.TimezoneAbsolute)),
				).
				Value(&m.fb.tzPolicy),
		).Title("General"),
		huh.NewGroup(
			huh.NewInput().
				Title("Breakfast").
				Placeholder("HH:mm").
				Value(&m.fb.breakfast).
				Validate(validateClock),
			huh.NewInput().
				Title("Lunch").
				Placeholder("HH:mm").
				Value(&m.fb.lunch).
				Validate(validateClock),
			huh.NewInput().
				Title("Dinner").
				Placeholder("HH:mm").
				Value(&m.fb.dinner).
				Validate(validateClock),
			huh.NewInput().
				Title("Snack").
				Placeholder("HH:mm").
				Value(&m.fb.snack).
				Validate(validateClock),
		).Title("Usual meal times"),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// View renders the settings form or the save confirmation.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var content string
	switch {
	case m.errText != "":
		content = theme.OverdueStyle.Render(m.errText)
	case m.form != nil:
		content = titleStyle.Render("Settings") + "\n" + m.form.View()
	case m.saved:
		content = titleStyle.Render("Settings") + "\n" +
			theme.TakenStyle.Render("Saved.") + "\n" +
			theme.HelpStyle.Render("Press enter to edit again.")
	default:
		content = theme.HelpStyle.Render("Loading settings...")
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateWindow(s string) error {
	if _, err := model.ParseTimeWindow(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid window, use HH:mm-HH:mm")
	}
	return nil
}

func validateClock(s string) error {
	if _, err := model.ParseClockTime(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid time, use HH:mm")
	}
	return nil
}
