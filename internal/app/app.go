package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/keys"
	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/notify"
	"github.com/nhle/pillbox/internal/schedule"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/internal/ui"
	"github.com/nhle/pillbox/internal/ui/dashboard"
	"github.com/nhle/pillbox/internal/ui/medform"
	"github.com/nhle/pillbox/internal/ui/medlist"
	"github.com/nhle/pillbox/internal/ui/settings"
	"github.com/nhle/pillbox/internal/ui/weekview"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewMeds
	ViewWeek
	ViewSettings
	ViewMedCreate
	ViewMedEdit
)

var tabTitles = []string{"1 Dashboard", "2 Medications", "3 Week", "4 Settings"}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the persistence layer and the reminder dispatcher.
type Model struct {
	currentView  ViewState
	layout       ui.Layout
	store        store.Store
	planner      *schedule.Planner
	dispatcher   *notify.Dispatcher
	keys         *keys.KeyMap
	logger       *zap.Logger
	defaultPrefs model.UserPrefs

	dashboard dashboard.Model
	medList   medlist.Model
	medForm   medform.Model
	weekView  weekview.Model
	settings  settings.Model

	helpView  help.Model
	showHelp  bool
	ready     bool
	banner    string
	lastError string
}

// New creates the root application model.
func New(
	s store.Store,
	planner *schedule.Planner,
	dispatcher *notify.Dispatcher,
	defaultPrefs model.UserPrefs,
	logger *zap.Logger,
) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	km := keys.DefaultKeyMap()

	return Model{
		currentView:  ViewDashboard,
		store:        s,
		planner:      planner,
		dispatcher:   dispatcher,
		keys:         km,
		logger:       logger,
		defaultPrefs: defaultPrefs,
		dashboard:    dashboard.New(planner, s, km, logger, 80, 24),
		medList:      medlist.New(s, km, logger, 80, 24),
		medForm:      medform.New(80, 24),
		weekView:     weekview.New(planner, s, km, logger, 80, 24),
		settings:     settings.New(s, defaultPrefs, logger, 80, 24),
		helpView:     help.New(),
	}
}

// Init loads the dashboard and starts the reminder delivery loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.dashboard.Init(),
		m.dispatcher.Start(),
	)
}

// activeTab maps the current view to its tab index. The medication form
// belongs to the medications tab.
func (m Model) activeTab() int {
	switch m.currentView {
	case ViewMeds, ViewMedCreate, ViewMedEdit:
		return 1
	case ViewWeek:
		return 2
	case ViewSettings:
		return 3
	default:
		return 0
	}
}

// switchTab activates the view for the given tab index, initializing it
// on entry.
func (m *Model) switchTab(tab int) tea.Cmd {
	switch tab {
	case 1:
		m.currentView = ViewMeds
		return m.medList.Load()
	case 2:
		m.currentView = ViewWeek
		return m.weekView.Load()
	case 3:
		m.currentView = ViewSettings
		return m.settings.Load()
	default:
		m.currentView = ViewDashboard
		return m.dashboard.Load()
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.dashboard.SetSize(w, h)
		m.medList.SetSize(w, h)
		m.medForm.SetSize(w, h)
		m.weekView.SetSize(w, h)
		m.settings.SetSize(w, h)
		m.helpView.Width = w
		// Forward to the active view so huh forms can calculate layout.
		return m.updateActiveView(msg)

	case notify.DeliveryMsg:
		m.banner = msg.Request.Title
		if msg.Request.Body != "" {
			m.banner += ": " + msg.Request.Body
		}
		// Re-subscribe and recompute the dashboard: a fired reminder
		// usually means a dose just came due.
		return m, tea.Batch(m.dispatcher.WaitForNext(), m.dashboard.Load())

	// Dashboard data can arrive while another tab is active; route it
	// to its owner rather than the active view.
	case dashboard.LoadedMsg, dashboard.DoseTakenMsg, dashboard.DoseSkippedMsg, dashboard.ErrorMsg:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		if taken, ok := msg.(dashboard.DoseTakenMsg); ok && taken.Event.TakenAt != nil {
			m.banner = fmt.Sprintf("Dose recorded at %s", taken.Event.TakenAt.Format("15:04"))
		}
		if _, ok := msg.(dashboard.DoseSkippedMsg); ok {
			m.banner = "Dose skipped"
		}
		return m, cmd

	case medlist.LoadedMsg, medlist.DeletedMsg, medlist.ErrorMsg:
		var cmd tea.Cmd
		m.medList, cmd = m.medList.Update(msg)
		if _, ok := msg.(medlist.DeletedMsg); ok {
			return m, tea.Batch(cmd, m.dashboard.Load())
		}
		return m, cmd

	case weekview.LoadedMsg, weekview.ErrorMsg:
		var cmd tea.Cmd
		m.weekView, cmd = m.weekView.Update(msg)
		return m, cmd

	case settings.PrefsLoadedMsg, settings.ErrorMsg:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return m, cmd

	case settings.PrefsSavedMsg:
		// Meal times and windows feed the schedule; recompute.
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return m, tea.Batch(cmd, m.dashboard.Load())

	case medform.MedicationCreatedMsg:
		m.currentView = ViewMeds
		return m, m.createMedication(msg)

	case medform.MedicationUpdatedMsg:
		m.currentView = ViewMeds
		return m, m.updateMedication(msg)

	case medform.FormCancelMsg:
		m.currentView = ViewMeds
		return m, nil

	case medSavedMsg:
		m.lastError = ""
		m.banner = msg.summary
		return m, tea.Batch(m.medList.Load(), m.dashboard.Load())

	case mealLoggedMsg:
		m.banner = fmt.Sprintf("Logged %s at %s", msg.event.MealType, msg.event.OccurredAt.Format("15:04"))
		return m, m.dashboard.Load()

	case opFailedMsg:
		m.lastError = msg.err.Error()
		m.logger.Error("operation failed", zap.Error(msg.err))
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active
// view. Form views only honor quit so typing is not intercepted.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.dispatcher.Stop()
		return tea.Quit, true
	}

	inForm := m.currentView == ViewMedCreate || m.currentView == ViewMedEdit || m.currentView == ViewSettings
	if inForm {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.dispatcher.Stop()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.helpView.ShowAll = m.showHelp
		return nil, true

	case key.Matches(msg, m.keys.TabDash):
		return m.switchTab(0), true
	case key.Matches(msg, m.keys.TabMeds):
		return m.switchTab(1), true
	case key.Matches(msg, m.keys.TabSchedule):
		return m.switchTab(2), true
	case key.Matches(msg, m.keys.TabSettings):
		return m.switchTab(3), true
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab((m.activeTab() + 1) % len(tabTitles)), true

	case key.Matches(msg, m.keys.New):
		if m.currentView == ViewMeds {
			m.currentView = ViewMedCreate
			return m.medForm.StartCreate(), true
		}

	case key.Matches(msg, m.keys.Edit):
		if m.currentView == ViewMeds {
			if med := m.medList.Selected(); med != nil {
				m.currentView = ViewMedEdit
				return m.medForm.StartEdit(*med), true
			}
		}

	case key.Matches(msg, m.keys.LogMeal):
		return m.logMealNow(), true
	}

	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewMeds:
		m.medList, cmd = m.medList.Update(msg)
	case ViewWeek:
		m.weekView, cmd = m.weekView.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	case ViewMedCreate, ViewMedEdit:
		m.medForm, cmd = m.medForm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Pillbox", m.reminderStatus())
	tabBar := m.layout.RenderTabBar(tabTitles, m.activeTab())
	content := m.renderContent()
	if m.showHelp {
		content += "\n" + m.helpView.View(m.keys)
	}
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, tabBar, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboard.View()
	case ViewMeds:
		return m.medList.View()
	case ViewWeek:
		return m.weekView.View()
	case ViewSettings:
		return m.settings.View()
	case ViewMedCreate, ViewMedEdit:
		return m.medForm.View()
	default:
		return ""
	}
}

// reminderStatus summarizes pending reminders for the header.
func (m Model) reminderStatus() string {
	n := len(m.dispatcher.Pending())
	if n == 0 {
		return "no reminders queued"
	}
	return fmt.Sprintf("%d reminders queued", n)
}

// statusLine returns the status bar content: errors first, then the
// last notification banner, then key hints for the active view.
func (m Model) statusLine() string {
	if m.lastError != "" {
		return m.lastError
	}
	if m.banner != "" {
		return m.banner
	}

	switch m.currentView {
	case ViewMeds:
		return "n new | e edit | d delete | / filter | 1-4 tabs | q quit"
	case ViewWeek:
		return "h/l day | r refresh | 1-4 tabs | q quit"
	case ViewSettings:
		return "enter next | esc discard | ctrl+c quit"
	case ViewMedCreate, ViewMedEdit:
		return "enter next | esc cancel | ctrl+c quit"
	default:
		return "x take | s skip | j/k move | m log meal | r refresh | ? help | q quit"
	}
}
