package medlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/keys"
	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/internal/theme"
)

// LoadedMsg carries the medication cabinet contents.
type LoadedMsg struct {
	Medications []model.Medication
	Inventories map[string]*model.Inventory
}

// DeletedMsg is sent after a medication and its regimens were removed.
type DeletedMsg struct {
	ID string
}

// ErrorMsg carries a failed store operation to the surface.
type ErrorMsg struct {
	Err error
}

// item adapts a medication for the bubbles list.
type item struct {
	med model.Medication
	inv *model.Inventory
}

func (i item) Title() string {
	title := i.med.Name
	if i.med.Strength != "" {
		title += " " + i.med.Strength
	}
	return title
}

func (i item) Description() string {
	parts := []string{i.med.Form}
	switch n := len(i.med.Regimens); n {
	case 0:
		parts = append(parts, "no regimens")
	case 1:
		parts = append(parts, "1 regimen")
	default:
		parts = append(parts, fmt.Sprintf("%d regimens", n))
	}
	if i.inv != nil {
		stock := fmt.Sprintf("%.0f left", i.inv.UnitsRemaining)
		if i.inv.IsLow() {
			stock = theme.OverdueStyle.Render(stock + " (low)")
		}
		parts = append(parts, stock)
	}
	return strings.Join(parts, " · ")
}

func (i item) FilterValue() string { return i.med.Name }

// Model is the medication cabinet view.
type Model struct {
	store   store.Store
	keys    *keys.KeyMap
	logger  *zap.Logger
	list    list.Model
	errText string
}

// New creates a medication list model.
func New(s store.Store, k *keys.KeyMap, logger *zap.Logger, width, height int) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(theme.ColorBlue).
		BorderForeground(theme.ColorBlue)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(theme.ColorBlue).
		BorderForeground(theme.ColorBlue)

	l := list.New(nil, delegate, width, height)
	l.Title = "Medications"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()

	return Model{
		store:  s,
		keys:   k,
		logger: logger,
		list:   l,
	}
}

// Init loads the medication list.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that reads all medications with their
// regimens and inventory.
func (m Model) Load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		meds, err := s.GetMedications(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}

		msg := LoadedMsg{Medications: meds, Inventories: map[string]*model.Inventory{}}
		for _, med := range meds {
			inv, err := s.GetInventoryForMedication(ctx, med.ID)
			if err != nil {
				return ErrorMsg{Err: err}
			}
			msg.Inventories[med.ID] = inv
		}
		return msg
	}
}

// deleteSelected returns a command that removes the selected medication.
// Regimens, constraints, and history go with it.
func (m Model) deleteSelected() tea.Cmd {
	sel, ok := m.list.SelectedItem().(item)
	if !ok {
		return nil
	}
	s := m.store
	id := sel.med.ID
	return func() tea.Msg {
		if err := s.DeleteMedication(context.Background(), id); err != nil {
			return ErrorMsg{Err: err}
		}
		return DeletedMsg{ID: id}
	}
}

// Selected returns the medication under the cursor, or nil.
func (m Model) Selected() *model.Medication {
	sel, ok := m.list.SelectedItem().(item)
	if !ok {
		return nil
	}
	med := sel.med
	return &med
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Update handles messages for the medication list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		items := make([]list.Item, len(msg.Medications))
		for i, med := range msg.Medications {
			items[i] = item{med: med, inv: msg.Inventories[med.ID]}
		}
		m.errText = ""
		return m, m.list.SetItems(items)

	case DeletedMsg:
		return m, m.Load()

	case ErrorMsg:
		m.errText = msg.Err.Error()
		m.logger.Error("medication list operation failed", zap.Error(msg.Err))
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Delete):
			return m, m.deleteSelected()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the medication list.
func (m Model) View() string {
	if m.errText != "" {
		return m.list.View() + "\n" + theme.OverdueStyle.Render(m.errText)
	}
	return m.list.View()
}
