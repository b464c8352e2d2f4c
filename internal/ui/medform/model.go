package medform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/theme"
)

// MedicationCreatedMsg is dispatched when a new medication is composed
// via the form, together with its first regimen, optional constraint,
// and optional starting inventory.
type MedicationCreatedMsg struct {
	Medication model.Medication
	Regimen    model.Regimen
	Constraint *model.Constraint
	Inventory  *model.Inventory
}

// MedicationUpdatedMsg is dispatched when an existing medication and its
// regimen are edited via the form.
type MedicationUpdatedMsg struct {
	Medication model.Medication
	Regimen    *model.Regimen
	Constraint *model.Constraint
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	// Medication
	name     string
	form     string
	strength string
	notes    string

	// Regimen
	doseAmount    string
	frequency     string
	daysOfWeek    []int
	intervalHours string
	timesPerDay   string
	startDate     string
	endDate       string
	prn           bool
	prnMax        string

	// Constraints
	withFood     bool
	noFoodBefore string
	afterFood    string
	earliest     string
	latest       string
	avoid        string
	spacingHours string

	// Inventory
	units     string
	threshold string
}

// Model is the Bubble Tea model for the medication create/edit wizard.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editMed  model.Medication
	width    int
	height   int
}

// New creates a new medication form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the wizard for adding a new medication.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editMed = model.Medication{}
	*m.fb = formBindings{
		form:      model.FormTablet,
		frequency: string(model.FrequencyDaily),
		startDate: time.Now().Format("2006-01-02"),
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the wizard with an existing medication and its
// first regimen, if any.
func (m *Model) StartEdit(med model.Medication) tea.Cmd {
	m.editMode = true
	m.editMed = med
	*m.fb = formBindings{
		name:     med.Name,
		form:     med.Form,
		strength: med.Strength,
		notes:    med.Notes,
	}
	if len(med.Regimens) > 0 {
		r := med.Regimens[0]
		m.fb.doseAmount = r.DoseAmount
		m.fb.frequency = string(r.Frequency)
		m.fb.daysOfWeek = append([]int(nil), r.DaysOfWeek...)
		if r.IntervalHours != nil {
			m.fb.intervalHours = strconv.Itoa(*r.IntervalHours)
		}
		if r.TimesPerDay != nil {
			m.fb.timesPerDay = strconv.Itoa(*r.TimesPerDay)
		}
		m.fb.startDate = r.StartDate.Format("2006-01-02")
		if r.EndDate != nil {
			m.fb.endDate = r.EndDate.Format("2006-01-02")
		}
		m.fb.prn = r.PRN
		if r.PRNMaxPerDay != nil {
			m.fb.prnMax = strconv.Itoa(*r.PRNMaxPerDay)
		}
		if len(r.Constraints) > 0 {
			c := r.Constraints[0]
			m.fb.withFood = c.WithFood
			if c.NoFoodBeforeMinutes != nil {
				m.fb.noFoodBefore = strconv.Itoa(*c.NoFoodBeforeMinutes)
			}
			if c.AfterFoodMinutes != nil {
				m.fb.afterFood = strconv.Itoa(*c.AfterFoodMinutes)
			}
			if c.EarliestTime != nil {
				m.fb.earliest = c.EarliestTime.String()
			}
			if c.LatestTime != nil {
				m.fb.latest = c.LatestTime.String()
			}
			if c.SpacingHours != nil {
				m.fb.spacingHours = strconv.Itoa(*c.SpacingHours)
			}
			m.fb.avoid = strings.Join(c.AvoidSubstances, ", ")
		}
	} else {
		m.fb.frequency = string(model.FrequencyDaily)
		m.fb.startDate = time.Now().Format("2006-01-02")
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the medication form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the medication wizard.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Medication"
	if m.editMode {
		titleText = "Edit Medication"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	groups := []*huh.Group{
		huh.NewGroup(m.medicationFields()...).Title("Medication"),
		huh.NewGroup(m.regimenFields()...).Title("Schedule"),
		huh.NewGroup(m.constraintFields()...).Title("Timing rules"),
	}
	if !m.editMode {
		groups = append(groups, huh.NewGroup(m.inventoryFields()...).Title("Supply"))
	}

	return huh.NewForm(groups...).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

func (m *Model) medicationFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Name").
			Placeholder("e.g. Metformin").
			Value(&m.fb.name).
			Validate(validateRequired("Name")),
		huh.NewSelect[string]().
			Title("Form").
			Options(
				huh.NewOption("Tablet", model.FormTablet),
				huh.NewOption("Capsule", model.FormCapsule),
				huh.NewOption("Liquid", model.FormLiquid),
				huh.NewOption("Injection", model.FormInjection),
				huh.NewOption("Topical", model.FormTopical),
				huh.NewOption("Inhaler", model.FormInhaler),
				huh.NewOption("Other", model.FormOther),
			).
			Value(&m.fb.form),
		huh.NewInput().
			Title("Strength").
			Placeholder("e.g. 500mg (optional)").
			Value(&m.fb.strength),
		huh.NewText().
			Title("Notes").
			Placeholder("Optional details...").
			Value(&m.fb.notes),
	}
}

func (m *Model) regimenFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Dose").
			Placeholder("e.g. 1 tablet").
			Value(&m.fb.doseAmount).
			Validate(validateRequired("Dose")),
		huh.NewSelect[string]().
			Title("Frequency").
			Options(
				huh.NewOption("Every day", string(model.FrequencyDaily)),
				huh.NewOption("Specific weekdays", string(model.FrequencyWeekly)),
				huh.NewOption("Every N hours", string(model.FrequencyInterval)),
				huh.NewOption("N times per day", string(model.FrequencyTimesPerDay)),
			).
			Value(&m.fb.frequency),
		huh.NewMultiSelect[int]().
			Title("Weekdays").
			Description("Only used for weekday schedules").
			Options(
				huh.NewOption("Monday", 1),
				huh.NewOption("Tuesday", 2),
				huh.NewOption("Wednesday", 3),
				huh.NewOption("Thursday", 4),
				huh.NewOption("Friday", 5),
				huh.NewOption("Saturday", 6),
				huh.NewOption("Sunday", 0),
			).
			Value(&m.fb.daysOfWeek),
		huh.NewInput().
			Title("Interval hours").
			Placeholder("e.g. 6 (only for every-N-hours)").
			Value(&m.fb.intervalHours).
			Validate(validateOptionalInt("Interval hours")),
		huh.NewInput().
			Title("Times per day").
			Placeholder("e.g. 3 (only for N-times-per-day)").
			Value(&m.fb.timesPerDay).
			Validate(validateOptionalInt("Times per day")),
		huh.NewInput().
			Title("Start date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.startDate).
			Validate(validateDate(true)),
		huh.NewInput().
			Title("End date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.endDate).
			Validate(validateDate(false)),
		huh.NewConfirm().
			Title("As needed (PRN)?").
			Value(&m.fb.prn),
		huh.NewInput().
			Title("Max doses per day").
			Placeholder("only for as-needed (optional)").
			Value(&m.fb.prnMax).
			Validate(validateOptionalInt("Max doses per day")),
	}
}

func (m *Model) constraintFields() []huh.Field {
	return []huh.Field{
		huh.NewConfirm().
			Title("Take with food?").
			Value(&m.fb.withFood),
		huh.NewInput().
			Title("No food for N minutes before").
			Placeholder("e.g. 30 (optional)").
			Value(&m.fb.noFoodBefore).
			Validate(validateOptionalInt("No-food window")),
		huh.NewInput().
			Title("Take N minutes after eating").
			Placeholder("e.g. 60 (optional)").
			Value(&m.fb.afterFood).
			Validate(validateOptionalInt("After-food delay")),
		huh.NewInput().
			Title("Earliest time").
			Placeholder("HH:mm (optional)").
			Value(&m.fb.earliest).
			Validate(validateOptionalClock),
		huh.NewInput().
			Title("Latest time").
			Placeholder("HH:mm (optional)").
			Value(&m.fb.latest).
			Validate(validateOptionalClock),
		huh.NewInput().
			Title("Hours between doses").
			Placeholder("e.g. 4 (optional)").
			Value(&m.fb.spacingHours).
			Validate(validateOptionalInt("Spacing")),
		huh.NewInput().
			Title("Avoid with").
			Placeholder("e.g. alcohol, grapefruit (optional)").
			Value(&m.fb.avoid),
	}
}

func (m *Model) inventoryFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Units on hand").
			Placeholder("e.g. 30 (optional)").
			Value(&m.fb.units).
			Validate(validateOptionalFloat("Units on hand")),
		huh.NewInput().
			Title("Low-stock warning at").
			Placeholder("e.g. 5 (optional)").
			Value(&m.fb.threshold).
			Validate(validateOptionalFloat("Low-stock threshold")),
	}
}

func (m Model) handleSubmit() tea.Cmd {
	med := model.Medication{
		Name:     strings.TrimSpace(m.fb.name),
		Form:     m.fb.form,
		Strength: strings.TrimSpace(m.fb.strength),
		Notes:    strings.TrimSpace(m.fb.notes),
	}

	regimen := model.Regimen{
		DoseAmount: strings.TrimSpace(m.fb.doseAmount),
		Frequency:  model.FrequencyKind(m.fb.frequency),
		PRN:        m.fb.prn,
	}
	if regimen.Frequency == model.FrequencyWeekly {
		regimen.DaysOfWeek = m.fb.daysOfWeek
	}
	regimen.IntervalHours = parseOptionalInt(m.fb.intervalHours)
	regimen.TimesPerDay = parseOptionalInt(m.fb.timesPerDay)
	if regimen.Frequency != model.FrequencyInterval {
		regimen.IntervalHours = nil
	}
	if regimen.Frequency != model.FrequencyTimesPerDay {
		regimen.TimesPerDay = nil
	}
	if m.fb.prn {
		regimen.PRNMaxPerDay = parseOptionalInt(m.fb.prnMax)
	}
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(m.fb.startDate)); err == nil {
		regimen.StartDate = t
	}
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(m.fb.endDate)); err == nil {
		regimen.EndDate = &t
	}

	constraint := m.buildConstraint()

	if m.editMode {
		med.ID = m.editMed.ID
		var reg *model.Regimen
		if len(m.editMed.Regimens) > 0 {
			regimen.ID = m.editMed.Regimens[0].ID
			regimen.MedicationID = m.editMed.ID
			reg = &regimen
		}
		return func() tea.Msg {
			return MedicationUpdatedMsg{Medication: med, Regimen: reg, Constraint: constraint}
		}
	}

	var inv *model.Inventory
	if units := parseOptionalFloat(m.fb.units); units != nil {
		inv = &model.Inventory{UnitsRemaining: *units}
		if th := parseOptionalFloat(m.fb.threshold); th != nil {
			inv.LowStockThreshold = *th
		}
	}

	return func() tea.Msg {
		return MedicationCreatedMsg{
			Medication: med,
			Regimen:    regimen,
			Constraint: constraint,
			Inventory:  inv,
		}
	}
}

// buildConstraint assembles the timing constraint, or nil when every
// field was left empty.
func (m Model) buildConstraint() *model.Constraint {
	c := model.Constraint{
		WithFood:            m.fb.withFood,
		NoFoodBeforeMinutes: parseOptionalInt(m.fb.noFoodBefore),
		AfterFoodMinutes:    parseOptionalInt(m.fb.afterFood),
		SpacingHours:        parseOptionalInt(m.fb.spacingHours),
	}
	if t, err := model.ParseClockTime(strings.TrimSpace(m.fb.earliest)); err == nil && m.fb.earliest != "" {
		c.EarliestTime = &t
	}
	if t, err := model.ParseClockTime(strings.TrimSpace(m.fb.latest)); err == nil && m.fb.latest != "" {
		c.LatestTime = &t
	}
	for _, s := range strings.Split(m.fb.avoid, ",") {
		if s = strings.TrimSpace(s); s != "" {
			c.AvoidSubstances = append(c.AvoidSubstances, s)
		}
	}

	empty := !c.WithFood &&
		c.NoFoodBeforeMinutes == nil &&
		c.AfterFoodMinutes == nil &&
		c.SpacingHours == nil &&
		c.EarliestTime == nil &&
		c.LatestTime == nil &&
		len(c.AvoidSubstances) == 0
	if empty {
		return nil
	}
	return &c
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

func parseOptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalInt(fieldName string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive number", fieldName)
		}
		return nil
	}
}

func validateOptionalFloat(fieldName string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%s must be a non-negative number", fieldName)
		}
		return nil
	}
}

func validateDate(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return fmt.Errorf("date is required")
			}
			return nil
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		return nil
	}
}

func validateOptionalClock(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := model.ParseClockTime(s); err != nil {
		return fmt.Errorf("invalid time, use HH:mm")
	}
	return nil
}
