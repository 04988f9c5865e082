package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/enrichgrid/internal/app"
	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/evanschultz/enrichgrid/internal/grid"
)

// Service is the save and load path the model drives.
type Service interface {
	ListRecords(context.Context) ([]domain.Record, error)
	ListStats(context.Context) ([]domain.Stat, error)
	CreateRecord(context.Context, app.CreateRecordInput) (domain.Record, error)
	DeleteRecords(context.Context, []int) (int, error)
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeDetail
	modeActivityLog
	modeConfirmDelete
)

// creation-form field indexes in tab order.
const (
	formFieldAction = iota
	formFieldName
	formFieldIcon
	formFieldCount
)

// activity log limits used by modal rendering and retention.
const (
	activityLogMaxItems   = 200
	activityLogViewWindow = 14
)

// activityEntry describes one row of the activity log modal.
type activityEntry struct {
	At      time.Time
	Summary string
	Target  string
}

// Model represents model data used by this package.
type Model struct {
	svc  Service
	grid *grid.Controller

	ready  bool
	width  int
	height int
	err    error

	status string

	help    help.Model
	keys    keyMap
	spinner spinner.Model

	gridConfig GridConfig
	clipboard  ClipboardFunc
	markdown   *markdownRenderer

	mode   inputMode
	cursor int

	actionInput textinput.Model
	nameInput   textinput.Model
	formFocus   int

	pendingDelete []int
	confirmChoice int

	activityLog []activityEntry
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	records []domain.Record
	stats   []domain.Stat
	err     error
}

// recordSavedMsg carries the outcome of one creation-form save.
type recordSavedMsg struct {
	record domain.Record
	err    error
}

// recordsDeletedMsg carries the outcome of a bulk delete.
type recordsDeletedMsg struct {
	ids     []int
	deleted int
	err     error
}

// activityLogLoadedMsg carries persisted activity entries.
type activityLogLoadedMsg struct {
	entries []activityEntry
	err     error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		svc:         svc,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		spinner:     sp,
		gridConfig:  DefaultGridConfig(),
		clipboard:   defaultClipboard,
		markdown:    newMarkdownRenderer("dark"),
		actionInput: newFormInput("action: ", "what happened", 240),
		nameInput:   newFormInput("enrichment: ", "enrichment name", 120),
		activityLog: []activityEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.grid = grid.New(nil, nil, grid.Options{
		DefaultIcon: m.gridConfig.DefaultIcon,
		ViewMode:    m.gridConfig.ViewMode,
		SidebarOpen: m.gridConfig.SidebarOpen,
		AutoSave:    m.gridConfig.AutoSave,
	})
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.grid.ReplaceRecords(msg.records)
		m.grid.SetStats(msg.stats)
		m.clampCursor()
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case recordSavedMsg:
		return m.handleRecordSaved(msg)

	case recordsDeletedMsg:
		if msg.err != nil {
			m.status = "delete failed: " + msg.err.Error()
			return m, m.loadData
		}
		m.grid.RemoveRecords(msg.ids)
		if m.mode == modeDetail && !m.grid.DetailOpen() {
			m.mode = modeNone
		}
		m.clampCursor()
		m.status = fmt.Sprintf("deleted %d %s", msg.deleted, pluralRecords(msg.deleted))
		return m, nil

	case activityLogLoadedMsg:
		if msg.err != nil {
			if m.mode == modeActivityLog {
				m.status = "activity log unavailable: " + msg.err.Error()
			}
			return m, nil
		}
		m.activityLog = append([]activityEntry(nil), msg.entries...)
		if m.mode == modeActivityLog {
			m.status = "activity log"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.grid.Submitting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		if m.help.ShowAll {
			return m.handleHelpKey(msg)
		}
		if m.mode != modeNone {
			return m.handleModalKey(msg)
		}
		if m.grid.FormState() != grid.FormClosed {
			return m.handleFormKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		if m.grid.FormState() == grid.FormOpen {
			return m.updateFocusedInput(msg)
		}
		return m, nil
	}
}

// loadData loads records and stat cards from the service.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	records, err := m.svc.ListRecords(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	stats, err := m.svc.ListStats(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{records: records, stats: stats}
}

// loadActivityLog fetches persisted change events.
func (m Model) loadActivityLog() tea.Msg {
	events, err := m.svc.ListChangeEvents(context.Background(), activityLogMaxItems)
	if err != nil {
		return activityLogLoadedMsg{err: err}
	}
	return activityLogLoadedMsg{entries: mapChangeEventsToActivityEntries(events)}
}

// openActivityLog enters activity-log mode and triggers persisted activity fetch.
func (m *Model) openActivityLog() tea.Cmd {
	m.mode = modeActivityLog
	m.status = "activity log"
	return m.loadActivityLog
}

// mapChangeEventsToActivityEntries converts newest-first persisted events into modal rows.
func mapChangeEventsToActivityEntries(events []domain.ChangeEvent) []activityEntry {
	if len(events) == 0 {
		return []activityEntry{}
	}
	entries := make([]activityEntry, 0, len(events))
	for idx := len(events) - 1; idx >= 0; idx-- {
		entries = append(entries, mapChangeEventToActivityEntry(events[idx]))
	}
	if len(entries) > activityLogMaxItems {
		entries = append([]activityEntry(nil), entries[len(entries)-activityLogMaxItems:]...)
	}
	return entries
}

// mapChangeEventToActivityEntry derives a compact activity row from one persisted event.
func mapChangeEventToActivityEntry(event domain.ChangeEvent) activityEntry {
	summary := "create record"
	if event.Operation == domain.ChangeOperationDelete {
		summary = "delete record"
	}
	target := strings.TrimSpace(event.Summary)
	if target == "" {
		target = fmt.Sprintf("#%d", event.RecordID)
	}
	return activityEntry{
		At:      event.OccurredAt.UTC(),
		Summary: summary,
		Target:  target,
	}
}

// newFormInput constructs one creation-row input.
func newFormInput(prompt, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
		m.status = "help"
		return m, nil
	case msg.String() == "esc":
		if count := m.grid.ClearSelection(); count > 0 {
			m.status = fmt.Sprintf("cleared %d selected %s", count, pluralRecords(count))
			return m, nil
		}
		if m.grid.Banner() != "" {
			m.grid.DismissBanner()
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveDown):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.toggleSelect):
		m.toggleSelectionAt(m.cursor)
		return m, nil
	case key.Matches(msg, m.keys.openDetail), key.Matches(msg, m.keys.play):
		return m.openDetailAt(m.cursor)
	case key.Matches(msg, m.keys.newRecord):
		return m.openCreationForm()
	case key.Matches(msg, m.keys.copyAction):
		rec, ok := m.recordAt(m.cursor)
		if !ok {
			m.status = "no record selected"
			return m, nil
		}
		m.copyRecordAction(rec)
		return m, nil
	case key.Matches(msg, m.keys.deleteSelected):
		return m.confirmDeleteSelected()
	case key.Matches(msg, m.keys.activityLog):
		cmd := m.openActivityLog()
		return m, cmd
	case key.Matches(msg, m.keys.toggleView):
		m.status = "view: " + string(m.grid.ToggleViewMode())
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.toggleSidebar):
		m.status = "sidebar " + onOff(m.grid.ToggleSidebar())
		return m, nil
	case key.Matches(msg, m.keys.toggleAutoSave):
		m.status = "auto-save " + onOff(m.grid.ToggleAutoSave())
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.status = "search is not available yet"
		return m, nil
	case key.Matches(msg, m.keys.filter):
		m.status = "filters are not available yet"
		return m, nil
	case key.Matches(msg, m.keys.prevPage), key.Matches(msg, m.keys.nextPage):
		m.status = "pagination is not available yet"
		return m, nil
	default:
		return m, nil
	}
}

// handleHelpKey closes the help overlay on esc or ? and keeps quit working.
func (m Model) handleHelpKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case msg.String() == "esc", key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = false
		m.status = "ready"
	}
	return m, nil
}

// handleModalKey routes keys while an overlay owns input.
func (m Model) handleModalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeDetail:
		switch {
		case msg.String() == "esc", msg.String() == "q", key.Matches(msg, m.keys.openDetail):
			m.grid.CloseDetail()
			m.mode = modeNone
			m.status = "ready"
		case key.Matches(msg, m.keys.copyAction):
			if rec, ok := m.grid.SelectedRecord(); ok {
				m.copyRecordAction(rec)
			}
		}
		return m, nil

	case modeActivityLog:
		switch {
		case msg.String() == "esc", msg.String() == "q", key.Matches(msg, m.keys.activityLog):
			m.mode = modeNone
			m.status = "ready"
		}
		return m, nil

	case modeConfirmDelete:
		switch msg.String() {
		case "esc", "n":
			return m.cancelConfirm()
		case "h", "left", "l", "right", "tab":
			m.confirmChoice = 1 - m.confirmChoice
			return m, nil
		case "y":
			return m.applyConfirmedDelete()
		case "enter":
			if m.confirmChoice == 1 {
				return m.cancelConfirm()
			}
			return m.applyConfirmedDelete()
		}
		return m, nil
	}
	m.mode = modeNone
	return m, nil
}

// handleFormKey drives the inline creation row.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.grid.Submitting() {
		if msg.String() == "esc" {
			m.status = "save in progress"
		}
		return m, nil
	}

	switch {
	case msg.String() == "esc":
		return m.closeCreationForm("new record discarded")
	case key.Matches(msg, m.keys.submit):
		return m.submitCreationForm()
	case key.Matches(msg, m.keys.nextField):
		cmd := m.focusFormField(m.formFocus + 1)
		return m, cmd
	case key.Matches(msg, m.keys.prevField):
		cmd := m.focusFormField(m.formFocus - 1)
		return m, cmd
	}

	if m.formFocus == formFieldIcon {
		switch {
		case key.Matches(msg, m.keys.iconLeft):
			m.cycleDraftIcon(-1)
		case key.Matches(msg, m.keys.iconRight):
			m.cycleDraftIcon(1)
		default:
			if r := []rune(msg.String()); len(r) == 1 && r[0] >= '1' && r[0] <= '5' {
				icons := domain.Icons()
				m.setDraftIcon(icons[int(r[0]-'1')])
			}
		}
		return m, nil
	}
	return m.updateFocusedInput(msg)
}

// updateFocusedInput forwards msg to the focused text input and mirrors its
// value into the draft.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.formFocus {
	case formFieldAction:
		m.actionInput, cmd = m.actionInput.Update(msg)
		_ = m.grid.UpdateDraftAction(m.actionInput.Value())
	case formFieldName:
		m.nameInput, cmd = m.nameInput.Update(msg)
		_ = m.grid.UpdateDraftEnrichmentName(m.nameInput.Value())
	}
	return m, cmd
}

func (m Model) openCreationForm() (tea.Model, tea.Cmd) {
	if err := m.grid.OpenCreationForm(); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.actionInput.Reset()
	m.nameInput.Reset()
	m.status = "new record"
	cmd := m.focusFormField(formFieldAction)
	return m, cmd
}

func (m Model) closeCreationForm(status string) (tea.Model, tea.Cmd) {
	if err := m.grid.CloseCreationForm(); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.actionInput.Reset()
	m.nameInput.Reset()
	m.actionInput.Blur()
	m.nameInput.Blur()
	m.formFocus = formFieldAction
	m.status = status
	return m, nil
}

// focusFormField focuses one creation-row field, wrapping at either end.
func (m *Model) focusFormField(idx int) tea.Cmd {
	m.formFocus = wrapIndex(idx, 0, formFieldCount)
	m.actionInput.Blur()
	m.nameInput.Blur()
	switch m.formFocus {
	case formFieldAction:
		return m.actionInput.Focus()
	case formFieldName:
		return m.nameInput.Focus()
	default:
		return nil
	}
}

func (m *Model) cycleDraftIcon(delta int) {
	icons := domain.Icons()
	idx := domain.IconIndex(m.grid.Draft().Enrichment.Icon)
	m.setDraftIcon(icons[wrapIndex(idx, delta, len(icons))])
}

func (m *Model) setDraftIcon(icon domain.Icon) {
	if err := m.grid.UpdateDraftIcon(icon); err != nil {
		m.status = err.Error()
	}
}

// submitCreationForm starts one save. A second submit while the first is in
// flight is rejected by the controller.
func (m Model) submitCreationForm() (tea.Model, tea.Cmd) {
	draft, err := m.grid.BeginSubmit()
	switch {
	case errors.Is(err, grid.ErrSubmitInProgress):
		m.status = "save in progress"
		return m, nil
	case err != nil:
		if fields := domain.FieldErrors(err); len(fields) > 0 {
			m.status = "fix the highlighted fields"
			cmd := m.focusFormField(firstInvalidField(fields))
			return m, cmd
		}
		m.status = err.Error()
		return m, nil
	}
	m.actionInput.Blur()
	m.nameInput.Blur()
	m.status = "saving..."
	return m, tea.Batch(m.spinner.Tick, m.saveRecordCmd(draft))
}

func (m Model) saveRecordCmd(draft domain.Draft) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.svc.CreateRecord(context.Background(), app.CreateRecordInput{
			Action:     draft.Action,
			Enrichment: draft.Enrichment,
		})
		return recordSavedMsg{record: rec, err: err}
	}
}

func (m Model) handleRecordSaved(msg recordSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		_ = m.grid.FailSubmit(msg.err)
		m.status = "save failed"
		cmd := m.focusFormField(m.formFocus)
		return m, cmd
	}
	if err := m.grid.CompleteSubmit(msg.record); err != nil {
		m.status = "save out of sync: " + err.Error()
		_ = m.grid.FailSubmit(err)
		return m, m.loadData
	}
	m.actionInput.Reset()
	m.nameInput.Reset()
	m.formFocus = formFieldAction
	m.cursor = m.grid.Len() - 1
	m.status = fmt.Sprintf("saved record %d", msg.record.ID)
	m.activityLog = append(m.activityLog, activityEntry{
		At:      time.Now().UTC(),
		Summary: "create record",
		Target:  string(msg.record.Enrichment.Icon) + " " + msg.record.Enrichment.Name,
	})
	return m, nil
}

func firstInvalidField(fields map[domain.DraftField]string) int {
	switch {
	case fields[domain.DraftFieldAction] != "":
		return formFieldAction
	case fields[domain.DraftFieldEnrichmentName] != "":
		return formFieldName
	default:
		return formFieldIcon
	}
}

// openDetailAt opens the detail modal for the row at idx.
func (m Model) openDetailAt(idx int) (tea.Model, tea.Cmd) {
	rec, ok := m.recordAt(idx)
	if !ok {
		m.status = "no record selected"
		return m, nil
	}
	if err := m.grid.SelectRecord(rec.ID); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.cursor = idx
	m.mode = modeDetail
	m.status = fmt.Sprintf("record %d", rec.ID)
	return m, nil
}

// toggleSelectionAt flips the checkbox of the row at idx.
func (m *Model) toggleSelectionAt(idx int) {
	rec, ok := m.recordAt(idx)
	if !ok {
		m.status = "no record selected"
		return
	}
	checked := !m.grid.IsSelected(rec.ID)
	if err := m.grid.ToggleSelection(rec.ID, checked); err != nil {
		m.status = err.Error()
		return
	}
	count := m.grid.SelectionCount()
	if checked {
		m.status = fmt.Sprintf("selected record %d (%d total)", rec.ID, count)
	} else {
		m.status = fmt.Sprintf("unselected record %d (%d total)", rec.ID, count)
	}
}

func (m *Model) copyRecordAction(rec domain.Record) {
	if err := m.clipboard(rec.Action); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("copied action of record %d", rec.ID)
}

// confirmDeleteSelected deletes checked rows, asking first when configured.
func (m Model) confirmDeleteSelected() (tea.Model, tea.Cmd) {
	ids := m.grid.Selection()
	if len(ids) == 0 {
		m.status = "no records selected"
		return m, nil
	}
	if !m.gridConfig.ConfirmDelete {
		m.status = "deleting..."
		return m, m.deleteRecordsCmd(ids)
	}
	m.mode = modeConfirmDelete
	m.pendingDelete = ids
	m.confirmChoice = 1
	m.status = "confirm delete"
	return m, nil
}

func (m Model) cancelConfirm() (tea.Model, tea.Cmd) {
	m.mode = modeNone
	m.pendingDelete = nil
	m.confirmChoice = 0
	m.status = "cancelled"
	return m, nil
}

func (m Model) applyConfirmedDelete() (tea.Model, tea.Cmd) {
	ids := m.pendingDelete
	m.mode = modeNone
	m.pendingDelete = nil
	m.confirmChoice = 0
	m.status = "deleting..."
	return m, m.deleteRecordsCmd(ids)
}

func (m Model) deleteRecordsCmd(ids []int) tea.Cmd {
	ids = append([]int(nil), ids...)
	return func() tea.Msg {
		deleted, err := m.svc.DeleteRecords(context.Background(), ids)
		return recordsDeletedMsg{ids: ids, deleted: deleted, err: err}
	}
}

// handleMouseWheel moves the cursor.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.moveCursor(-1)
	case tea.MouseWheelDown:
		m.moveCursor(1)
	}
	return m, nil
}

// handleMouseClick moves the cursor to the clicked row. A click inside the
// checkbox column only toggles selection; the play button opens the detail.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	idx, hit, ok := m.rowAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	switch hit {
	case hitCheckbox:
		m.toggleSelectionAt(idx)
	case hitPlay:
		return m.openDetailAt(idx)
	default:
		m.cursor = idx
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if m.grid.Len() == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, m.grid.Len()-1)
}

func (m *Model) clampCursor() {
	m.cursor = clamp(m.cursor, 0, max(0, m.grid.Len()-1))
}

func (m Model) recordAt(idx int) (domain.Record, bool) {
	records := m.grid.Records()
	if idx < 0 || idx >= len(records) {
		return domain.Record{}, false
	}
	return records[idx], true
}

// wrapIndex wraps an index by delta for a bounded collection.
func wrapIndex(current int, delta int, total int) int {
	if total <= 0 {
		return 0
	}
	next := (current + delta) % total
	if next < 0 {
		next += total
	}
	return next
}

// windowBounds returns an inclusive-exclusive list window that keeps selected visible.
func windowBounds(total, selected, windowSize int) (int, int) {
	if total <= 0 || windowSize <= 0 {
		return 0, 0
	}
	if total <= windowSize {
		return 0, total
	}
	selected = clamp(selected, 0, total-1)
	start := max(0, selected-windowSize/2)
	end := start + windowSize
	if end > total {
		end = total
		start = max(0, end-windowSize)
	}
	return start, end
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func pluralRecords(n int) string {
	if n == 1 {
		return "record"
	}
	return "records"
}
