// Package grid holds the single state container behind the enrichment grid:
// records, row selection, the detail view and the creation-form state machine.
// It performs no I/O; callers run saves and report the outcome back.
package grid

import (
	"errors"
	"fmt"
	"slices"

	"github.com/evanschultz/enrichgrid/internal/domain"
)

var (
	ErrFormNotOpen        = errors.New("creation form is not open")
	ErrSubmitInProgress   = errors.New("submit already in progress")
	ErrNoSubmitInProgress = errors.New("no submit in progress")
	ErrRecordNotFound     = errors.New("record not found")
	ErrDuplicateID        = errors.New("duplicate record id")
)

// FormState is the creation-form lifecycle.
type FormState int

const (
	FormClosed FormState = iota
	FormOpen
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormClosed:
		return "closed"
	case FormOpen:
		return "open"
	case FormSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("FormState(%d)", int(s))
	}
}

// ViewMode selects the grid layout. It never changes the data shape.
type ViewMode string

const (
	ViewTable ViewMode = "table"
	ViewGrid  ViewMode = "grid"
)

// Options seeds the cosmetic flags.
type Options struct {
	DefaultIcon domain.Icon
	ViewMode    ViewMode
	SidebarOpen bool
	AutoSave    bool
}

// Controller owns all grid state. It is not safe for concurrent use; the
// program loop serializes every call.
type Controller struct {
	records   []domain.Record
	selection map[int]struct{}

	selected   domain.Record
	hasDetail  bool
	detailOpen bool

	form        FormState
	draft       domain.Draft
	defaultIcon domain.Icon
	fieldErrors map[domain.DraftField]string
	banner      string

	viewMode    ViewMode
	sidebarOpen bool
	autoSave    bool

	stats []domain.Stat
}

// New builds a controller over the initial payload.
func New(records []domain.Record, stats []domain.Stat, opts Options) *Controller {
	if domain.IconIndex(opts.DefaultIcon) < 0 {
		opts.DefaultIcon = domain.DefaultIcon
	}
	if opts.ViewMode != ViewGrid {
		opts.ViewMode = ViewTable
	}
	return &Controller{
		records:     slices.Clone(records),
		selection:   map[int]struct{}{},
		form:        FormClosed,
		draft:       domain.EmptyDraft(opts.DefaultIcon),
		defaultIcon: opts.DefaultIcon,
		fieldErrors: map[domain.DraftField]string{},
		viewMode:    opts.ViewMode,
		sidebarOpen: opts.SidebarOpen,
		autoSave:    opts.AutoSave,
		stats:       slices.Clone(stats),
	}
}

// Records returns the ordered working set.
func (c *Controller) Records() []domain.Record {
	return slices.Clone(c.records)
}

func (c *Controller) Len() int {
	return len(c.records)
}

// Record looks up one record by id.
func (c *Controller) Record(id int) (domain.Record, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Record{}, false
	}
	return c.records[idx], true
}

func (c *Controller) Stats() []domain.Stat {
	return slices.Clone(c.stats)
}

// SetStats replaces the decorative summary cards.
func (c *Controller) SetStats(stats []domain.Stat) {
	c.stats = slices.Clone(stats)
}

// Selection returns checked ids in ascending order.
func (c *Controller) Selection() []int {
	out := make([]int, 0, len(c.selection))
	for id := range c.selection {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (c *Controller) SelectionCount() int {
	return len(c.selection)
}

func (c *Controller) IsSelected(id int) bool {
	_, ok := c.selection[id]
	return ok
}

// SelectedRecord returns the record last opened in the detail view. It stays
// set after the view closes.
func (c *Controller) SelectedRecord() (domain.Record, bool) {
	return c.selected, c.hasDetail
}

func (c *Controller) DetailOpen() bool {
	return c.detailOpen
}

func (c *Controller) FormState() FormState {
	return c.form
}

func (c *Controller) Submitting() bool {
	return c.form == FormSubmitting
}

func (c *Controller) Draft() domain.Draft {
	return c.draft
}

// FieldError returns the inline validation message for one draft field.
func (c *Controller) FieldError(field domain.DraftField) string {
	return c.fieldErrors[field]
}

func (c *Controller) Banner() string {
	return c.banner
}

func (c *Controller) DismissBanner() {
	c.banner = ""
}

func (c *Controller) ViewMode() ViewMode {
	return c.viewMode
}

func (c *Controller) SidebarOpen() bool {
	return c.sidebarOpen
}

func (c *Controller) AutoSave() bool {
	return c.autoSave
}

// SelectRecord opens the detail view for id.
func (c *Controller) SelectRecord(id int) error {
	rec, ok := c.Record(id)
	if !ok {
		return ErrRecordNotFound
	}
	c.selected = rec
	c.hasDetail = true
	c.detailOpen = true
	return nil
}

// CloseDetail hides the detail view without clearing the selected record.
func (c *Controller) CloseDetail() {
	c.detailOpen = false
}

// ToggleSelection sets the checked state of one row.
func (c *Controller) ToggleSelection(id int, checked bool) error {
	if c.indexOf(id) < 0 {
		return ErrRecordNotFound
	}
	if checked {
		c.selection[id] = struct{}{}
	} else {
		delete(c.selection, id)
	}
	return nil
}

// ClearSelection unchecks every row and returns how many were checked.
func (c *Controller) ClearSelection() int {
	count := len(c.selection)
	if count > 0 {
		c.selection = map[int]struct{}{}
	}
	return count
}

// OpenCreationForm starts a fresh draft.
func (c *Controller) OpenCreationForm() error {
	switch c.form {
	case FormSubmitting:
		return ErrSubmitInProgress
	case FormOpen:
		return nil
	}
	c.form = FormOpen
	c.resetDraft()
	return nil
}

// CloseCreationForm discards the draft. A running submit cannot be canceled.
func (c *Controller) CloseCreationForm() error {
	switch c.form {
	case FormSubmitting:
		return ErrSubmitInProgress
	case FormClosed:
		return nil
	}
	c.form = FormClosed
	c.resetDraft()
	return nil
}

// ToggleCreationForm opens a closed form and closes an open one.
func (c *Controller) ToggleCreationForm() error {
	if c.form == FormClosed {
		return c.OpenCreationForm()
	}
	return c.CloseCreationForm()
}

func (c *Controller) UpdateDraftAction(text string) error {
	if c.form != FormOpen {
		return ErrFormNotOpen
	}
	c.draft.Action = text
	delete(c.fieldErrors, domain.DraftFieldAction)
	return nil
}

func (c *Controller) UpdateDraftEnrichmentName(text string) error {
	if c.form != FormOpen {
		return ErrFormNotOpen
	}
	c.draft.Enrichment.Name = text
	delete(c.fieldErrors, domain.DraftFieldEnrichmentName)
	return nil
}

func (c *Controller) UpdateDraftIcon(icon domain.Icon) error {
	if c.form != FormOpen {
		return ErrFormNotOpen
	}
	parsed, err := domain.ParseIcon(string(icon))
	if err != nil {
		return err
	}
	c.draft.Enrichment.Icon = parsed
	delete(c.fieldErrors, domain.DraftFieldIcon)
	return nil
}

// BeginSubmit validates the draft and moves the form to submitting. The
// returned draft is a copy for the caller's save; a second call before
// CompleteSubmit or FailSubmit is rejected.
func (c *Controller) BeginSubmit() (domain.Draft, error) {
	switch c.form {
	case FormSubmitting:
		return domain.Draft{}, ErrSubmitInProgress
	case FormClosed:
		return domain.Draft{}, ErrFormNotOpen
	}
	if err := c.draft.Validate(); err != nil {
		c.fieldErrors = domain.FieldErrors(err)
		return domain.Draft{}, err
	}
	c.fieldErrors = map[domain.DraftField]string{}
	c.banner = ""
	c.form = FormSubmitting
	return c.draft, nil
}

// CompleteSubmit appends the saved record and closes the form.
func (c *Controller) CompleteSubmit(rec domain.Record) error {
	if c.form != FormSubmitting {
		return ErrNoSubmitInProgress
	}
	if c.indexOf(rec.ID) >= 0 {
		return ErrDuplicateID
	}
	c.records = append(c.records, rec)
	c.form = FormClosed
	c.banner = ""
	c.resetDraft()
	return nil
}

// FailSubmit reopens the form with the draft intact so the user can retry.
func (c *Controller) FailSubmit(err error) error {
	if c.form != FormSubmitting {
		return ErrNoSubmitInProgress
	}
	c.form = FormOpen
	if fields := domain.FieldErrors(err); len(fields) > 0 {
		c.fieldErrors = fields
	}
	if err != nil {
		c.banner = "save failed: " + err.Error()
	} else {
		c.banner = "save failed"
	}
	return nil
}

func (c *Controller) ToggleViewMode() ViewMode {
	if c.viewMode == ViewTable {
		c.viewMode = ViewGrid
	} else {
		c.viewMode = ViewTable
	}
	return c.viewMode
}

func (c *Controller) ToggleSidebar() bool {
	c.sidebarOpen = !c.sidebarOpen
	return c.sidebarOpen
}

func (c *Controller) ToggleAutoSave() bool {
	c.autoSave = !c.autoSave
	return c.autoSave
}

// ReplaceRecords swaps in a reloaded working set and drops selection ids that
// no longer exist.
func (c *Controller) ReplaceRecords(records []domain.Record) {
	c.records = slices.Clone(records)
	c.pruneSelection()
	if c.hasDetail {
		if rec, ok := c.Record(c.selected.ID); ok {
			c.selected = rec
		} else {
			c.detailOpen = false
		}
	}
}

// RemoveRecords drops records by id and returns how many were removed.
func (c *Controller) RemoveRecords(ids []int) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := c.records[:0:0]
	for _, rec := range c.records {
		if _, ok := drop[rec.ID]; ok {
			continue
		}
		kept = append(kept, rec)
	}
	removed := len(c.records) - len(kept)
	c.records = kept
	c.pruneSelection()
	if c.hasDetail {
		if _, ok := drop[c.selected.ID]; ok {
			c.detailOpen = false
		}
	}
	return removed
}

func (c *Controller) pruneSelection() {
	for id := range c.selection {
		if c.indexOf(id) < 0 {
			delete(c.selection, id)
		}
	}
}

func (c *Controller) resetDraft() {
	c.draft = domain.EmptyDraft(c.defaultIcon)
	c.fieldErrors = map[domain.DraftField]string{}
}

func (c *Controller) indexOf(id int) int {
	return slices.IndexFunc(c.records, func(rec domain.Record) bool {
		return rec.ID == id
	})
}
