package grid

import (
	"errors"
	"testing"

	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/evanschultz/enrichgrid/internal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	return New(sample.Records(), sample.Stats(), Options{SidebarOpen: true, AutoSave: true})
}

func savedRecord(t *testing.T, id int, d domain.Draft) domain.Record {
	t.Helper()
	rec, err := domain.NewRecord(domain.RecordInput{
		ID:         id,
		Timestamp:  "2/21/2026, 12:00:00 PM",
		Action:     d.Action,
		Enrichment: d.Enrichment,
	})
	require.NoError(t, err)
	return rec
}

func fillDraft(t *testing.T, c *Controller, action, name string, icon domain.Icon) {
	t.Helper()
	require.NoError(t, c.UpdateDraftAction(action))
	require.NoError(t, c.UpdateDraftEnrichmentName(name))
	require.NoError(t, c.UpdateDraftIcon(icon))
}

func TestNewDefaults(t *testing.T) {
	c := New(nil, nil, Options{DefaultIcon: "bad", ViewMode: "weird"})
	assert.Equal(t, ViewTable, c.ViewMode())
	assert.Equal(t, FormClosed, c.FormState())
	assert.Equal(t, domain.EmptyDraft(domain.DefaultIcon), c.Draft())
	assert.Zero(t, c.Len())
	assert.False(t, c.DetailOpen())
}

func TestSelectRecordOpensDetail(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.SelectRecord(2))

	rec, ok := c.SelectedRecord()
	require.True(t, ok)
	assert.Equal(t, 2, rec.ID)
	assert.Equal(t, domain.StatusError, rec.Status)
	assert.True(t, c.DetailOpen())

	assert.ErrorIs(t, c.SelectRecord(99), ErrRecordNotFound)
	rec, _ = c.SelectedRecord()
	assert.Equal(t, 2, rec.ID, "failed select must keep the previous record")
}

func TestCloseDetailRetainsSelectedRecord(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.SelectRecord(3))
	c.CloseDetail()

	assert.False(t, c.DetailOpen())
	rec, ok := c.SelectedRecord()
	require.True(t, ok)
	assert.Equal(t, 3, rec.ID)
}

func TestToggleSelectionIsIdempotent(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.ToggleSelection(1, true))
	require.NoError(t, c.ToggleSelection(1, true))
	require.NoError(t, c.ToggleSelection(4, true))
	assert.Equal(t, []int{1, 4}, c.Selection())

	require.NoError(t, c.ToggleSelection(1, false))
	require.NoError(t, c.ToggleSelection(1, false))
	assert.Equal(t, []int{4}, c.Selection())

	assert.ErrorIs(t, c.ToggleSelection(42, true), ErrRecordNotFound)
	assert.Equal(t, 1, c.SelectionCount())
}

func TestSelectionIndependence(t *testing.T) {
	c := newTestController(t)
	before := c.Records()

	require.NoError(t, c.ToggleSelection(2, true))
	_, ok := c.SelectedRecord()
	assert.False(t, ok, "toggling selection must not pick a detail record")
	assert.False(t, c.DetailOpen())
	assert.Equal(t, before, c.Records())

	require.NoError(t, c.SelectRecord(5))
	assert.Equal(t, []int{2}, c.Selection(), "opening detail must not change selection")

	require.NoError(t, c.ToggleSelection(5, true))
	rec, _ := c.SelectedRecord()
	assert.Equal(t, 5, rec.ID)
	assert.True(t, c.DetailOpen())
}

func TestCreationFormStateMachine(t *testing.T) {
	c := newTestController(t)

	_, err := c.BeginSubmit()
	assert.ErrorIs(t, err, ErrFormNotOpen)
	assert.ErrorIs(t, c.UpdateDraftAction("x"), ErrFormNotOpen)

	require.NoError(t, c.OpenCreationForm())
	assert.Equal(t, FormOpen, c.FormState())
	require.NoError(t, c.OpenCreationForm(), "reopening is a no-op")

	fillDraft(t, c, "Fresh action", "Fresh name", domain.IconGreen)
	d, err := c.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, FormSubmitting, c.FormState())
	assert.True(t, c.Submitting())

	assert.ErrorIs(t, c.CloseCreationForm(), ErrSubmitInProgress)
	assert.ErrorIs(t, c.OpenCreationForm(), ErrSubmitInProgress)
	assert.ErrorIs(t, c.UpdateDraftAction("late"), ErrFormNotOpen)

	require.NoError(t, c.CompleteSubmit(savedRecord(t, 6, d)))
	assert.Equal(t, FormClosed, c.FormState())
	assert.Equal(t, domain.EmptyDraft(domain.DefaultIcon), c.Draft())
	assert.ErrorIs(t, c.CompleteSubmit(savedRecord(t, 7, d)), ErrNoSubmitInProgress)
}

func TestToggleCreationForm(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.ToggleCreationForm())
	assert.Equal(t, FormOpen, c.FormState())
	require.NoError(t, c.ToggleCreationForm())
	assert.Equal(t, FormClosed, c.FormState())
}

func TestAppendOnlyGrowth(t *testing.T) {
	c := newTestController(t)
	before := c.Len()

	require.NoError(t, c.OpenCreationForm())
	fillDraft(t, c, "Cell data size exceeds limit", "Netflix Evaluation", domain.IconRed)
	d, err := c.BeginSubmit()
	require.NoError(t, err)
	require.NoError(t, c.CompleteSubmit(savedRecord(t, before+1, d)))

	records := c.Records()
	require.Len(t, records, before+1)
	last := records[len(records)-1]
	assert.Equal(t, before+1, last.ID)
	assert.Equal(t, domain.StatusError, last.Status)
	assert.Equal(t, domain.Enrichment{Name: "Netflix Evaluation", Icon: domain.IconRed}, last.Enrichment)
}

func TestDraftIsolation(t *testing.T) {
	c := newTestController(t)
	before := c.Records()

	require.NoError(t, c.OpenCreationForm())
	fillDraft(t, c, before[0].Action+" edited", "other", domain.IconYellow)

	assert.Equal(t, before, c.Records())
}

func TestCloseResetsDraft(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.OpenCreationForm())
	fillDraft(t, c, "typed", "typed name", domain.IconRed)
	require.NoError(t, c.CloseCreationForm())

	require.NoError(t, c.OpenCreationForm())
	assert.Equal(t, domain.EmptyDraft(domain.DefaultIcon), c.Draft())
}

func TestDoubleSubmitGuard(t *testing.T) {
	c := newTestController(t)
	before := c.Len()
	require.NoError(t, c.OpenCreationForm())
	fillDraft(t, c, "a", "b", domain.IconBlue)

	first, err := c.BeginSubmit()
	require.NoError(t, err)
	_, err = c.BeginSubmit()
	require.ErrorIs(t, err, ErrSubmitInProgress)

	require.NoError(t, c.CompleteSubmit(savedRecord(t, before+1, first)))
	assert.Equal(t, before+1, c.Len())
}

func TestBeginSubmitValidationKeepsFormOpen(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.OpenCreationForm())

	_, err := c.BeginSubmit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidAction))
	assert.Equal(t, FormOpen, c.FormState())
	assert.NotEmpty(t, c.FieldError(domain.DraftFieldAction))
	assert.NotEmpty(t, c.FieldError(domain.DraftFieldEnrichmentName))

	require.NoError(t, c.UpdateDraftAction("now set"))
	assert.Empty(t, c.FieldError(domain.DraftFieldAction), "editing a field clears its error")
	assert.NotEmpty(t, c.FieldError(domain.DraftFieldEnrichmentName))
}

func TestFailSubmitPreservesDraft(t *testing.T) {
	c := newTestController(t)
	before := c.Len()
	require.NoError(t, c.OpenCreationForm())
	fillDraft(t, c, "keep me", "keep name", domain.IconWhite)
	_, err := c.BeginSubmit()
	require.NoError(t, err)

	require.NoError(t, c.FailSubmit(errors.New("disk full")))
	assert.Equal(t, FormOpen, c.FormState())
	assert.Equal(t, "keep me", c.Draft().Action)
	assert.Equal(t, domain.IconWhite, c.Draft().Enrichment.Icon)
	assert.Contains(t, c.Banner(), "disk full")
	assert.Equal(t, before, c.Len())

	_, err = c.BeginSubmit()
	require.NoError(t, err, "retry after failure")
	assert.Empty(t, c.Banner())
	require.NoError(t, c.FailSubmit(nil))
	assert.Equal(t, "save failed", c.Banner())
	c.DismissBanner()
	assert.Empty(t, c.Banner())
}

func TestCompleteSubmitRejectsDuplicateID(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.OpenCreationForm())
	fillDraft(t, c, "a", "b", domain.IconBlue)
	d, err := c.BeginSubmit()
	require.NoError(t, err)
	assert.ErrorIs(t, c.CompleteSubmit(savedRecord(t, 1, d)), ErrDuplicateID)
	assert.Equal(t, FormSubmitting, c.FormState())
}

func TestUpdateDraftIconRejectsUnknown(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.OpenCreationForm())
	assert.ErrorIs(t, c.UpdateDraftIcon("⭐"), domain.ErrInvalidIcon)
	assert.Equal(t, domain.DefaultIcon, c.Draft().Enrichment.Icon)
}

func TestRemoveRecordsPrunesSelectionAndDetail(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.ToggleSelection(2, true))
	require.NoError(t, c.ToggleSelection(3, true))
	require.NoError(t, c.SelectRecord(2))

	removed := c.RemoveRecords([]int{2, 99})
	assert.Equal(t, 1, removed)
	assert.Equal(t, []int{3}, c.Selection())
	assert.False(t, c.DetailOpen())
	_, ok := c.Record(2)
	assert.False(t, ok)
	assert.Zero(t, c.RemoveRecords(nil))
}

func TestReplaceRecordsPrunesSelection(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.ToggleSelection(1, true))
	require.NoError(t, c.ToggleSelection(5, true))
	require.NoError(t, c.SelectRecord(1))

	c.ReplaceRecords(c.Records()[:2])
	assert.Equal(t, []int{1}, c.Selection())
	assert.True(t, c.DetailOpen())
	assert.Equal(t, 1, c.ClearSelection())
	assert.Zero(t, c.ClearSelection())
}

func TestCosmeticToggles(t *testing.T) {
	c := newTestController(t)
	before := c.Records()
	assert.Equal(t, ViewGrid, c.ToggleViewMode())
	assert.Equal(t, ViewTable, c.ToggleViewMode())
	assert.False(t, c.ToggleSidebar())
	assert.False(t, c.ToggleAutoSave())
	assert.Equal(t, before, c.Records())
}

func TestFormStateString(t *testing.T) {
	assert.Equal(t, "submitting", FormSubmitting.String())
	assert.Equal(t, "FormState(9)", FormState(9).String())
}
