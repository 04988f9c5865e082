package domain

import (
	"errors"
	"sort"
	"strings"
)

// DraftField names one editable field of the creation form.
type DraftField string

const (
	DraftFieldAction         DraftField = "action"
	DraftFieldEnrichmentName DraftField = "enrichment_name"
	DraftFieldIcon           DraftField = "icon"
)

// Draft is uncommitted creation-form data.
type Draft struct {
	Action     string
	Enrichment Enrichment
}

// EmptyDraft returns the reset shape of the creation form.
func EmptyDraft(icon Icon) Draft {
	if IconIndex(icon) < 0 {
		icon = DefaultIcon
	}
	return Draft{Enrichment: Enrichment{Icon: icon}}
}

// Validate reports every invalid field at once so the form can mark each input.
func (d Draft) Validate() error {
	fields := map[DraftField]error{}
	if strings.TrimSpace(d.Action) == "" {
		fields[DraftFieldAction] = ErrInvalidAction
	}
	if strings.TrimSpace(d.Enrichment.Name) == "" {
		fields[DraftFieldEnrichmentName] = ErrInvalidEnrichmentName
	}
	if IconIndex(d.Enrichment.Icon) < 0 {
		fields[DraftFieldIcon] = ErrInvalidIcon
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ValidationError collects per-field draft failures.
type ValidationError struct {
	Fields map[DraftField]error
}

func (e *ValidationError) Error() string {
	keys := e.sortedFields()
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, string(field)+": "+e.Fields[field].Error())
	}
	return "invalid draft: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	keys := e.sortedFields()
	out := make([]error, 0, len(keys))
	for _, field := range keys {
		out = append(out, e.Fields[field])
	}
	return out
}

func (e *ValidationError) sortedFields() []DraftField {
	keys := make([]DraftField, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// FieldErrors extracts per-field messages from err, if it is a validation error.
func FieldErrors(err error) map[DraftField]string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make(map[DraftField]string, len(verr.Fields))
	for field, ferr := range verr.Fields {
		out[field] = ferr.Error()
	}
	return out
}
