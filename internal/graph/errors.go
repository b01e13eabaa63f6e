package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for integrity findings. Every defect sentinel wraps
// ErrIntegrityDefect, so errors.Is(d, ErrIntegrityDefect) holds for all of them.
var (
	// ErrIntegrityDefect indicates data that violates a graph invariant.
	ErrIntegrityDefect = errors.New("integrity defect")
	// ErrDuplicateID indicates two or more cards share an id.
	ErrDuplicateID = fmt.Errorf("%w: duplicate card id", ErrIntegrityDefect)
	// ErrMissingField indicates a card lacks a required field.
	ErrMissingField = fmt.Errorf("%w: required field missing", ErrIntegrityDefect)
	// ErrFieldType indicates a card field holds a value of the wrong JSON type.
	ErrFieldType = fmt.Errorf("%w: field has wrong type", ErrIntegrityDefect)
	// ErrDanglingEndpoint indicates a relationship names an id no card has.
	ErrDanglingEndpoint = fmt.Errorf("%w: dangling endpoint", ErrIntegrityDefect)
	// ErrMissingEndpoint indicates a relationship lacks a source or a target.
	ErrMissingEndpoint = fmt.Errorf("%w: relationship endpoint missing", ErrIntegrityDefect)
	// ErrDuplicateEdge indicates the same (source, target, type) appears twice.
	ErrDuplicateEdge = fmt.Errorf("%w: duplicate relationship", ErrIntegrityDefect)
	// ErrCycle indicates the hierarchy loops back on itself.
	ErrCycle = fmt.Errorf("%w: hierarchy cycle", ErrIntegrityDefect)
	// ErrUnknownCard indicates a repair pair names a card that does not exist.
	ErrUnknownCard = fmt.Errorf("%w: unknown card", ErrIntegrityDefect)

	// ErrNoMatch indicates an artifact had no candidate above the threshold.
	ErrNoMatch = errors.New("no match found")
)

// DefectCategory classifies a defect for programmatic handling.
type DefectCategory string

const (
	DefectDuplicateID      DefectCategory = "duplicate_id"
	DefectMissingField     DefectCategory = "missing_field"
	DefectFieldType        DefectCategory = "field_type"
	DefectDanglingEndpoint DefectCategory = "dangling_endpoint"
	DefectMissingEndpoint  DefectCategory = "missing_endpoint"
	DefectDuplicateEdge    DefectCategory = "duplicate_edge"
	DefectCycle            DefectCategory = "cycle"
	DefectUnknownCard      DefectCategory = "unknown_card"
)

// Defect is one accumulated integrity finding.
type Defect struct {
	Category DefectCategory `json:"category"`
	Subject  string         `json:"subject"`          // card id, endpoint id, or edge description
	Record   int            `json:"record"`           // record index, -1 when not record-specific
	Detail   string         `json:"detail,omitempty"` // e.g. missing field names, occurrence count
	Err      error          `json:"-"`
}

// Error returns a human-readable description of the defect.
func (d *Defect) Error() string {
	msg := d.Err.Error() + ": " + d.Subject
	if d.Record >= 0 {
		msg += fmt.Sprintf(" (record %d)", d.Record)
	}
	if d.Detail != "" {
		msg += " " + d.Detail
	}
	return msg
}

// Unwrap returns the category sentinel for use with errors.Is.
func (d *Defect) Unwrap() error {
	return d.Err
}
