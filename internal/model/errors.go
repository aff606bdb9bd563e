package model

import (
	"fmt"
	"strings"
)

// LoadErrorKind classifies why a source could not be loaded.
type LoadErrorKind string

const (
	// LoadUnreadable means the source could not be parsed as tabular data.
	LoadUnreadable LoadErrorKind = "unreadable"

	// LoadEmpty means the source had a header but zero data rows.
	LoadEmpty LoadErrorKind = "empty"

	// LoadCancelled means the caller cancelled the read; no partial table
	// is ever returned alongside it.
	LoadCancelled LoadErrorKind = "cancelled"
)

// LoadError is a halting loader failure with enough detail for the caller
// to render an actionable message.
type LoadError struct {
	Kind   LoadErrorKind
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Source, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError is a halting validation failure. Missing lists every absent
// required column in one report; Ambiguous lists normalized names that two
// or more distinct input columns collapsed into.
type SchemaError struct {
	Kind      string
	Missing   []string
	Ambiguous []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Ambiguous) > 0 {
		parts = append(parts, fmt.Sprintf("ambiguous columns [%s]", strings.Join(e.Ambiguous, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "invalid schema")
	}
	return fmt.Sprintf("schema %s: %s", e.Kind, strings.Join(parts, "; "))
}
