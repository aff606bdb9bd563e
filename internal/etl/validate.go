package etl

import (
	"sort"
	"strings"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

// NormalizeColumn maps a raw header to its canonical form: trimmed,
// lowercased, inner spaces replaced with underscores. Matching is therefore
// case-insensitive. "TEA Real" → "tea_real".
func NormalizeColumn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

// NormalizeHeader rewrites the table's column names to canonical form.
// Two distinct raw headers collapsing to the same name make the table
// ambiguous and return a *model.SchemaError rather than silently resolving.
func NormalizeHeader(t *model.Table, kind schema.Kind) error {
	seen := make(map[string]bool, len(t.Columns))
	var ambiguous []string
	normalized := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		n := NormalizeColumn(col)
		if seen[n] {
			ambiguous = append(ambiguous, n)
		}
		seen[n] = true
		normalized[i] = n
	}
	if len(ambiguous) > 0 {
		sort.Strings(ambiguous)
		return &model.SchemaError{Kind: string(kind), Ambiguous: dedupe(ambiguous)}
	}
	t.Columns = normalized
	return nil
}

// Validate checks the table's columns against the kind's required set.
// Every absent column is reported in one *model.SchemaError so the caller
// can show a complete remediation message.
func Validate(t *model.Table, spec schema.Spec) error {
	present := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		present[NormalizeColumn(col)] = true
	}

	var missing []string
	for _, req := range spec.Required {
		if !present[NormalizeColumn(req)] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &model.SchemaError{Kind: string(spec.Kind), Missing: missing}
	}
	return nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}
