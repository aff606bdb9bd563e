package etl

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

// CleanOptions configures numeric and date normalization.
type CleanOptions struct {
	// ThousandsSep is stripped from numeric text before parsing. Default ",".
	ThousandsSep string

	// CurrencySymbols are stripped from either end of numeric text.
	CurrencySymbols []string

	// Now supplies the reference time for the future-date check. Tests
	// override it; default time.Now.
	Now func() time.Time
}

func (o CleanOptions) withDefaults() CleanOptions {
	if o.ThousandsSep == "" {
		o.ThousandsSep = ","
	}
	if o.CurrencySymbols == nil {
		o.CurrencySymbols = []string{"$"}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// missingSentinels are text values meaning "no data". They clean to a
// missing cell without a warning; only genuinely unparseable text warns.
var missingSentinels = map[string]bool{
	"": true, "-": true, "nan": true, "null": true, "none": true, "n/a": true,
}

// dateLayouts are the accepted input formats. All carry four-digit years;
// two-digit years fail every layout and are rejected rather than guessed.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// Clean normalizes every cell according to the kind's column classes: the
// date column parses to calendar dates, category columns are trimmed text,
// everything else parses to floats. Percent-valued text keeps its magnitude
// in percent points ("12.5%" → 12.5); the loader never rescales to [0, 1].
//
// Cleaning never fails on a bad cell: the cell becomes missing and one
// CleaningWarning is accumulated. The input table is not mutated, and
// cleaning an already-clean table is a no-op.
func Clean(t *model.Table, spec schema.Spec, opts CleanOptions) (*model.Table, []model.CleaningWarning) {
	opts = opts.withDefaults()
	out := t.Clone()
	today := truncateDay(opts.Now())

	var warnings []model.CleaningWarning
	warn := func(row int, col, reason string) {
		warnings = append(warnings, model.CleaningWarning{Row: row, Column: col, Reason: reason})
	}

	for colIdx, col := range out.Columns {
		switch {
		case col == spec.DateColumn:
			for rowIdx := range out.Rows {
				cell := out.Rows[rowIdx][colIdx]
				if cell.Kind != model.CellString {
					continue // already clean or missing
				}
				d, reason := parseDate(cell.Str, today)
				if reason != "" {
					out.Rows[rowIdx][colIdx] = model.Missing()
					if reason != reasonBlank {
						warn(rowIdx, col, reason)
					}
					continue
				}
				out.Rows[rowIdx][colIdx] = model.Date(d)
			}

		case !spec.IsNumeric(col):
			for rowIdx := range out.Rows {
				cell := out.Rows[rowIdx][colIdx]
				if cell.Kind != model.CellString {
					continue
				}
				s := strings.TrimSpace(cell.Str)
				if s == "" {
					out.Rows[rowIdx][colIdx] = model.Missing()
					continue
				}
				out.Rows[rowIdx][colIdx] = model.String(s)
			}

		default:
			for rowIdx := range out.Rows {
				cell := out.Rows[rowIdx][colIdx]
				if cell.Kind != model.CellString {
					continue
				}
				v, reason := parseNumeric(cell.Str, opts)
				if reason != "" {
					out.Rows[rowIdx][colIdx] = model.Missing()
					if reason != reasonBlank {
						warn(rowIdx, col, reason)
					}
					continue
				}
				out.Rows[rowIdx][colIdx] = model.Number(v)
			}
		}
	}

	return out, warnings
}

// reasonBlank marks a sentinel "no data" cell: cleaned to missing silently.
const reasonBlank = "blank"

// parseNumeric normalizes numeric text. Returns the value, or a non-empty
// reason why the cell is missing instead.
func parseNumeric(s string, opts CleanOptions) (float64, string) {
	s = strings.TrimSpace(s)
	if missingSentinels[strings.ToLower(s)] {
		return 0, reasonBlank
	}

	for _, sym := range opts.CurrencySymbols {
		s = strings.TrimPrefix(s, sym)
		s = strings.TrimSuffix(s, sym)
	}
	s = strings.TrimSpace(s)

	// Trailing % is stripped without rescaling: percent columns hold
	// percent points in [0, 100] by convention.
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	s = strings.ReplaceAll(s, opts.ThousandsSep, "")
	if s == "" {
		return 0, reasonBlank
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, "not a number: " + strconv.Quote(s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "non-finite value: " + strconv.Quote(s)
	}
	return v, ""
}

// parseDate normalizes date text against the accepted layouts and rejects
// future dates at the cell level.
func parseDate(s string, today time.Time) (time.Time, string) {
	s = strings.TrimSpace(s)
	if missingSentinels[strings.ToLower(s)] {
		return time.Time{}, reasonBlank
	}

	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if d.After(today) {
			return time.Time{}, "future date: " + strconv.Quote(s)
		}
		return d, ""
	}
	return time.Time{}, "invalid or ambiguous date: " + strconv.Quote(s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
