package model

// Severity ranks how bad a range violation is. Downstream policy (block an
// export vs. merely flag) belongs to the presentation layer.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Violation flags one out-of-bound cell. The table itself is never altered;
// a row with two bad columns yields two violations.
type Violation struct {
	Row      int      `json:"row"`
	Column   string   `json:"column"`
	Value    string   `json:"value"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message,omitempty"`
}

// CleaningWarning records a cell-level cleaning failure. Non-fatal: the cell
// becomes missing and processing continues.
type CleaningWarning struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// Dataset is the pipeline output handed to presentation and export: the
// enriched table plus everything accumulated along the way.
type Dataset struct {
	Kind       string            `json:"kind"`
	Source     string            `json:"source"`
	Table      *Table            `json:"table"`
	Warnings   []CleaningWarning `json:"warnings,omitempty"`
	Violations []Violation       `json:"violations,omitempty"`
}

// ErrorCount returns the number of error-severity violations.
func (d *Dataset) ErrorCount() int {
	n := 0
	for _, v := range d.Violations {
		if v.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity violations.
func (d *Dataset) WarningCount() int {
	return len(d.Violations) - d.ErrorCount()
}

// Records flattens the table into one map per row for JSON consumers.
// Missing cells become nil, undefined cells the literal "N/A".
func (d *Dataset) Records(dateLayout string) []map[string]any {
	if dateLayout == "" {
		dateLayout = "2006-01-02"
	}
	out := make([]map[string]any, 0, d.Table.NumRows())
	for _, row := range d.Table.Rows {
		rec := make(map[string]any, len(d.Table.Columns))
		for i, col := range d.Table.Columns {
			switch c := row[i]; c.Kind {
			case CellNumber:
				rec[col] = c.Num
			case CellString:
				rec[col] = c.Str
			case CellDate:
				rec[col] = c.Date.Format(dateLayout)
			case CellUndefined:
				rec[col] = "N/A"
			default:
				rec[col] = nil
			}
		}
		out = append(out, rec)
	}
	return out
}
