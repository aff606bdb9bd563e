package etl

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/oleoflores/planta-cli/internal/model"
)

// ExportOptions controls CSV serialization. The pipeline holds no filter
// state: whatever subset the caller passes in is exactly what is written.
type ExportOptions struct {
	// DateLayout formats date cells. Default "2006-01-02".
	DateLayout string

	// Decimals is the number of fraction digits for numeric cells.
	// Negative means shortest exact representation. Default 2.
	Decimals int

	// GroupThousands formats numbers with locale digit grouping.
	GroupThousands bool

	// Locale selects the grouping locale, e.g. "es-CO". Default "es".
	Locale string
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.DateLayout == "" {
		o.DateLayout = "2006-01-02"
	}
	if o.Decimals == 0 {
		o.Decimals = 2
	}
	if o.Locale == "" {
		o.Locale = "es"
	}
	return o
}

// ExportCSV writes the table as UTF-8 CSV with a header row. Missing cells
// export as empty fields, undefined cells as "N/A".
func ExportCSV(w io.Writer, t *model.Table, opts ExportOptions) error {
	opts = opts.withDefaults()

	var printer *message.Printer
	if opts.GroupThousands {
		printer = message.NewPrinter(language.Make(opts.Locale))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = formatCell(cell, opts, printer)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

func formatCell(c model.Cell, opts ExportOptions, printer *message.Printer) string {
	switch c.Kind {
	case model.CellString:
		return c.Str
	case model.CellDate:
		return c.Date.Format(opts.DateLayout)
	case model.CellNumber:
		if printer != nil {
			d := opts.Decimals
			if d < 0 {
				return printer.Sprint(number.Decimal(c.Num))
			}
			return printer.Sprint(number.Decimal(c.Num,
				number.MinFractionDigits(d), number.MaxFractionDigits(d)))
		}
		if opts.Decimals < 0 {
			return strconv.FormatFloat(c.Num, 'f', -1, 64)
		}
		return strconv.FormatFloat(c.Num, 'f', opts.Decimals, 64)
	case model.CellUndefined:
		return "N/A"
	default:
		return ""
	}
}
