// Package etl implements the production-data pipeline:
// load → validate → clean → derive variance → check ranges.
package etl

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/oleoflores/planta-cli/internal/model"
)

// Format selects the loader's parser.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// LoadOptions configures the loader.
type LoadOptions struct {
	Format    Format
	Delimiter rune   // CSV delimiter, default ','
	Sheet     string // XLSX sheet name, default first sheet
}

// Load reads a CSV or XLSX file into a raw table of string cells. The header
// row becomes the column names. Failures are reported as *model.LoadError.
func Load(ctx context.Context, path string, opts LoadOptions) (*model.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: path, Err: err}
	}
	return LoadBytes(ctx, raw, path, opts)
}

// LoadReader reads tabular data from a stream. The name is used for format
// detection and error reporting.
func LoadReader(ctx context.Context, r io.Reader, name string, opts LoadOptions) (*model.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: err}
	}
	return LoadBytes(ctx, raw, name, opts)
}

// LoadBytes parses in-memory source bytes into a raw table.
func LoadBytes(ctx context.Context, raw []byte, name string, opts LoadOptions) (*model.Table, error) {
	format := opts.Format
	if format == "" || format == FormatAuto {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			format = FormatCSV
		case ".xlsx", ".xls":
			format = FormatXLSX
		default:
			return nil, &model.LoadError{
				Kind:   model.LoadUnreadable,
				Source: name,
				Err:    eris.Errorf("unsupported extension %q", filepath.Ext(name)),
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &model.LoadError{Kind: model.LoadCancelled, Source: name, Err: err}
	}

	switch format {
	case FormatCSV:
		return loadCSV(ctx, raw, name, opts.Delimiter)
	case FormatXLSX:
		return loadXLSX(ctx, raw, name, opts.Sheet)
	default:
		return nil, &model.LoadError{
			Kind:   model.LoadUnreadable,
			Source: name,
			Err:    eris.Errorf("unknown format %q", format),
		}
	}
}

func loadCSV(ctx context.Context, raw []byte, name string, delimiter rune) (*model.Table, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	// Excel exports CSV as Windows-1252 more often than not; re-decode when
	// the bytes are not valid UTF-8 so downstream never sees mojibake.
	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.Wrap(err, "decode windows-1252")}
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.New("no header row")}
	}
	if err != nil {
		return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.Wrap(err, "read header")}
	}

	table := model.NewTable(header)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &model.LoadError{Kind: model.LoadCancelled, Source: name, Err: err}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.Wrap(err, "read row")}
		}
		table.AppendRow(stringCells(record))
	}

	if table.NumRows() == 0 {
		return nil, &model.LoadError{Kind: model.LoadEmpty, Source: name}
	}
	return table, nil
}

func loadXLSX(ctx context.Context, raw []byte, name string, sheetName string) (*model.Table, error) {
	f, err := xlsx.OpenBinary(raw)
	if err != nil {
		return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.Wrap(err, "open xlsx")}
	}

	var sheet *xlsx.Sheet
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.Errorf("sheet %q not found", sheetName)}
		}
		sheet = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.New("workbook has no sheets")}
		}
		sheet = f.Sheets[0]
	}

	var table *model.Table
	for _, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return nil, &model.LoadError{Kind: model.LoadCancelled, Source: name, Err: err}
		}
		cells := make([]string, len(row.Cells))
		blank := true
		for j, cell := range row.Cells {
			cells[j] = cell.String()
			if strings.TrimSpace(cells[j]) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if table == nil {
			table = model.NewTable(cells)
			continue
		}
		table.AppendRow(stringCells(cells))
	}

	if table == nil {
		return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: name, Err: eris.New("no header row")}
	}
	if table.NumRows() == 0 {
		return nil, &model.LoadError{Kind: model.LoadEmpty, Source: name}
	}
	return table, nil
}

func stringCells(record []string) []model.Cell {
	cells := make([]model.Cell, len(record))
	for i, s := range record {
		cells[i] = model.String(s)
	}
	return cells
}
