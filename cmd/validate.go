package main

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/oleoflores/planta-cli/internal/etl"
	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

var (
	validateFile string
	validateKind string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a dataset file against its schema without processing it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if validateFile == "" {
			return eris.New("validate: --file is required")
		}
		kind, err := schema.ParseKind(validateKind)
		if err != nil {
			return err
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		spec, err := reg.Spec(kind)
		if err != nil {
			return err
		}

		table, err := etl.Load(cmd.Context(), validateFile, etl.LoadOptions{})
		if err != nil {
			return err
		}
		if err := etl.NormalizeHeader(table, kind); err != nil {
			printSchemaError(err)
			return err
		}
		if err := etl.Validate(table, spec); err != nil {
			printSchemaError(err)
			return err
		}

		fmt.Printf("%s: esquema válido (%d filas, %d columnas)\n", validateFile, table.NumRows(), len(table.Columns))
		return nil
	},
}

// printSchemaError lists every missing or ambiguous column so the operator
// can fix the file in one pass.
func printSchemaError(err error) {
	var schemaErr *model.SchemaError
	if !errors.As(err, &schemaErr) {
		return
	}
	for _, col := range schemaErr.Missing {
		fmt.Printf("  falta la columna %q\n", col)
	}
	for _, col := range schemaErr.Ambiguous {
		fmt.Printf("  columna ambigua %q\n", col)
	}
}

func init() {
	validateCmd.Flags().StringVar(&validateFile, "file", "", "dataset file (csv or xlsx)")
	validateCmd.Flags().StringVar(&validateKind, "kind", "upstream", "dataset kind: upstream or downstream")
	rootCmd.AddCommand(validateCmd)
}
