package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/oleoflores/planta-cli/internal/insight"
	"github.com/oleoflores/planta-cli/internal/schema"
)

var (
	insightFile string
	insightKind string
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Generate a short AI analysis of a processed dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if insightFile == "" {
			return eris.New("insight: --file is required")
		}
		kind, err := schema.ParseKind(insightKind)
		if err != nil {
			return err
		}

		client, err := insight.NewClient(insight.Options{
			APIKey:    cfg.Anthropic.Key,
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		})
		if err != nil {
			return err
		}

		pipe, closeCache, err := buildPipeline(false, false)
		if err != nil {
			return err
		}
		defer closeCache()

		ds, err := pipe.Run(cmd.Context(), insightFile, kind)
		if err != nil {
			return err
		}

		text, err := insight.Generate(cmd.Context(), client, ds)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	insightCmd.Flags().StringVar(&insightFile, "file", "", "dataset file (csv or xlsx)")
	insightCmd.Flags().StringVar(&insightKind, "kind", "upstream", "dataset kind: upstream or downstream")
	rootCmd.AddCommand(insightCmd)
}
