package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oleoflores/planta-cli/internal/etl"
	"github.com/oleoflores/planta-cli/internal/model"
)

// systemPrompt frames the model as a palm-oil production analyst. Insights
// are returned in Spanish, matching the plant's reporting language.
const systemPrompt = `Eres un analista experto en agroindustria de palma de aceite.
Genera insights breves, claros y accionables en español.
Enfócate en:
- Anomalías o desviaciones significativas
- Tendencias importantes
- Comparaciones con metas/presupuestos
- Recomendaciones prácticas

Responde en máximo 2-3 oraciones. Sé directo y específico.`

// Generate builds a compact summary of the dataset and asks the model for
// a short insight.
func Generate(ctx context.Context, c Client, ds *model.Dataset) (string, error) {
	return c.Complete(ctx, systemPrompt, BuildPrompt(ds))
}

// complianceStat aggregates one metric pair's compliance across rows.
type complianceStat struct {
	metric string
	sum    float64
	count  int
}

func (s complianceStat) mean() float64 { return s.sum / float64(s.count) }

// BuildPrompt renders the dataset's KPI picture as prompt text: average
// compliance per metric, worst rows, and violation counts.
func BuildPrompt(ds *model.Dataset) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dataset %s (%d registros).\n", ds.Kind, ds.Table.NumRows())

	stats := complianceStats(ds.Table)
	if len(stats) > 0 {
		sb.WriteString("Cumplimiento promedio por métrica:\n")
		for _, s := range stats {
			fmt.Fprintf(&sb, "- %s: %.1f%%\n", s.metric, s.mean())
		}
	}

	if n := ds.ErrorCount(); n > 0 {
		fmt.Fprintf(&sb, "Violaciones de rango (error): %d.\n", n)
	}
	if n := ds.WarningCount(); n > 0 {
		fmt.Fprintf(&sb, "Violaciones de rango (advertencia): %d.\n", n)
	}
	for i, v := range ds.Violations {
		if i == 5 {
			fmt.Fprintf(&sb, "- ... y %d más\n", len(ds.Violations)-5)
			break
		}
		fmt.Fprintf(&sb, "- fila %d, %s=%s: %s\n", v.Row+1, v.Column, v.Value, v.Message)
	}
	if len(ds.Warnings) > 0 {
		fmt.Fprintf(&sb, "Celdas descartadas durante limpieza: %d.\n", len(ds.Warnings))
	}

	sb.WriteString("Analiza el desempeño frente al presupuesto.")
	return sb.String()
}

func complianceStats(t *model.Table) []complianceStat {
	byMetric := map[string]*complianceStat{}
	for idx, col := range t.Columns {
		metric, ok := strings.CutSuffix(col, etl.SuffixCompliance)
		if !ok {
			continue
		}
		for _, row := range t.Rows {
			if cell := row[idx]; cell.Kind == model.CellNumber {
				s := byMetric[metric]
				if s == nil {
					s = &complianceStat{metric: metric}
					byMetric[metric] = s
				}
				s.sum += cell.Num
				s.count++
			}
		}
	}

	out := make([]complianceStat, 0, len(byMetric))
	for _, s := range byMetric {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].metric < out[j].metric })
	return out
}
