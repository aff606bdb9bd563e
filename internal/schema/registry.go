package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/oleoflores/planta-cli/internal/model"
)

// Zonas is the fixed catalog of extraction zones.
var Zonas = []string{"Codazzi", "MLB", "A&G", "Sinú"}

// Refinerias is the fixed catalog of refinery identifiers.
var Refinerias = []string{"1", "2"}

// Registry maps dataset kinds to their specs.
type Registry struct {
	specs map[Kind]Spec
}

// Spec returns the contract for a kind.
func (r *Registry) Spec(k Kind) (Spec, error) {
	s, ok := r.specs[k]
	if !ok {
		return Spec{}, eris.Errorf("schema: no spec registered for kind %q", k)
	}
	return s, nil
}

// Kinds lists the registered kinds in a fixed order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.specs))
	for _, k := range []Kind{Upstream, Downstream} {
		if _, ok := r.specs[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func fptr(v float64) *float64 { return &v }

// Default builds the built-in registry: the upstream and downstream
// contracts with the plant's standing range rules.
func Default() *Registry {
	upstream := Spec{
		Kind: Upstream,
		Required: []string{
			"fecha", "zona",
			"rff_real", "rff_presupuesto",
			"cpo_real", "cpo_presupuesto",
			"tea_real", "tea_meta",
		},
		Optional: []string{
			"palmiste_real", "palmiste_presupuesto",
			"almendra_real", "almendra_presupuesto",
			"acidez", "humedad", "impurezas",
			"inventario_cpo",
		},
		DateColumn: "fecha",
		Categories: []DomainRule{
			{Column: "zona", Allowed: Zonas, Severity: model.SeverityError},
		},
		Pairs: []MetricPair{
			{Name: "rff", Actual: "rff_real", Budget: "rff_presupuesto"},
			{Name: "cpo", Actual: "cpo_real", Budget: "cpo_presupuesto"},
			{Name: "tea", Actual: "tea_real", Budget: "tea_meta"},
			{Name: "palmiste", Actual: "palmiste_real", Budget: "palmiste_presupuesto"},
			{Name: "almendra", Actual: "almendra_real", Budget: "almendra_presupuesto"},
		},
		Ranges: []RangeRule{
			{Column: "tea_real", Min: fptr(0), Max: fptr(35), Severity: model.SeverityError,
				Message: "TEA fuera de rango técnico"},
			{Column: "tea_real", Min: fptr(15), AppliesAbove: fptr(0), Severity: model.SeverityWarning,
				Message: "TEA inusualmente baja"},
			{Column: "tea_meta", Min: fptr(0), Max: fptr(35), Severity: model.SeverityError,
				Message: "meta TEA fuera de rango técnico"},
			{Column: "rff_real", Min: fptr(0), Severity: model.SeverityError,
				Message: "RFF no puede ser negativo"},
			{Column: "cpo_real", Min: fptr(0), Severity: model.SeverityError,
				Message: "CPO no puede ser negativo"},
		},
		Ratios: []RatioRule{
			{Numerator: "cpo_real", Denominator: "rff_real", MaxPct: 100,
				Severity: model.SeverityError,
				Message:  "CPO mayor que RFF (físicamente imposible)"},
		},
	}

	downstream := Spec{
		Kind: Downstream,
		Required: []string{
			"fecha", "refineria", "cpo_entrada",
			"oleina_real", "oleina_presupuesto",
			"margarinas_real", "margarinas_presupuesto",
			"mermas",
		},
		Optional: []string{
			"rbd_real", "rbd_presupuesto",
			"inventario_rbd", "inventario_oleina", "inventario_margarinas",
		},
		DateColumn: "fecha",
		Categories: []DomainRule{
			{Column: "refineria", Allowed: Refinerias, Severity: model.SeverityError},
		},
		Pairs: []MetricPair{
			{Name: "oleina", Actual: "oleina_real", Budget: "oleina_presupuesto"},
			{Name: "margarinas", Actual: "margarinas_real", Budget: "margarinas_presupuesto"},
			{Name: "rbd", Actual: "rbd_real", Budget: "rbd_presupuesto"},
		},
		Ranges: []RangeRule{
			{Column: "cpo_entrada", Min: fptr(0), Severity: model.SeverityError,
				Message: "CPO de entrada no puede ser negativo"},
			{Column: "oleina_real", Min: fptr(0), Severity: model.SeverityError,
				Message: "oleína no puede ser negativa"},
			{Column: "margarinas_real", Min: fptr(0), Severity: model.SeverityError,
				Message: "margarinas no pueden ser negativas"},
			{Column: "mermas", Min: fptr(0), Severity: model.SeverityError,
				Message: "mermas no pueden ser negativas"},
		},
		Ratios: []RatioRule{
			{Numerator: "mermas", Denominator: "cpo_entrada", MaxPct: 15,
				Severity: model.SeverityWarning,
				Message:  "mermas superiores al 15% del CPO de entrada"},
		},
	}

	return &Registry{specs: map[Kind]Spec{
		Upstream:   upstream,
		Downstream: downstream,
	}}
}

// fileRegistry is the YAML override format: kind name → spec.
type fileRegistry struct {
	Kinds map[string]Spec `yaml:"kinds"`
}

// LoadFile overlays specs from a YAML file onto the registry. Each kind
// present in the file replaces the built-in spec wholesale, so a partial
// file overrides only the kinds it names.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "schema: read registry file %s", path)
	}

	var fr fileRegistry
	if err := yaml.Unmarshal(raw, &fr); err != nil {
		return eris.Wrapf(err, "schema: parse registry file %s", path)
	}

	for name, spec := range fr.Kinds {
		kind, err := ParseKind(name)
		if err != nil {
			return eris.Wrapf(err, "schema: registry file %s", path)
		}
		if len(spec.Required) == 0 {
			return eris.Errorf("schema: registry file %s: kind %q has no required columns", path, name)
		}
		spec.Kind = kind
		if spec.DateColumn == "" {
			spec.DateColumn = "fecha"
		}
		r.specs[kind] = spec
	}
	return nil
}
