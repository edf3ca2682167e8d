package search

import "fmt"

// Param is a scoring-function parameter that is either a literal or a
// supplier resolved when the query is compiled. Suppliers let adapter
// declarations reference values that are only known at compile time
// (rolling averages, current maxima) without recomputing them at
// declaration time.
type Param struct {
	set      bool
	value    float64
	supplier func() (float64, error)
}

// Literal wraps a constant parameter value.
func Literal(value float64) Param {
	return Param{set: true, value: value}
}

// Lazy wraps a zero-argument supplier. The compiler invokes it exactly
// once per build; a supplier error aborts the build, since a scoring
// function cannot silently default.
func Lazy(supplier func() (float64, error)) Param {
	return Param{set: true, supplier: supplier}
}

// Defined reports whether the parameter was supplied at all.
func (p Param) Defined() bool { return p.set }

// Resolve returns the parameter value, invoking the supplier if any.
func (p Param) Resolve() (float64, error) {
	if p.supplier != nil {
		return p.supplier()
	}
	return p.value, nil
}

// Booster produces one scoring function fragment for the
// function_score envelope.
type Booster interface {
	Function() (map[string]interface{}, error)
}

// BoolBooster multiplies the score of documents whose field is true.
type BoolBooster struct {
	Field  string
	Factor Param
}

func (b *BoolBooster) Function() (map[string]interface{}, error) {
	if !b.Factor.Defined() {
		return nil, fmt.Errorf("boost factor for %q is not set", b.Field)
	}
	factor, err := b.Factor.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve boost factor for %q: %w", b.Field, err)
	}
	return map[string]interface{}{
		"filter": map[string]interface{}{
			"term": map[string]interface{}{b.Field: true},
		},
		"boost_factor": factor,
	}, nil
}

// FunctionBooster scores documents with a literal script.
type FunctionBooster struct {
	Script string
}

func (b *FunctionBooster) Function() (map[string]interface{}, error) {
	return map[string]interface{}{
		"script_score": map[string]interface{}{"script": b.Script},
	}, nil
}

// DecayKind selects the decay curve of a DecayFunction.
type DecayKind string

const (
	DecayGauss  DecayKind = "gauss"
	DecayExp    DecayKind = "exp"
	DecayLinear DecayKind = "linear"
)

// DecayFunction scores documents by distance of a numeric field from
// an origin. Scale defaults to Origin when left undefined; Offset and
// Decay are omitted from the fragment when undefined.
type DecayFunction struct {
	Kind   DecayKind
	Field  string
	Origin Param
	Scale  Param
	Offset Param
	Decay  Param
}

// GaussDecay declares a gaussian decay on field around origin.
func GaussDecay(field string, origin Param) *DecayFunction {
	return &DecayFunction{Kind: DecayGauss, Field: field, Origin: origin}
}

// ExpDecay declares an exponential decay on field around origin.
func ExpDecay(field string, origin Param) *DecayFunction {
	return &DecayFunction{Kind: DecayExp, Field: field, Origin: origin}
}

// LinearDecay declares a linear decay on field around origin.
func LinearDecay(field string, origin Param) *DecayFunction {
	return &DecayFunction{Kind: DecayLinear, Field: field, Origin: origin}
}

func (d *DecayFunction) Function() (map[string]interface{}, error) {
	origin, err := d.Origin.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve %s origin for %q: %w", d.Kind, d.Field, err)
	}

	scale := origin
	if d.Scale.Defined() {
		if scale, err = d.Scale.Resolve(); err != nil {
			return nil, fmt.Errorf("resolve %s scale for %q: %w", d.Kind, d.Field, err)
		}
	}

	params := map[string]interface{}{
		"origin": origin,
		"scale":  scale,
	}
	if d.Offset.Defined() {
		offset, err := d.Offset.Resolve()
		if err != nil {
			return nil, fmt.Errorf("resolve %s offset for %q: %w", d.Kind, d.Field, err)
		}
		params["offset"] = offset
	}
	if d.Decay.Defined() {
		decay, err := d.Decay.Resolve()
		if err != nil {
			return nil, fmt.Errorf("resolve %s decay for %q: %w", d.Kind, d.Field, err)
		}
		params["decay"] = decay
	}

	return map[string]interface{}{
		string(d.Kind): map[string]interface{}{d.Field: params},
	}, nil
}
