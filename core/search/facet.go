package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/olivere/elastic/v7"
)

// Facet translates one filterable, aggregatable field into engine
// query fragments and back into typed summaries. There are exactly
// three variants: TermsFacet, ModelTermsFacet and RangeFacet.
type Facet interface {
	// Field returns the engine field the facet operates on.
	Field() string

	// ToFilter translates requested filter values into filter
	// fragments, one per value. All fragments are required.
	ToFilter(values ...string) ([]interface{}, error)

	// ToQuery returns the facet's aggregation request body,
	// optionally excluding the given raw values from the buckets.
	ToQuery(excludes ...string) (map[string]interface{}, error)

	// ToAggregations returns the canonical named-aggregation dict for
	// composing the facet into a request under the given name.
	ToAggregations(name string) (map[string]interface{}, error)

	// Labelize renders a human label for a raw facet value.
	Labelize(ctx context.Context, label, value string) string

	// Extract builds a typed summary from the facet's raw aggregation
	// section. A nil section yields a neutral summary, never an
	// error. fetch controls batch entity resolution where applicable.
	Extract(ctx context.Context, agg json.RawMessage, fetch bool) (Summary, error)
}

// Summary is the typed extraction of one facet from a response.
type Summary interface {
	// Kind is one of "terms", "models" or "range".
	Kind() string
}

// TermCount is one terms bucket: a raw term and its document count.
type TermCount struct {
	Term  string
	Count int64
}

// TermsSummary is the extraction of a TermsFacet, in response bucket
// order.
type TermsSummary struct {
	Terms []TermCount
}

func (TermsSummary) Kind() string { return "terms" }

// Entity is a catalog entity referenced by a ModelTermsFacet bucket.
// When batch resolution is disabled or the identifier cannot be
// resolved, only ID and EntityKind are set (a stub).
type Entity struct {
	ID         string
	EntityKind string
	Name       string
}

// EntityLookup fetches entities of one kind by identifier in a single
// batch call. Identifiers that cannot be resolved are simply absent
// from the returned map.
type EntityLookup interface {
	GetMany(ctx context.Context, kind string, ids []string) (map[string]Entity, error)
}

// ModelCount is one model-terms bucket: a resolved entity (or stub)
// and its document count.
type ModelCount struct {
	Entity Entity
	Count  int64
}

// ModelsSummary is the extraction of a ModelTermsFacet, in response
// bucket order.
type ModelsSummary struct {
	Models []ModelCount
}

func (ModelsSummary) Kind() string { return "models" }

// RangeSummary is the extraction of a RangeFacet. Min and Max are nil
// and Visible is false when the engine reported non-finite sentinels
// (an empty stats aggregation).
type RangeSummary struct {
	Min     *float64
	Max     *float64
	Visible bool
}

func (RangeSummary) Kind() string { return "range" }

// termsBucket decodes one terms aggregation bucket. Keys may be
// strings or numbers depending on the field mapping.
type termsBucket struct {
	Key         interface{} `json:"key"`
	KeyAsString string      `json:"key_as_string"`
	DocCount    int64       `json:"doc_count"`
}

func (b termsBucket) key() string {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}
	switch key := b.Key.(type) {
	case string:
		return key
	case float64:
		return strconv.FormatFloat(key, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", key)
	}
}

func decodeTermsBuckets(agg json.RawMessage) ([]termsBucket, error) {
	var parsed struct {
		Buckets []termsBucket `json:"buckets"`
	}
	if err := json.Unmarshal(agg, &parsed); err != nil {
		return nil, fmt.Errorf("decode terms aggregation: %w", err)
	}
	return parsed.Buckets, nil
}

func termsAggSource(field string, size int, excludes []string) (map[string]interface{}, error) {
	agg := elastic.NewTermsAggregation().Field(field).Size(size)
	if len(excludes) > 0 {
		values := make([]interface{}, len(excludes))
		for i, exclude := range excludes {
			values[i] = exclude
		}
		agg = agg.ExcludeValues(values...)
	}
	src, err := agg.Source()
	if err != nil {
		return nil, err
	}
	return src.(map[string]interface{}), nil
}

func termFilters(field string, values []string) ([]interface{}, error) {
	fragments := make([]interface{}, 0, len(values))
	for _, value := range values {
		src, err := elastic.NewTermQuery(field, value).Source()
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, src)
	}
	return fragments, nil
}

// TermsFacet filters and aggregates raw terms on a single field.
type TermsFacet struct {
	// FieldName is the engine field holding the terms.
	FieldName string
	// Size caps the bucket count; DefaultTermsSize when zero.
	Size int
}

func (f *TermsFacet) Field() string { return f.FieldName }

func (f *TermsFacet) size() int {
	if f.Size > 0 {
		return f.Size
	}
	return DefaultTermsSize
}

func (f *TermsFacet) ToFilter(values ...string) ([]interface{}, error) {
	return termFilters(f.FieldName, values)
}

func (f *TermsFacet) ToQuery(excludes ...string) (map[string]interface{}, error) {
	return termsAggSource(f.FieldName, f.size(), excludes)
}

func (f *TermsFacet) ToAggregations(name string) (map[string]interface{}, error) {
	body, err := f.ToQuery()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{name: body}, nil
}

// Labelize returns the raw term unchanged.
func (f *TermsFacet) Labelize(_ context.Context, _, value string) string {
	return value
}

func (f *TermsFacet) Extract(_ context.Context, agg json.RawMessage, _ bool) (Summary, error) {
	summary := TermsSummary{Terms: []TermCount{}}
	if len(agg) == 0 {
		return summary, nil
	}
	buckets, err := decodeTermsBuckets(agg)
	if err != nil {
		return summary, err
	}
	for _, bucket := range buckets {
		summary.Terms = append(summary.Terms, TermCount{Term: bucket.key(), Count: bucket.DocCount})
	}
	return summary, nil
}

// ModelTermsFacet behaves like TermsFacet except that bucket keys are
// entity identifiers resolved against an entity store.
type ModelTermsFacet struct {
	// FieldName is the engine field holding the entity identifiers.
	FieldName string
	// EntityKind names the referenced entity kind, reported on stubs.
	EntityKind string
	// Entities resolves bucket identifiers in one batch call. When
	// nil, extraction always yields stubs.
	Entities EntityLookup
	// Size caps the bucket count; DefaultTermsSize when zero.
	Size int
}

func (f *ModelTermsFacet) Field() string { return f.FieldName }

func (f *ModelTermsFacet) size() int {
	if f.Size > 0 {
		return f.Size
	}
	return DefaultTermsSize
}

func (f *ModelTermsFacet) ToFilter(values ...string) ([]interface{}, error) {
	return termFilters(f.FieldName, values)
}

func (f *ModelTermsFacet) ToQuery(excludes ...string) (map[string]interface{}, error) {
	return termsAggSource(f.FieldName, f.size(), excludes)
}

func (f *ModelTermsFacet) ToAggregations(name string) (map[string]interface{}, error) {
	body, err := f.ToQuery()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{name: body}, nil
}

// Labelize renders the display name of the entity behind the
// identifier, falling back to the raw identifier when it cannot be
// resolved.
func (f *ModelTermsFacet) Labelize(ctx context.Context, _, value string) string {
	if f.Entities == nil {
		return value
	}
	entities, err := f.Entities.GetMany(ctx, f.EntityKind, []string{value})
	if err != nil {
		return value
	}
	if entity, ok := entities[value]; ok && entity.Name != "" {
		return entity.Name
	}
	return value
}

// Extract resolves all bucket identifiers with a single batch lookup,
// never one lookup per bucket. With fetch disabled (or no lookup
// wired) every bucket yields a stub, preserving count pairing and
// bucket order.
func (f *ModelTermsFacet) Extract(ctx context.Context, agg json.RawMessage, fetch bool) (Summary, error) {
	summary := ModelsSummary{Models: []ModelCount{}}
	if len(agg) == 0 {
		return summary, nil
	}
	buckets, err := decodeTermsBuckets(agg)
	if err != nil {
		return summary, err
	}

	var resolved map[string]Entity
	if fetch && f.Entities != nil {
		ids := make([]string, len(buckets))
		for i, bucket := range buckets {
			ids[i] = bucket.key()
		}
		if resolved, err = f.Entities.GetMany(ctx, f.EntityKind, ids); err != nil {
			return summary, fmt.Errorf("resolve %s facet entities: %w", f.EntityKind, err)
		}
	}

	for _, bucket := range buckets {
		id := bucket.key()
		entity, ok := resolved[id]
		if !ok {
			entity = Entity{ID: id, EntityKind: f.EntityKind}
		}
		summary.Models = append(summary.Models, ModelCount{Entity: entity, Count: bucket.DocCount})
	}
	return summary, nil
}

// LabeledRange is a predefined, human-labeled sub-range. It is only
// used for labeling buckets; filters are always parsed from the
// literal request value.
type LabeledRange struct {
	Label string
	// Min and Max bound the sub-range; nil means unbounded.
	Min *float64
	Max *float64
}

// RangeFacet aggregates a numeric field as a statistical summary and
// filters it by inclusive "<low>-<high>" bounds.
type RangeFacet struct {
	// FieldName is the numeric engine field.
	FieldName string
	// Ranges are the declared labeled sub-ranges.
	Ranges []LabeledRange
}

func (f *RangeFacet) Field() string { return f.FieldName }

// ToFilter parses each value as "<low>-<high>" into an inclusive range
// fragment. The declared label ranges are never consulted here.
func (f *RangeFacet) ToFilter(values ...string) ([]interface{}, error) {
	fragments := make([]interface{}, 0, len(values))
	for _, value := range values {
		low, high, err := parseRangeValue(value)
		if err != nil {
			return nil, InvalidFilterError{Facet: f.FieldName, Value: value, Err: err}
		}
		fragments = append(fragments, map[string]interface{}{
			"range": map[string]interface{}{
				f.FieldName: map[string]interface{}{
					"gte": low,
					"lte": high,
				},
			},
		})
	}
	return fragments, nil
}

func parseRangeValue(value string) (low, high float64, err error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"<low>-<high>\"")
	}
	if low, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return 0, 0, fmt.Errorf("lower bound %q is not a number", parts[0])
	}
	if high, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return 0, 0, fmt.Errorf("upper bound %q is not a number", parts[1])
	}
	return low, high, nil
}

func (f *RangeFacet) ToQuery(_ ...string) (map[string]interface{}, error) {
	src, err := elastic.NewStatsAggregation().Field(f.FieldName).Source()
	if err != nil {
		return nil, err
	}
	return src.(map[string]interface{}), nil
}

func (f *RangeFacet) ToAggregations(name string) (map[string]interface{}, error) {
	body, err := f.ToQuery()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{name: body}, nil
}

// Labelize prefixes the raw value with the declared label.
func (f *RangeFacet) Labelize(_ context.Context, label, value string) string {
	return label + ": " + value
}

// Extract normalizes the stats aggregation. Non-finite sentinels
// (infinities, NaN, reported either as JSON strings or as unexpected
// numbers) collapse both bounds to nil with Visible false: they are
// not representable in interchange formats and must not leak out.
func (f *RangeFacet) Extract(_ context.Context, agg json.RawMessage, _ bool) (Summary, error) {
	summary := RangeSummary{}
	if len(agg) == 0 {
		return summary, nil
	}
	var parsed struct {
		Min json.RawMessage `json:"min"`
		Max json.RawMessage `json:"max"`
	}
	if err := json.Unmarshal(agg, &parsed); err != nil {
		return summary, fmt.Errorf("decode stats aggregation: %w", err)
	}

	min := finiteStatValue(parsed.Min)
	max := finiteStatValue(parsed.Max)
	if min == nil || max == nil {
		return RangeSummary{}, nil
	}
	return RangeSummary{Min: min, Max: max, Visible: true}, nil
}

// finiteStatValue parses a stats field, mapping null, string-encoded
// sentinels ("Infinity", "-Infinity", "NaN") and non-finite numbers to
// nil.
func finiteStatValue(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		return nil
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return nil
	}
	return &number
}
