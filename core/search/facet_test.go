package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/scout/core/search"
)

// fakeEntityLookup records batch calls and serves a fixed entity set.
type fakeEntityLookup struct {
	entities map[string]search.Entity
	calls    [][]string
	err      error
}

func (f *fakeEntityLookup) GetMany(_ context.Context, _ string, ids []string) (map[string]search.Entity, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]search.Entity{}
	for _, id := range ids {
		if entity, ok := f.entities[id]; ok {
			out[id] = entity
		}
	}
	return out, nil
}

func TestTermsFacetToFilter(t *testing.T) {
	facet := &search.TermsFacet{FieldName: "tags"}
	fragments, err := facet.ToFilter("efg", "hij")
	require.NoError(t, err)

	expected := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"tags": "efg"}},
		map[string]interface{}{"term": map[string]interface{}{"tags": "hij"}},
	}
	if diff := cmp.Diff(expected, jsonRoundTrip(t, fragments)); diff != "" {
		t.Errorf("unexpected fragments (-want +got):\n%s", diff)
	}
}

func TestTermsFacetToQuery(t *testing.T) {
	type testCase struct {
		Description string
		Facet       *search.TermsFacet
		Excludes    []string
		Expected    string
	}
	var testCases = []testCase{
		{
			Description: "the bucket count is capped by default",
			Facet:       &search.TermsFacet{FieldName: "tags"},
			Expected:    `{"terms":{"field":"tags","size":20}}`,
		},
		{
			Description: "a declared size overrides the default cap",
			Facet:       &search.TermsFacet{FieldName: "tags", Size: 5},
			Expected:    `{"terms":{"field":"tags","size":5}}`,
		},
		{
			Description: "excluded values are kept out of the buckets",
			Facet:       &search.TermsFacet{FieldName: "tags"},
			Excludes:    []string{"spam"},
			Expected:    `{"terms":{"field":"tags","size":20,"exclude":["spam"]}}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			body, err := tc.Facet.ToQuery(tc.Excludes...)
			require.NoError(t, err)
			assert.JSONEq(t, tc.Expected, string(mustMarshal(t, body)))
		})
	}
}

func TestTermsFacetToAggregations(t *testing.T) {
	facet := &search.TermsFacet{FieldName: "tags"}
	aggs, err := facet.ToAggregations("tag")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":{"terms":{"field":"tags","size":20}}}`, string(mustMarshal(t, aggs)))
}

func TestTermsFacetExtract(t *testing.T) {
	facet := &search.TermsFacet{FieldName: "tags"}

	summary, err := facet.Extract(context.Background(), json.RawMessage(`{
		"buckets": [
			{"key": "format", "doc_count": 5},
			{"key": 42, "doc_count": 2},
			{"key": 1, "key_as_string": "true", "doc_count": 1}
		]
	}`), false)
	require.NoError(t, err)

	expected := search.TermsSummary{Terms: []search.TermCount{
		{Term: "format", Count: 5},
		{Term: "42", Count: 2},
		{Term: "true", Count: 1},
	}}
	assert.Equal(t, expected, summary)
	assert.Equal(t, "terms", summary.Kind())
}

func TestTermsFacetExtractAbsentAggregation(t *testing.T) {
	facet := &search.TermsFacet{FieldName: "tags"}
	summary, err := facet.Extract(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, search.TermsSummary{Terms: []search.TermCount{}}, summary)
}

func TestModelTermsFacetExtract(t *testing.T) {
	lookup := &fakeEntityLookup{entities: map[string]search.Entity{
		"org-1": {ID: "org-1", EntityKind: "organization", Name: "First Org"},
	}}
	facet := &search.ModelTermsFacet{
		FieldName:  "organization",
		EntityKind: "organization",
		Entities:   lookup,
	}

	agg := json.RawMessage(`{"buckets": [
		{"key": "org-1", "doc_count": 3},
		{"key": "org-2", "doc_count": 1}
	]}`)

	summary, err := facet.Extract(context.Background(), agg, true)
	require.NoError(t, err)

	expected := search.ModelsSummary{Models: []search.ModelCount{
		{Entity: search.Entity{ID: "org-1", EntityKind: "organization", Name: "First Org"}, Count: 3},
		{Entity: search.Entity{ID: "org-2", EntityKind: "organization"}, Count: 1},
	}}
	assert.Equal(t, expected, summary)
	assert.Equal(t, "models", summary.Kind())

	require.Len(t, lookup.calls, 1, "all identifiers must be resolved in one batch")
	assert.Equal(t, []string{"org-1", "org-2"}, lookup.calls[0])
}

func TestModelTermsFacetExtractWithoutFetch(t *testing.T) {
	lookup := &fakeEntityLookup{entities: map[string]search.Entity{
		"org-1": {ID: "org-1", EntityKind: "organization", Name: "First Org"},
	}}
	facet := &search.ModelTermsFacet{
		FieldName:  "organization",
		EntityKind: "organization",
		Entities:   lookup,
	}

	agg := json.RawMessage(`{"buckets": [{"key": "org-1", "doc_count": 3}]}`)
	summary, err := facet.Extract(context.Background(), agg, false)
	require.NoError(t, err)

	expected := search.ModelsSummary{Models: []search.ModelCount{
		{Entity: search.Entity{ID: "org-1", EntityKind: "organization"}, Count: 3},
	}}
	assert.Equal(t, expected, summary)
	assert.Empty(t, lookup.calls, "fetch disabled must not hit the entity store")
}

func TestModelTermsFacetExtractLookupError(t *testing.T) {
	lookup := &fakeEntityLookup{err: errors.New("connection refused")}
	facet := &search.ModelTermsFacet{
		FieldName:  "organization",
		EntityKind: "organization",
		Entities:   lookup,
	}

	agg := json.RawMessage(`{"buckets": [{"key": "org-1", "doc_count": 3}]}`)
	_, err := facet.Extract(context.Background(), agg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestModelTermsFacetLabelize(t *testing.T) {
	lookup := &fakeEntityLookup{entities: map[string]search.Entity{
		"org-1": {ID: "org-1", EntityKind: "organization", Name: "First Org"},
	}}
	facet := &search.ModelTermsFacet{
		FieldName:  "organization",
		EntityKind: "organization",
		Entities:   lookup,
	}

	assert.Equal(t, "First Org", facet.Labelize(context.Background(), "", "org-1"))
	assert.Equal(t, "org-9", facet.Labelize(context.Background(), "", "org-9"))
}

func TestRangeFacetToFilter(t *testing.T) {
	facet := &search.RangeFacet{FieldName: "metrics.reuses"}

	fragments, err := facet.ToFilter("3-8")
	require.NoError(t, err)
	require.Len(t, fragments, 1)

	expected := map[string]interface{}{
		"range": map[string]interface{}{
			"metrics.reuses": map[string]interface{}{
				"gte": float64(3),
				"lte": float64(8),
			},
		},
	}
	if diff := cmp.Diff(expected, jsonRoundTrip(t, fragments)[0]); diff != "" {
		t.Errorf("unexpected fragment (-want +got):\n%s", diff)
	}
}

func TestRangeFacetToFilterInvalidValues(t *testing.T) {
	facet := &search.RangeFacet{FieldName: "metrics.reuses"}
	for _, value := range []string{"", "5", "a-b", "1-b"} {
		_, err := facet.ToFilter(value)
		require.Error(t, err, "value %q", value)
		var invalid search.InvalidFilterError
		assert.True(t, errors.As(err, &invalid))
	}
}

func TestRangeFacetToQuery(t *testing.T) {
	facet := &search.RangeFacet{FieldName: "metrics.reuses"}
	body, err := facet.ToQuery()
	require.NoError(t, err)
	assert.JSONEq(t, `{"stats":{"field":"metrics.reuses"}}`, string(mustMarshal(t, body)))
}

func TestRangeFacetExtract(t *testing.T) {
	type testCase struct {
		Description string
		Agg         string
		Expected    search.RangeSummary
	}
	min, max := 3.0, 42.0
	var testCases = []testCase{
		{
			Description: "finite stats are reported and visible",
			Agg:         `{"min": 3, "max": 42, "avg": 12.5}`,
			Expected:    search.RangeSummary{Min: &min, Max: &max, Visible: true},
		},
		{
			Description: "string-encoded infinity sentinels collapse to nothing",
			Agg:         `{"min": "Infinity", "max": "-Infinity"}`,
			Expected:    search.RangeSummary{},
		},
		{
			Description: "a NaN sentinel collapses to nothing",
			Agg:         `{"min": "NaN", "max": 42}`,
			Expected:    search.RangeSummary{},
		},
		{
			Description: "null stats collapse to nothing",
			Agg:         `{"min": null, "max": null}`,
			Expected:    search.RangeSummary{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			facet := &search.RangeFacet{FieldName: "metrics.reuses"}
			summary, err := facet.Extract(context.Background(), json.RawMessage(tc.Agg), false)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, summary)
		})
	}
}

func TestRangeFacetExtractAbsentAggregation(t *testing.T) {
	facet := &search.RangeFacet{FieldName: "metrics.reuses"}
	summary, err := facet.Extract(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, search.RangeSummary{}, summary)
	assert.Equal(t, "range", summary.Kind())
}

func TestRangeFacetLabelize(t *testing.T) {
	facet := &search.RangeFacet{FieldName: "metrics.reuses"}
	assert.Equal(t, "Never reused: 0-1", facet.Labelize(context.Background(), "Never reused", "0-1"))
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func jsonRoundTrip(t *testing.T, fragments []interface{}) []interface{} {
	t.Helper()
	var out []interface{}
	require.NoError(t, json.Unmarshal(mustMarshal(t, fragments), &out))
	return out
}
