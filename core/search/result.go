package search

import (
	"context"
	"encoding/json"
	"fmt"
)

// TotalHits decodes the hits.total section, accepting both the legacy
// bare integer and the `{value, relation}` object newer engines report.
type TotalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

func (t *TotalHits) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '{' {
		type plain TotalHits
		var decoded plain
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		*t = TotalHits(decoded)
		return nil
	}
	return json.Unmarshal(data, &t.Value)
}

// Hit is one search hit. Source is kept raw for callers that hydrate
// documents themselves.
type Hit struct {
	ID     string          `json:"_id"`
	Index  string          `json:"_index"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Response is the raw engine response consumed by the result mapper.
// Every section may be absent.
type Response struct {
	Hits struct {
		Total    TotalHits `json:"total"`
		MaxScore float64   `json:"max_score"`
		Hits     []Hit     `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// Result wraps a raw response together with the query that produced
// it. All accessors are computed from the raw payload on demand and
// default to empty or zero values when a section is missing.
type Result struct {
	Query    *Query
	Response Response
}

// NewResult wraps a decoded response.
func NewResult(query *Query, response Response) *Result {
	return &Result{Query: query, Response: response}
}

// NewResultFromJSON decodes a raw response payload.
func NewResultFromJSON(query *Query, raw []byte) (*Result, error) {
	var response Response
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return NewResult(query, response), nil
}

// Total is the reported hit count, 0 when absent.
func (r *Result) Total() int64 {
	return r.Response.Hits.Total.Value
}

// MaxScore is the reported maximum relevance score, 0 when absent.
func (r *Result) MaxScore() float64 {
	return r.Response.Hits.MaxScore
}

// IDs returns the hit identifiers in reported order.
func (r *Result) IDs() []string {
	ids := make([]string, 0, len(r.Response.Hits.Hits))
	for _, hit := range r.Response.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids
}

// PageSize is the page size the query was compiled with.
func (r *Result) PageSize() int {
	return r.Query.PageSize()
}

// Pages is the total page count, 0 for an empty result set.
func (r *Result) Pages() int {
	total := r.Total()
	if total <= 0 {
		return 0
	}
	size := int64(r.PageSize())
	return int((total + size - 1) / size)
}

// Page is the requested page, forced to 1 when the result set is
// empty: echoing back a page beyond an empty result is meaningless.
func (r *Result) Page() int {
	if r.Pages() == 0 {
		return 1
	}
	return r.Query.Page()
}

// Facet extracts the typed summary of one declared facet from the
// response aggregations. fetch enables batch entity resolution for
// model-terms facets. An absent aggregation section yields a neutral
// summary.
func (r *Result) Facet(ctx context.Context, name string, fetch bool) (Summary, error) {
	facet, ok := r.Query.Adapter.Facets[name]
	if !ok {
		return nil, fmt.Errorf("facet %q is not declared by adapter %q", name, r.Query.Adapter.DocType)
	}
	return facet.Extract(ctx, r.Response.Aggregations[FacetAggKey(name)], fetch)
}
