package search

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/olivere/elastic/v7"
)

// Query couples an adapter with request parameters. It is an immutable
// value object: compile it with Build, execute the compiled document
// through a transport and wrap the raw response in a Result.
type Query struct {
	Adapter *Adapter
	Params  Params
}

// New builds a query for an adapter after validating the parameters.
func New(adapter *Adapter, params Params) (*Query, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Query{Adapter: adapter, Params: params}, nil
}

// ForType builds a query for the adapter registered under docType.
func ForType(docType string, params Params) (*Query, error) {
	adapter, err := Lookup(docType)
	if err != nil {
		return nil, err
	}
	return New(adapter, params)
}

// Page returns the requested page, defaulted.
func (q *Query) Page() int {
	if q.Params.Page > 0 {
		return q.Params.Page
	}
	return DefaultPage
}

// PageSize returns the requested page size, defaulted.
func (q *Query) PageSize() int {
	if q.Params.PageSize > 0 {
		return q.Params.PageSize
	}
	return DefaultPageSize
}

// Build compiles the full query document: match clause, facet filters,
// aggregations, sort and the pagination window, wrapped in a
// function_score envelope when the adapter declares boosters.
func (q *Query) Build() (map[string]interface{}, error) {
	query, err := q.buildQuery()
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"query": query,
		"from":  (q.Page() - 1) * q.PageSize(),
		"size":  q.PageSize(),
	}

	aggs, err := q.buildAggregations()
	if err != nil {
		return nil, err
	}
	if len(aggs) > 0 {
		body["aggs"] = aggs
	}

	if sorts := q.buildSort(); len(sorts) > 0 {
		body["sort"] = sorts
	}

	return body, nil
}

// Body returns the compiled document JSON-encoded, ready to be posted
// to the engine.
func (q *Query) Body() (io.Reader, error) {
	body, err := q.Build()
	if err != nil {
		return nil, err
	}
	payload := new(bytes.Buffer)
	if err := json.NewEncoder(payload).Encode(body); err != nil {
		return nil, err
	}
	return payload, nil
}

func (q *Query) buildQuery() (map[string]interface{}, error) {
	var must, mustNot []interface{}

	positive, negative := partitionTerms(q.Params.Query)
	if positive != "" {
		clause, err := q.matchClause(positive)
		if err != nil {
			return nil, err
		}
		must = append(must, clause)
	}
	if negative != "" {
		clause, err := q.matchClause(negative)
		if err != nil {
			return nil, err
		}
		mustNot = append(mustNot, clause)
	}

	filters, err := q.buildFilters()
	if err != nil {
		return nil, err
	}
	must = append(must, filters...)

	var query map[string]interface{}
	switch {
	case len(must) == 0 && len(mustNot) == 0:
		query = map[string]interface{}{"match_all": map[string]interface{}{}}
	default:
		boolQuery := map[string]interface{}{}
		if len(must) > 0 {
			boolQuery["must"] = must
		}
		if len(mustNot) > 0 {
			boolQuery["must_not"] = mustNot
		}
		query = map[string]interface{}{"bool": boolQuery}
	}

	if len(q.Adapter.Boosters) == 0 {
		return query, nil
	}

	functions := make([]interface{}, 0, len(q.Adapter.Boosters))
	for _, booster := range q.Adapter.Boosters {
		function, err := booster.Function()
		if err != nil {
			return nil, err
		}
		functions = append(functions, function)
	}
	return map[string]interface{}{
		"function_score": map[string]interface{}{
			"query":     query,
			"functions": functions,
		},
	}, nil
}

// partitionTerms tokenizes the text on whitespace and splits tokens by
// polarity: tokens with a leading `-` are negated. Each polarity is
// rejoined into a single phrase.
func partitionTerms(text string) (positive, negative string) {
	var included, excluded []string
	for _, token := range strings.Fields(text) {
		if strings.HasPrefix(token, "-") {
			if token = token[1:]; token != "" {
				excluded = append(excluded, token)
			}
			continue
		}
		included = append(included, token)
	}
	return strings.Join(included, " "), strings.Join(excluded, " ")
}

func (q *Query) matchClause(phrase string) (interface{}, error) {
	clause := elastic.NewMultiMatchQuery(phrase, q.Adapter.Fields...).
		Type(q.Adapter.matchType()).
		Analyzer(q.Adapter.analyzer())
	if q.Adapter.Fuzzy {
		clause = clause.Fuzziness("AUTO").PrefixLength(2)
	}
	return clause.Source()
}

// buildFilters translates every recognized facet parameter into filter
// fragments, in deterministic facet-name order. A multi-valued
// parameter yields one required fragment per value. Unknown facet
// names are ignored.
func (q *Query) buildFilters() ([]interface{}, error) {
	names := make([]string, 0, len(q.Params.Filters))
	for name := range q.Params.Filters {
		if _, ok := q.Adapter.Facets[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var fragments []interface{}
	for _, name := range names {
		facet := q.Adapter.Facets[name]
		frags, err := facet.ToFilter(q.Params.Filters[name]...)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, frags...)
	}
	return fragments, nil
}

func (q *Query) buildAggregations() (map[string]interface{}, error) {
	aggs := map[string]interface{}{}
	for _, name := range q.Params.Facets.Names(q.Adapter) {
		body, err := q.Adapter.Facets[name].ToQuery()
		if err != nil {
			return nil, err
		}
		aggs[FacetAggKey(name)] = body
	}
	return aggs, nil
}

// buildSort maps sort tokens through the adapter's sort map. A leading
// `-` sorts descending; tokens without a declared mapping are skipped.
func (q *Query) buildSort() []interface{} {
	var sorts []interface{}
	for _, token := range q.Params.Sort {
		direction := "asc"
		if strings.HasPrefix(token, "-") {
			direction = "desc"
			token = token[1:]
		}
		field, ok := q.Adapter.Sorts[token]
		if !ok {
			continue
		}
		sorts = append(sorts, map[string]interface{}{field: direction})
	}
	return sorts
}
