// Package search compiles typed search parameters into Elasticsearch
// query documents and maps raw responses back into typed, paginated,
// facetable results. Catalog entities declare an Adapter describing how
// they are searched; the adapter registry binds document types to their
// adapters at startup.
package search

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goto/scout/core/validator"
)

const (
	// DefaultPage is used when a query does not carry a page number.
	DefaultPage = 1
	// DefaultPageSize is used when a query does not carry a page size.
	DefaultPageSize = 20
	// DefaultTermsSize caps the number of buckets returned by terms
	// aggregations.
	DefaultTermsSize = 20

	facetAggPrefix = "_filter_"
)

// FacetAggKey returns the aggregation key under which a facet's
// aggregation is requested and reported. The prefix keeps the key
// naming compatible with the filtered-facets pattern.
func FacetAggKey(name string) string {
	return facetAggPrefix + name
}

// Params is the set of request parameters a query is compiled from.
// The zero value of Page and PageSize means "not supplied"; defaults
// are applied at compile time.
type Params struct {
	// Query is the free-text search string. A token with a leading
	// `-` excludes documents matching it.
	Query string

	Page     int `json:"page" validate:"omitempty,gte=1"`
	PageSize int `json:"page_size" validate:"omitempty,gte=1"`

	// Sort lists sort keys declared in the adapter's sort map. A
	// leading `-` sorts descending.
	Sort []string

	// Facets selects which facet aggregations the compiled query
	// requests.
	Facets FacetSelection

	// Filters maps facet names to requested filter values. Names not
	// declared by the adapter are ignored.
	Filters map[string][]string
}

// Validate checks boundary constraints on the parameters.
func (p *Params) Validate() error {
	return validator.ValidateStruct(p)
}

// FacetSelection controls which facet aggregations are added to a
// compiled query: none (zero value), all declared facets, or an
// explicit list of facet names.
type FacetSelection struct {
	all   bool
	names []string
}

// AllFacets selects every facet declared by the adapter.
func AllFacets() FacetSelection {
	return FacetSelection{all: true}
}

// SelectFacets selects only the named facets.
func SelectFacets(names ...string) FacetSelection {
	return FacetSelection{names: names}
}

// ParseFacetSelection interprets the `facets` URL parameter values:
// boolean truths and "all" select every facet, anything else is read
// as a comma separated facet name list.
func ParseFacetSelection(values ...string) FacetSelection {
	var names []string
	for _, value := range values {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "":
			continue
		case "true", "all", "1":
			return AllFacets()
		case "false", "0":
			continue
		default:
			for _, name := range strings.Split(value, ",") {
				if name = strings.TrimSpace(name); name != "" {
					names = append(names, name)
				}
			}
		}
	}
	return FacetSelection{names: names}
}

// Names resolves the selection against an adapter's declared facets.
// Selected-but-undeclared names are skipped. Order is deterministic.
func (s FacetSelection) Names(adapter *Adapter) []string {
	if s.all {
		names := make([]string, 0, len(adapter.Facets))
		for name := range adapter.Facets {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}

	var names []string
	for _, name := range s.names {
		if _, ok := adapter.Facets[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// ParamsFromValues parses the URL query surface into Params:
// `q`, `page`, `page_size`, `sort`, `facets`; every other key is
// treated as a facet filter and may be repeated.
func ParamsFromValues(values url.Values) (Params, error) {
	params := Params{Filters: map[string][]string{}}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case "q":
			params.Query = vals[0]
		case "page":
			page, err := strconv.Atoi(vals[0])
			if err != nil {
				return params, fmt.Errorf("invalid page %q: %w", vals[0], err)
			}
			params.Page = page
		case "page_size":
			size, err := strconv.Atoi(vals[0])
			if err != nil {
				return params, fmt.Errorf("invalid page_size %q: %w", vals[0], err)
			}
			params.PageSize = size
		case "sort":
			for _, val := range vals {
				for _, token := range strings.Split(val, ",") {
					if token = strings.TrimSpace(token); token != "" {
						params.Sort = append(params.Sort, token)
					}
				}
			}
		case "facets":
			params.Facets = ParseFacetSelection(vals...)
		default:
			params.Filters[key] = append(params.Filters[key], vals...)
		}
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}
