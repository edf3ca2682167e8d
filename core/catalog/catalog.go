// Package catalog declares the search adapters for the catalog's
// document types and wires them into the adapter registry at startup.
package catalog

import (
	"github.com/goto/scout/core/search"
)

// Adapters returns the catalog's adapter declarations. entities backs
// the model-terms facets; it may be nil, in which case those facets
// extract identifier stubs instead of resolved entities.
func Adapters(entities search.EntityLookup) []*search.Adapter {
	return []*search.Adapter{
		datasetAdapter(entities),
		organizationAdapter(),
		reuseAdapter(entities),
	}
}

// Register registers every catalog adapter. Call it once during
// startup, before any query is compiled.
func Register(entities search.EntityLookup) error {
	for _, adapter := range Adapters(entities) {
		if err := search.Register(adapter); err != nil {
			return err
		}
	}
	return nil
}

func datasetAdapter(entities search.EntityLookup) *search.Adapter {
	return &search.Adapter{
		DocType: "dataset",
		Fields:  []string{"title^3", "acronym^2", "description", "tags"},
		Facets: map[string]search.Facet{
			"tag":    &search.TermsFacet{FieldName: "tags"},
			"format": &search.TermsFacet{FieldName: "format"},
			"organization": &search.ModelTermsFacet{
				FieldName:  "organization",
				EntityKind: "organization",
				Entities:   entities,
			},
			"reuses": &search.RangeFacet{
				FieldName: "metrics.reuses",
				Ranges: []search.LabeledRange{
					{Label: "Never reused", Max: bound(1)},
					{Label: "Little reused", Min: bound(1), Max: bound(5)},
					{Label: "Quite reused", Min: bound(5), Max: bound(10)},
					{Label: "Heavily reused", Min: bound(10)},
				},
			},
		},
		Sorts: map[string]string{
			"title":   "title.raw",
			"created": "created_at",
			"reuses":  "metrics.reuses",
		},
		Fuzzy: true,
		Boosters: []search.Booster{
			&search.BoolBooster{Field: "featured", Factor: search.Literal(1.1)},
			search.GaussDecay("metrics.reuses", search.Literal(10)),
		},
	}
}

func organizationAdapter() *search.Adapter {
	return &search.Adapter{
		DocType: "organization",
		Fields:  []string{"name^3", "acronym^2", "description"},
		Facets: map[string]search.Facet{
			"badge": &search.TermsFacet{FieldName: "badges"},
			"datasets": &search.RangeFacet{
				FieldName: "metrics.datasets",
				Ranges: []search.LabeledRange{
					{Label: "No dataset", Max: bound(1)},
					{Label: "Few datasets", Min: bound(1), Max: bound(5)},
					{Label: "Many datasets", Min: bound(5)},
				},
			},
		},
		Sorts: map[string]string{
			"name":      "name.raw",
			"datasets":  "metrics.datasets",
			"followers": "metrics.followers",
		},
		Boosters: []search.Booster{
			&search.FunctionBooster{Script: "4 * doc['metrics.followers'].value"},
		},
	}
}

func reuseAdapter(entities search.EntityLookup) *search.Adapter {
	return &search.Adapter{
		DocType: "reuse",
		Fields:  []string{"title^2", "description"},
		Facets: map[string]search.Facet{
			"tag":  &search.TermsFacet{FieldName: "tags"},
			"type": &search.TermsFacet{FieldName: "type"},
			"organization": &search.ModelTermsFacet{
				FieldName:  "organization",
				EntityKind: "organization",
				Entities:   entities,
			},
		},
		Sorts: map[string]string{
			"title":   "title.raw",
			"created": "created_at",
		},
		Fuzzy: true,
		Boosters: []search.Booster{
			search.GaussDecay("metrics.followers", search.Literal(20)),
		},
	}
}

func bound(v float64) *float64 {
	return &v
}
