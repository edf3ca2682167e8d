package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/scout/core/catalog"
	"github.com/goto/scout/core/search"
)

func TestAdapters(t *testing.T) {
	adapters := catalog.Adapters(nil)

	var docTypes []string
	for _, adapter := range adapters {
		require.NoError(t, adapter.Validate(), "adapter %q", adapter.DocType)
		docTypes = append(docTypes, adapter.DocType)
	}
	assert.ElementsMatch(t, []string{"dataset", "organization", "reuse"}, docTypes)
}

func TestRegister(t *testing.T) {
	require.NoError(t, catalog.Register(nil))

	adapter, err := search.Lookup("dataset")
	require.NoError(t, err)
	assert.True(t, adapter.Fuzzy)
	assert.Contains(t, adapter.Facets, "organization")
	assert.Contains(t, adapter.Sorts, "created")
}

func TestDatasetQueriesCompile(t *testing.T) {
	require.NoError(t, catalog.Register(nil))

	query, err := search.ForType("dataset", search.Params{
		Query:   "budget -draft",
		Facets:  search.AllFacets(),
		Filters: map[string][]string{"reuses": {"5-10"}},
		Sort:    []string{"-created"},
	})
	require.NoError(t, err)

	body, err := query.Build()
	require.NoError(t, err)
	assert.Contains(t, body, "aggs")
	assert.Contains(t, body, "sort")
}
