package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/scout/core/search"
)

func resultFor(t *testing.T, params search.Params, raw string) *search.Result {
	t.Helper()
	query, err := search.New(testAdapter(), params)
	require.NoError(t, err)
	result, err := search.NewResultFromJSON(query, []byte(raw))
	require.NoError(t, err)
	return result
}

func TestResultEmptyResponse(t *testing.T) {
	result := resultFor(t, search.Params{Page: 2}, `{}`)

	assert.Equal(t, int64(0), result.Total())
	assert.Equal(t, float64(0), result.MaxScore())
	assert.Empty(t, result.IDs())
	assert.Equal(t, 0, result.Pages())
	assert.Equal(t, 1, result.Page(), "an empty result set always reports page 1")
}

func TestResultPagination(t *testing.T) {
	type testCase struct {
		Description   string
		Params        search.Params
		Total         int
		ExpectedPages int
		ExpectedPage  int
	}
	var testCases = []testCase{
		{
			Description:   "pages round up to cover a partial last page",
			Params:        search.Params{PageSize: 3},
			Total:         11,
			ExpectedPages: 4,
			ExpectedPage:  1,
		},
		{
			Description:   "an exact multiple needs no extra page",
			Params:        search.Params{PageSize: 5},
			Total:         10,
			ExpectedPages: 2,
			ExpectedPage:  1,
		},
		{
			Description:   "the requested page is echoed back",
			Params:        search.Params{Page: 3, PageSize: 5},
			Total:         20,
			ExpectedPages: 4,
			ExpectedPage:  3,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			query, err := search.New(testAdapter(), tc.Params)
			require.NoError(t, err)

			var response search.Response
			response.Hits.Total = search.TotalHits{Value: int64(tc.Total), Relation: "eq"}
			result := search.NewResult(query, response)

			assert.Equal(t, tc.ExpectedPages, result.Pages())
			assert.Equal(t, tc.ExpectedPage, result.Page())
		})
	}
}

func TestResultDecodesHits(t *testing.T) {
	result := resultFor(t, search.Params{}, `{
		"hits": {
			"total": {"value": 2, "relation": "eq"},
			"max_score": 1.5,
			"hits": [
				{"_id": "doc-1", "_index": "dataset", "_score": 1.5, "_source": {"title": "first"}},
				{"_id": "doc-2", "_index": "dataset", "_score": 0.5, "_source": {"title": "second"}}
			]
		}
	}`)

	assert.Equal(t, int64(2), result.Total())
	assert.Equal(t, 1.5, result.MaxScore())
	assert.Equal(t, []string{"doc-1", "doc-2"}, result.IDs())
}

func TestResultLegacyTotal(t *testing.T) {
	result := resultFor(t, search.Params{}, `{"hits": {"total": 7}}`)
	assert.Equal(t, int64(7), result.Total())
}

func TestResultFacet(t *testing.T) {
	result := resultFor(t, search.Params{Facets: search.AllFacets()}, `{
		"aggregations": {
			"_filter_tag": {"buckets": [{"key": "budget", "doc_count": 4}]}
		}
	}`)

	summary, err := result.Facet(context.Background(), "tag", false)
	require.NoError(t, err)
	assert.Equal(t, search.TermsSummary{Terms: []search.TermCount{
		{Term: "budget", Count: 4},
	}}, summary)

	// an aggregation the response does not carry extracts neutrally
	summary, err = result.Facet(context.Background(), "reuses", false)
	require.NoError(t, err)
	assert.Equal(t, search.RangeSummary{}, summary)

	_, err = result.Facet(context.Background(), "undeclared", false)
	assert.Error(t, err)
}
