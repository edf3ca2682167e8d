package elasticsearch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goto/salt/log"
	"github.com/pkg/errors"

	"github.com/goto/scout/core/search"
	"github.com/goto/scout/pkg/statsd"
)

// SearchRepository executes compiled queries against the engine and
// wraps raw responses in the result mapper. The repository itself adds
// no retry or timeout handling; pass a context with a deadline when
// one is needed.
type SearchRepository struct {
	cli      *Client
	logger   log.Logger
	reporter *statsd.Reporter
}

func NewSearchRepository(cli *Client, logger log.Logger, reporter *statsd.Reporter) *SearchRepository {
	return &SearchRepository{
		cli:      cli,
		logger:   logger,
		reporter: reporter,
	}
}

// Search posts the compiled query document to the doc type's index and
// returns the wrapped result.
func (r *SearchRepository) Search(ctx context.Context, query *search.Query) (result *search.Result, err error) {
	defer func(start time.Time) {
		metric := r.reporter.Timing("search", time.Since(start)).
			Tag("doc_type", query.Adapter.DocType)
		if err != nil {
			metric.Failure(err)
		} else {
			metric.Success()
		}
		metric.Publish()
	}(time.Now())

	body, err := query.Body()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	searchFn := r.cli.client.Search
	res, err := searchFn(
		searchFn.WithBody(body),
		searchFn.WithIndex(query.Adapter.DocType),
		searchFn.WithIgnoreUnavailable(true),
		searchFn.WithContext(ctx),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error executing search")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("error executing search: %s", errorReasonFromResponse(res))
	}

	var response search.Response
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "error decoding search response")
	}

	return search.NewResult(query, response), nil
}
