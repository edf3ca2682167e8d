// Package elasticsearch holds the engine-facing side of search: the
// client wrapper, index migration and the executor that posts compiled
// query documents and decodes raw responses.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/goto/salt/log"
	"github.com/pkg/errors"

	"github.com/goto/scout/core/search"
)

type Config struct {
	Brokers string `mapstructure:"brokers" default:"http://localhost:9200"`
}

type Client struct {
	client *elasticsearch.Client
	logger log.Logger
}

type ClientOption func(*Client)

// WithClient swaps in a pre-built engine client, mainly for tests.
func WithClient(cli *elasticsearch.Client) ClientOption {
	return func(c *Client) {
		c.client = cli
	}
}

func NewClient(logger log.Logger, config Config, opts ...ClientOption) (*Client, error) {
	c := &Client{logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	if c.client != nil {
		return c, nil
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(config.Brokers, ","),
	})
	if err != nil {
		return nil, err
	}
	c.client = esClient
	return c, nil
}

// Init pings the cluster and returns a short description of it.
func (c *Client) Init() (string, error) {
	res, err := c.client.Info()
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", errors.New(res.Status())
	}

	var info = struct {
		ClusterName string `json:"cluster_name"`
		Version     struct {
			Number string `json:"number"`
		} `json:"version"`
	}{}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", err
	}
	return fmt.Sprintf("%q (server version %s)", info.ClusterName, info.Version.Number), nil
}

// Migrate ensures the index backing an adapter's doc type exists.
// Field mappings and analyzers are provisioned out of band.
func (c *Client) Migrate(ctx context.Context, adapter *search.Adapter) error {
	exists, err := c.indexExists(ctx, adapter.DocType)
	if err != nil {
		return errors.Wrapf(err, "checking index %q existence", adapter.DocType)
	}
	if exists {
		c.logger.Info("index already exists, skipping", "index", adapter.DocType)
		return nil
	}

	res, err := c.client.Indices.Create(
		adapter.DocType,
		c.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.Wrapf(err, "creating index %q", adapter.DocType)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error creating index %q: %s", adapter.DocType, errorReasonFromResponse(res))
	}
	return nil
}

func (c *Client) indexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.client.Indices.Exists(
		[]string{name},
		c.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// extract error reason from an elasticsearch response
// returns the raw payload in case it fails
func errorReasonFromResponse(res *esapi.Response) string {
	var (
		response struct {
			Error struct {
				Reason string `json:"reason"`
			} `json:"error"`
		}
		copy bytes.Buffer
	)
	reader := io.TeeReader(res.Body, &copy)
	if err := json.NewDecoder(reader).Decode(&response); err != nil {
		return fmt.Sprintf("raw response = %s", copy.String())
	}
	return response.Error.Reason
}
