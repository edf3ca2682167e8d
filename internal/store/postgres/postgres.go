// Package postgres backs the search facets' entity lookups with the
// catalog's primary database.
package postgres

import (
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"

	// register the pgx stdlib driver
	_ "github.com/jackc/pgx/v4/stdlib"
)

type Config struct {
	Host     string `mapstructure:"host" default:"localhost"`
	Port     int    `mapstructure:"port" default:"5432"`
	Name     string `mapstructure:"name" default:"scout"`
	User     string `mapstructure:"user" default:"scout"`
	Password string `mapstructure:"password" default:""`
	SSLMode  string `mapstructure:"sslmode" default:"disable"`
}

// ConnectionURL returns the postgres connection URL for the config.
func (c Config) ConnectionURL() *url.URL {
	pgURL := &url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		User:     url.UserPassword(c.User, c.Password),
		Path:     c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return pgURL
}

// Client is a thin wrapper over sqlx.
type Client struct {
	db *sqlx.DB
}

func NewClient(config Config) (*Client, error) {
	db, err := sqlx.Connect("pgx", config.ConnectionURL().String())
	if err != nil {
		return nil, fmt.Errorf("error creating and connecting DB: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}
