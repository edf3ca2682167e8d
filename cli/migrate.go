package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/goto/scout/core/catalog"
	"github.com/goto/scout/core/search"
	esStore "github.com/goto/scout/internal/store/elasticsearch"
)

const esMigrationTimeout = 5 * time.Second

func migrateCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the search indices for every registered document type",
		Example: heredoc.Doc(`
			$ scout migrate
		`),
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			"group:core": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogger(cfg.LogLevel)

			if err := catalog.Register(nil); err != nil {
				return err
			}

			esClient, err := esStore.NewClient(logger, cfg.Elasticsearch)
			if err != nil {
				return err
			}
			info, err := esClient.Init()
			if err != nil {
				return err
			}
			logger.Info("connected to elasticsearch cluster", "config", info)

			for _, adapter := range search.All() {
				ctx, cancel := context.WithTimeout(cmd.Context(), esMigrationTimeout)
				err := esClient.Migrate(ctx, adapter)
				cancel()
				if err != nil {
					return fmt.Errorf("error creating index %q: %w", adapter.DocType, err)
				}
				logger.Info("created/updated index", "index", adapter.DocType)
			}
			return nil
		},
	}
}
