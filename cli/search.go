package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/printer"
	"github.com/goto/salt/term"
	"github.com/spf13/cobra"

	"github.com/goto/scout/core/catalog"
	"github.com/goto/scout/core/search"
	esStore "github.com/goto/scout/internal/store/elasticsearch"
	"github.com/goto/scout/internal/store/postgres"
	"github.com/goto/scout/pkg/statsd"
)

func searchCommand(cfg *Config) *cobra.Command {
	var (
		docType string
		filter  string
		sorts   []string
		page    int
		size    int
		facets  []string
	)
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Query the indexed documents",
		Annotations: map[string]string{
			"group:core": "true",
		},
		Args: cobra.MaximumNArgs(1),
		Example: heredoc.Doc(`
			$ scout search "open data"
			$ scout search budget --type=dataset --filter=tag:finance,format:csv
			$ scout search --type=organization --sort=-followers --facets=all
		`),

		RunE: func(cmd *cobra.Command, args []string) error {
			spinner := printer.Spin("")
			defer spinner.Stop()

			logger := initLogger(cfg.LogLevel)

			var entities search.EntityLookup
			pgClient, err := postgres.NewClient(cfg.DB)
			if err != nil {
				logger.Warn("entity lookups disabled", "err", err)
			} else {
				defer pgClient.Close()
				entities = postgres.NewEntityRepository(pgClient)
			}
			if err := catalog.Register(entities); err != nil {
				return err
			}

			esClient, err := esStore.NewClient(logger, cfg.Elasticsearch)
			if err != nil {
				return err
			}
			reporter, err := statsd.Init(logger, cfg.StatsD)
			if err != nil {
				return err
			}
			defer reporter.Close()

			params := search.Params{
				Page:     page,
				PageSize: size,
				Sort:     sorts,
				Filters:  parseFilters(filter),
				Facets:   search.ParseFacetSelection(facets...),
			}
			if len(args) > 0 {
				params.Query = args[0]
			}

			query, err := search.ForType(docType, params)
			if err != nil {
				return err
			}

			repo := esStore.NewSearchRepository(esClient, logger, reporter)
			result, err := repo.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			spinner.Stop()

			fmt.Printf("%d results (page %d of %d)\n", result.Total(), result.Page(), result.Pages())
			for _, hit := range result.Response.Hits.Hits {
				fmt.Println(term.Bluef(prettyPrint(hit)))
			}
			return printFacets(cmd, query, result, entities != nil)
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", "dataset", "document type to search")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "--filter=facet1:val1,facet2:val2 filters results by facet values")
	cmd.Flags().StringSliceVar(&sorts, "sort", nil, "--sort=created,-reuses sort keys, '-' prefix for descending")
	cmd.Flags().IntVarP(&page, "page", "p", 0, "result page to fetch")
	cmd.Flags().IntVarP(&size, "size", "s", 0, "number of results per page")
	cmd.Flags().StringSliceVar(&facets, "facets", nil, "--facets=all or --facets=tag,format requests facet summaries")
	return cmd
}

func printFacets(cmd *cobra.Command, query *search.Query, result *search.Result, fetch bool) error {
	for _, name := range query.Params.Facets.Names(query.Adapter) {
		summary, err := result.Facet(cmd.Context(), name, fetch)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n%s\n", name, term.Greenf(prettyPrint(summary)))
	}
	return nil
}

func parseFilters(commaSepStr string) map[string][]string {
	if commaSepStr == "" {
		return nil
	}
	filters := map[string][]string{}
	for _, pair := range strings.Split(commaSepStr, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		filters[parts[0]] = append(filters[parts[0]], parts[1])
	}
	return filters
}

func prettyPrint(i interface{}) string {
	s, _ := json.MarshalIndent(i, "", "\t")
	return string(s)
}
