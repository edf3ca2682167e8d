package cli

import (
	"errors"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/config"
	"github.com/goto/salt/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	esStore "github.com/goto/scout/internal/store/elasticsearch"
	"github.com/goto/scout/internal/store/postgres"
	"github.com/goto/scout/pkg/statsd"
)

type Config struct {
	// Log
	LogLevel string `yaml:"log_level" mapstructure:"log_level" default:"info"`

	// StatsD
	StatsD statsd.Config `mapstructure:"statsd"`

	// Elasticsearch
	Elasticsearch esStore.Config `mapstructure:"elasticsearch"`

	// Database
	DB postgres.Config `mapstructure:"db"`
}

var ErrConfigNotFound = errors.New(heredoc.Doc(`
	Config file not found. Loading from defaults...

	Make a "scout.yaml" file in the current directory, or set
	SCOUT_* environment variables to override the defaults.
`))

func LoadConfig() (*Config, error) {
	var cfg Config

	loader := config.NewLoader(
		config.WithPath("./"),
		config.WithName("scout.yaml"),
		config.WithEnvKeyReplacer(".", "_"),
		config.WithEnvPrefix("SCOUT"),
	)
	if err := loader.Load(&cfg); err != nil {
		if errors.As(err, &config.ConfigFileNotFoundError{}) {
			return &cfg, ErrConfigNotFound
		}
		return &cfg, err
	}
	return &cfg, nil
}

func configCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Manage configuration",
		Example: heredoc.Doc(`
			$ scout config list`),
	}

	cmd.AddCommand(configListCommand(cfg))

	return cmd
}

func configListCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configuration settings",
		Example: heredoc.Doc(`
			$ scout config list
		`),
		Annotations: map[string]string{
			"group": "core",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return yaml.NewEncoder(os.Stdout).Encode(*cfg)
		},
	}
}

func initLogger(logLevel string) *log.Logrus {
	return log.NewLogrus(
		log.LogrusWithLevel(logLevel),
		log.LogrusWithWriter(os.Stdout),
	)
}
