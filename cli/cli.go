package cli

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/cmdx"
	"github.com/spf13/cobra"
)

// New builds the root command with the loaded configuration.
func New(cfg *Config) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:           "scout <command> [flags]",
		Short:         "Search query compiler",
		Long:          "Compile faceted search queries and map engine results.",
		SilenceErrors: true,
		SilenceUsage:  false,
		Example: heredoc.Doc(`
		$ scout search
		$ scout migrate
		$ scout config list
		`),
		Annotations: map[string]string{
			"group": "core",
			"help:learn": heredoc.Doc(`
				Use 'scout <command> --help' for info about a command.
			`),
		},
	}

	rootCmd.AddCommand(
		searchCommand(cfg),
		migrateCommand(cfg),
		configCommand(cfg),
	)

	cmdx.SetHelp(rootCmd)

	return rootCmd
}
