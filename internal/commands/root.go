package commands

import (
	"github.com/spf13/cobra"

	"github.com/orcafacil/orcafacil/internal/buildinfo"
	"github.com/orcafacil/orcafacil/internal/config"
	"github.com/orcafacil/orcafacil/internal/logger"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:     "orcafacil",
		Short:   "Validate and import repair shop budget sheets",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.NewWithWriter(cmd.ErrOrStderr(), logger.Options{Level: flags.logLevel, JSON: flags.logJSON})
			if err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), l))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.FileName, "path to orcafacil.yaml")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&flags.logJSON, "log-json", false, "write logs as JSON")

	rootCmd.AddCommand(
		newInitCommand(),
		newValidateCommand(&flags),
		newExportCommand(&flags),
		newImportCommand(&flags),
		newServeCommand(&flags),
	)

	return rootCmd
}

func (f *globalFlags) load() (*config.Config, error) {
	return config.LoadOrDefault(f.configPath)
}
