package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/orcafacil/orcafacil/internal/importer"
	"github.com/orcafacil/orcafacil/internal/logger"
	"github.com/orcafacil/orcafacil/internal/pipeline"
	"github.com/orcafacil/orcafacil/internal/store"
)

func newImportCommand(flags *globalFlags) *cobra.Command {
	var dsn string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate every sheet in the inbox and store the valid rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if dsn == "" {
				dsn = cfg.Database.DSN
			}

			var inserter store.Inserter
			if dryRun {
				inserter = &store.Memory{}
			} else {
				if dsn == "" {
					return fmt.Errorf("no database configured: set database.dsn, DATABASE_URL or --dsn")
				}
				pool, err := store.Connect(ctx, dsn)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := store.MigratePool(ctx, pool); err != nil {
					return err
				}
				inserter = store.NewPostgres(pool, cfg.Database.Table)
			}

			root, err := filepath.Abs(filepath.Dir(flags.configPath))
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			inbox := cfg.InboxPath(root)
			log := logger.FromContext(ctx)
			log.Debug().Str("inbox", inbox).Bool("dry_run", dryRun).Msg("importing")

			svc := &importer.Service{
				Pipeline: pipeline.New(opts),
				Store:    inserter,
				Inbox:    inbox,
				LogRoot:  root,
			}
			if dryRun {
				// Leave the inbox and the log untouched.
				return dryRunImport(cmd, svc)
			}

			results, err := svc.Run(ctx)
			for _, r := range results {
				printResult(cmd, r)
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no sheets in %s\n", inbox)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (overrides config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the inbox without storing or moving files")

	return cmd
}

func dryRunImport(cmd *cobra.Command, svc *importer.Service) error {
	files, err := importer.Scan(svc.Inbox)
	if err != nil {
		return err
	}
	for _, f := range files {
		printResult(cmd, svc.Preview(cmd.Context(), f))
	}
	return nil
}

func printResult(cmd *cobra.Command, r importer.Result) {
	line := fmt.Sprintf("%s: %s, %d valid, %d invalid, %d stored",
		r.File, r.Status, r.Report.ValidRows, r.Report.InvalidRows, r.Stored)
	if r.Err != nil {
		line += " (" + r.Err.Error() + ")"
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}
