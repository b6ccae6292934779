package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/orcafacil/orcafacil/internal/logger"
	"github.com/orcafacil/orcafacil/internal/server"
	"github.com/orcafacil/orcafacil/internal/store"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := flags.load()
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			log := logger.FromContext(ctx)
			var inserter store.Inserter
			if cfg.Database.DSN != "" {
				pool, err := store.Connect(ctx, cfg.Database.DSN)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := store.MigratePool(ctx, pool); err != nil {
					return err
				}
				inserter = store.NewPostgres(pool, cfg.Database.Table)
			} else {
				log.Warn().Msg("no database configured, /v1/budgets/import is disabled")
			}

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(server.Config{Options: opts, Store: inserter, Log: log})
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}
