package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/daemon"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
)

// newServeCommand runs the daemon in the foreground, same code path as
// mstashd but convenient during development.
func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the media server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mstash serving on %s\n", d.Addr())

			<-ctx.Done()
			d.Stop()
			return context.Cause(ctx)
		},
	}
}
