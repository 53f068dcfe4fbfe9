package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/gorated/internal/models"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var (
		mediaType string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local mirror from TMDB if it is stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := models.ParseScope(mediaType)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if force {
				return a.sync.ForceSync(ctx, scope)
			}
			return a.sync.Sync(ctx, scope)
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", "all", "Media type to sync (all, movie, series)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Sync even if the mirror is fresh")
	return cmd
}
