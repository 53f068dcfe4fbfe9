package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/amaumene/gorated/internal/models"
	"github.com/spf13/cobra"
)

func newRecentCmd() *cobra.Command {
	var (
		mediaType string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently rated movies and TV shows",
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

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.RecentDefaultLimit
			}

			medias, syncErr, err := a.recent.RecentlyRatedOrCached(context.Background(), scope, limit)
			if err != nil {
				return err
			}
			if syncErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: sync failed, showing cached data: %v\n", syncErr)
			}
			return printRecent(cmd.OutOrStdout(), medias)
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", "all", "Media type to list (all, movie, series)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum number of items, 0 for all")
	return cmd
}

func printRecent(w io.Writer, medias []*models.Media) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tRELEASED\tADDED")
	for _, media := range medias {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			media.ID,
			media.MediaType,
			media.Title,
			media.Release.Format("2006-01-02"),
			media.Added.Format("2006-01-02"),
		)
	}
	return tw.Flush()
}
