package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/opzoom/internal/store"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Database string
}

// IndexResult is the JSON payload of the index command.
type IndexResult struct {
	Database string `json:"db"`
	Created  int    `json:"created"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Create lookup indexes on an addb2 database",
		Long: `Create the id, time and pid indexes used by zoomin.

Indexes that already exist are skipped, so the command can be run
repeatedly on the same database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database file (default from config, m0play.db)")

	return cmd
}

func runIndex(opts *IndexOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Database == "" {
		opts.Database = opts.Config.Database
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	n := st.CreateIndexes(ctx)
	result := IndexResult{Database: opts.Database, Created: n}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %d indexes in %s\n", n, opts.Database)
	return nil
}
