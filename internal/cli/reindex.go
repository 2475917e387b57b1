package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReindexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Drop and recreate the speech and summary search indexes",
		Long: `Reindex rebuilds the Redis search indexes over the stored documents, for
example after the key prefix or the index schema changed. Documents are kept;
Redis re-indexes them in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.speeches.Reindex(ctx); err != nil {
				return fmt.Errorf("speech index: %w", err)
			}
			if err := a.results.Reindex(ctx); err != nil {
				return fmt.Errorf("result index: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes rebuilt")
			return nil
		},
	}
}
