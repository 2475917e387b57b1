package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/speechagg/internal/domain"
	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
)

func newGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <value>",
		Short: "Print the stored summary of one key as JSON",
		Example: `  speechagg get all "all speeches"
  speechagg get sessions 19/42`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := aggregation.ParseDimension(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.results.Get(ctx, aggregation.NewKey(d, args[1]))
			if errors.Is(err, domain.ErrResultNotFound) {
				return fmt.Errorf("no summary for %s %q; run `speechagg run %s` first", d, args[1], d)
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var countOnly bool
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List the values that have a stored summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := aggregation.ParseDimension(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.results.EnsureIndex(ctx); err != nil {
				return err
			}
			if countOnly {
				n, err := a.results.Count(ctx, d)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}
			values, err := a.results.ListValues(ctx, d)
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&countOnly, "count", false, "print only the number of stored summaries")
	return cmd
}
