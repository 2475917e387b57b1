package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	healthuc "github.com/kailas-cloud/speechagg/internal/usecase/health"
)

func newHealthCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check Redis and Kafka connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.health().Check(ctx)
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(report); err != nil {
				return err
			}
			if report.Status == healthuc.Unhealthy {
				return fmt.Errorf("unhealthy: %v", report.Checks)
			}
			return nil
		},
	}
}
