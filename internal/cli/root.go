// Package cli wires the speechagg commands.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// ErrRunIncomplete is returned when a run finished with failed, abandoned or aborted keys.
var ErrRunIncomplete = errors.New("aggregation run incomplete")

type globalFlags struct {
	configPath string
	env        string
	logLevel   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "speechagg",
		Short: "Precompute NLP summaries of parliamentary speeches",
		Long: `speechagg reads speeches annotated by an NLP pipeline from Redis and
stores one faceted summary per grouping key: the whole corpus, each session,
each speaker and each dominant topic.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: config/<env>.yaml)")
	root.PersistentFlags().StringVar(&flags.env, "env", "", "environment: local, dev, docker, prod (default: $ENV or local)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(flags),
		newGetCmd(flags),
		newListCmd(flags),
		newHealthCmd(flags),
		newReindexCmd(flags),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
