package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list TEMPLATE",
		Short: "Show a template's structure and mutation counts",
		Long: `Load a template descriptor and print its field tree: one row per node
with its kind, mutation strategy and the size of its mutation space.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return newSession(false).Describe(context.Background(), domain.DescribeArgs{
				TemplatePath: m.Path(args[0]),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
