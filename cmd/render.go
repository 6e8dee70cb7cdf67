package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

var renderIndexFlag int
var renderHexFlag bool
var renderOutFlag string

// renderCmd represents the render command.
var renderCmd = newRenderCmd()

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render a single case from a template",
		Long: `Render one case by mutation index and print it to stdout, raw or as a
hex dump. Index -1 renders the unmutated baseline message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return newSession(false).RenderCase(context.Background(), domain.RenderArgs{
				TemplatePath: m.Path(args[0]),
				Index:        renderIndexFlag,
				HexDump:      renderHexFlag,
				OutputDir:    m.Path(renderOutFlag),
			})
		},
	}

	cmd.Flags().IntVarP(&renderIndexFlag, "index", "i", -1, "mutation index to render (-1 for the baseline)")
	cmd.Flags().BoolVar(&renderHexFlag, "hex", false, "print a hex dump instead of raw bytes")
	cmd.Flags().StringVar(&renderOutFlag, "out", "", "also write the case into this directory")

	return cmd
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
