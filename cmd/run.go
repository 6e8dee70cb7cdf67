package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

var runParallelFlag int
var runLimitFlag int
var runShardFlag string
var runResumeFlag bool
var runPackedFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run TEMPLATE",
		Short: "Generate a fuzzing corpus from a template",
		Long: `Enumerate the template's mutation space and write one case file per
mutation into the output directory. The run can be limited, sharded across
processes and resumed from persisted state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			shardIndex, totalShards := parseShardFlag(runShardFlag)
			packed := viper.GetBool(runPackedConfigKey)

			// The packed store rewrites its corpus file from scratch, so a
			// resumed run would wipe the cases the state refers to.
			if packed && runResumeFlag {
				return fmt.Errorf("--%s cannot be combined with --%s: the packed corpus file is rewritten from scratch; resume with the per-file store", runResumeFlagName, runPackedFlagName)
			}

			_, err := newSession(packed).Generate(context.Background(), domain.GenerateArgs{
				TemplatePath: m.Path(args[0]),
				OutputDir:    m.Path(viper.GetString(outputFlagName)),
				Threads:      viper.GetInt(runParallelConfigKey),
				ShardIndex:   shardIndex,
				ShardCount:   totalShards,
				Limit:        viper.GetInt(runLimitConfigKey),
				Resume:       runResumeFlag,
			})

			return err
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel workers for case generation")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().IntVarP(&runLimitFlag, runLimitFlagName, "n", viper.GetInt(runLimitConfigKey), "maximum number of cases to generate (negative for all)")
	bindFlagToConfig(cmd.Flags().Lookup(runLimitFlagName), runLimitConfigKey)

	cmd.Flags().BoolVar(&runPackedFlag, runPackedFlagName, viper.GetBool(runPackedConfigKey), "pack all cases into a single corpus file")
	bindFlagToConfig(cmd.Flags().Lookup(runPackedFlagName), runPackedConfigKey)

	cmd.Flags().BoolVar(&runResumeFlag, runResumeFlagName, false, "resume from the state persisted in the output directory")
	cmd.Flags().StringVarP(&runShardFlag, "shard", "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 0
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 0
	}

	return index, total
}
