// Package cmd provides the root command and CLI setup for bitfuzz.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bitfuzz.dev/pkg/bitfuzz/internal/adapter"
	"bitfuzz.dev/pkg/bitfuzz/internal/controller"
	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
)

var templateLoader domain.TemplateLoader
var caseStore domain.CaseStore
var packedStore domain.CaseStore
var caseStreamer domain.CaseStreamer
var ui controller.UI

// corpusOutputDirFlag is a root-level flag shared by commands that write cases.
var corpusOutputDirFlag string

// verboseFlag switches file logging to debug level.
var verboseFlag bool

// logFileFlag overrides the log file path.
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewSimpleUI(rootCmd)
	templateLoader = adapter.NewTemplateLoader()
	caseStore = adapter.NewCorpusStore()
	packedStore = adapter.NewPackedCorpusStore()
	caseStreamer = domain.NewCaseStreamer()
}

// newSession wires a Session over the shared dependencies, selecting the
// packed corpus format when asked for.
func newSession(packed bool) domain.Session {
	store := caseStore
	if packed {
		store = packedStore
	}

	return domain.NewSession(templateLoader, store, ui, caseStreamer)
}

const rootLongDescription = `Bitfuzz generates protocol fuzzing corpora from YAML message templates.
A template describes a message as a tree of typed fields with bit-level
encodings; bitfuzz enumerates its deterministic mutation space and writes
one test case per mutation.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bitfuzz",
		Short: "Protocol fuzzing corpus generator",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag || viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&corpusOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for generated cases",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log-file"), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
