package controller

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true)
	summaryValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutatingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

const summaryDurationUnit = time.Millisecond

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayTemplateInfo prints the template tree as a table, one row per node.
func (s *SimpleUI) DisplayTemplateInfo(ctx context.Context, name string, hash uint64, info m.FieldInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Template: %s (hash %016x)\n\n", name, hash)
	s.printf("%s", renderInfoTable(info))
	s.printf("\nTotal mutations: %d\n", info.NumMutations)

	return nil
}

func renderInfoTable(info m.FieldInfo) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Kind", "Fuzzable", "Strategy", "Mutations"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
	})

	appendInfoRows(table, info)
	table.Render()

	return tableBuffer.String()
}

func appendInfoRows(table *tablewriter.Table, info m.FieldInfo) {
	fuzzable := ""
	if info.Fuzzable {
		fuzzable = "yes"
	}

	path := info.Path
	if info.Mutating {
		path = mutatingStyle.Render(path)
	}

	table.Append([]string{
		path,
		string(info.Kind),
		fuzzable,
		info.Strategy,
		fmt.Sprintf("%d", info.NumMutations),
	})

	for _, child := range info.Children {
		appendInfoRows(table, child)
	}
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, threads, shardIndex, shardCount int) {
	if err := ctx.Err(); err != nil {
		return
	}

	if shardCount > 0 {
		s.printf("Generating with %d worker(s) (shard %d/%d)\n", threads, shardIndex, shardCount)
		return
	}

	s.printf("Generating with %d worker(s)\n", threads)
}

// DisplayCase prints one rendered case, raw or as a hex dump.
func (s *SimpleUI) DisplayCase(ctx context.Context, c m.Case, hexDump bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if hexDump {
		s.printf("case %d (%d bytes):\n%s", c.Index, len(c.Data), hex.Dump(c.Data))
		return nil
	}

	_, err := s.cmd.OutOrStdout().Write(c.Data)

	return err
}

// DisplayRunSummary prints the outcome of a corpus-generation run.
func (s *SimpleUI) DisplayRunSummary(ctx context.Context, summary m.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s\n", summaryTitleStyle.Render("Run complete"))
	s.printf("Template: %s (hash %016x)\n", summary.Template, summary.TemplateHash)
	s.printf("Cases written: %s of %d (starting at index %d)\n",
		summaryValueStyle.Render(fmt.Sprintf("%d", summary.Written)), summary.Total, summary.FirstIndex)
	s.printf("Output: %s\n", summary.OutputDir)
	s.printf("Duration: %s\n", summary.Duration.Round(summaryDurationUnit))

	return nil
}

// printf writes formatted output to the underlying cobra command's stdout.
func (s *SimpleUI) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
