package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tribunal/internal/deliberation"
	"github.com/ppiankov/tribunal/internal/model"
	"github.com/ppiankov/tribunal/internal/worker"
)

var (
	concurrency   int
	batchStrategy string
	batchTimeout  time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Adjudicate many claims from a file in parallel",
	Long: `Batch runs a deliberation for every claim id listed in a file
(one per line, '#' starts a comment). Claims are independent and run
concurrently; each claim is still held by a single run at a time.

Example:
  tribunal batch claims.txt
  tribunal batch claims.txt --strategy fractal --concurrency 8 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.batch_workers)")
	batchCmd.Flags().StringVar(&batchStrategy, "strategy", "linear", "orchestration strategy (linear, fractal)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	strategy, err := deliberation.ParseStrategy(batchStrategy)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if err := a.withEngine(true); err != nil {
		return err
	}

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.BatchWorkers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Tribunal Batch Adjudication\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Strategy:     %s\n", strategy)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(a.engine.Adjudicator(strategy), workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(out, "%s %s: %v\n", failColor.Sprint("✗"), r.ClaimID, runFailure(r.Error))
			continue
		}
		fmt.Fprintf(out, "%s %s %s (%s)\n", okColor.Sprint("✓"), r.ClaimID, colorizeStatus(r.Status), r.Duration.Round(time.Millisecond))
	}

	printBatchSummary(os.Stderr, results)
	return nil
}

func printBatchSummary(w io.Writer, results []*worker.ClaimResult) {
	byStatus, failed := worker.Summary(results)

	statuses := make([]model.ClaimStatus, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Batch Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Total:     %d claims\n", len(results))
	for _, s := range statuses {
		fmt.Fprintf(w, "  %-24s %d\n", string(s)+":", byStatus[s])
	}
	fmt.Fprintf(w, "  Failures:  %d\n", failed)
	fmt.Fprintf(w, "\n")
}
