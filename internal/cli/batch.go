package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	workers      int
	outputFile   string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Classify every description of a file in parallel",
	Long: `Batch classifies one description per line:
- Blank lines, # comments and duplicate lines are skipped
- Lines are processed by concurrent workers, results keep file order
- Model calls stay spaced by rate_limiting.min_interval across workers
- Results are written as JSON lines

Example:
  indxflow batch activities.txt
  indxflow batch activities.txt --workers 8 --output results.jsonl
  indxflow batch activities.txt --mode local`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputFile, "output", "", "JSON lines output path (default stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&modeFlag, "mode", "hybrid", "analysis mode (hybrid, local, ai)")
	batchCmd.Flags().BoolVar(&forceAI, "force-ai", false, "always consult the model in hybrid mode")
	batchCmd.Flags().BoolVar(&forceLocal, "force-local", false, "never consult the model in hybrid mode")
	batchCmd.Flags().IntVar(&threshold, "threshold", 0, "escalation confidence threshold (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	mode, opts, err := analysisOptions()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Concurrency.Workers = workers
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  indxflow Batch Classification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", mode)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	p := pipeline.NewPipeline(cfg, newLogger())
	defer func() { _ = p.Close() }()

	started := time.Now()
	results, err := p.Batch(ctx, file, mode, opts)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out := os.Stdout
	if outputFile != "" {
		var f *os.File
		f, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out = f
	}
	if err := pipeline.NewRenderer(out, verbose).WriteJSONLines(results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	successCount := 0
	failureCount := 0
	usedAI := 0
	var totalCost float64
	byType := make(map[model.ContextType]int)

	for _, item := range results {
		if item.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", item.Index+1, item.Error)
			continue
		}
		successCount++
		byType[item.Result.PrimaryType]++
		totalCost += item.Result.Cost
		if item.Result.UsedAI {
			usedAI++
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d descriptions\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Model:     %d results\n", usedAI)
	fmt.Fprintf(os.Stderr, "  Cost:      %.5f\n", totalCost)
	fmt.Fprintf(os.Stderr, "  Duration:  %v\n", time.Since(started).Round(time.Millisecond))
	for _, t := range model.AllContextTypes() {
		if n := byType[t]; n > 0 {
			fmt.Fprintf(os.Stderr, "    %-15s %d\n", t, n)
		}
	}
	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputFile)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
