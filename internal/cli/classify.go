package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/indxflow/internal/classify"
	"github.com/ppiankov/indxflow/internal/pipeline"
	"github.com/ppiankov/indxflow/internal/text"
	"github.com/spf13/cobra"
)

var (
	modeFlag   string
	forceAI    bool
	forceLocal bool
	threshold  int
	outJSON    string
	timeout    time.Duration
	debugOut   bool
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify the organizational context of a description",
	Long: `Classify analyzes a short activity description (3 to 2000 characters) and
reports its primary context, an optional secondary context, every detected
context and a suggested four-column board.

Modes:
  hybrid  local first, model when local confidence is too low (default)
  local   keyword scorer only
  ai      model only (requires a provider)

Example:
  indxflow classify "Nous gérons plusieurs clients avec des sprints de 2 semaines"
  indxflow classify "Refonte du site en 4 phases" --mode local --json result.json
  INDXFLOW_LLM_PROVIDER=anthropic indxflow classify "..." --force-ai`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&modeFlag, "mode", "hybrid", "analysis mode (hybrid, local, ai)")
	classifyCmd.Flags().BoolVar(&forceAI, "force-ai", false, "always consult the model in hybrid mode")
	classifyCmd.Flags().BoolVar(&forceLocal, "force-local", false, "never consult the model in hybrid mode")
	classifyCmd.Flags().IntVar(&threshold, "threshold", 0, "escalation confidence threshold (default from config)")
	classifyCmd.Flags().StringVar(&outJSON, "json", "", "write the result as JSON to this path (- for stdout)")
	classifyCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")
	classifyCmd.Flags().BoolVar(&debugOut, "debug", false, "include scorer debug information")
}

// analysisOptions validates the escalation flags shared by several commands
func analysisOptions() (pipeline.Mode, classify.Options, error) {
	mode, err := pipeline.ParseMode(modeFlag)
	if err != nil {
		return "", classify.Options{}, err
	}
	if forceAI && forceLocal {
		return "", classify.Options{}, fmt.Errorf("--force-ai and --force-local are mutually exclusive")
	}
	if threshold < 0 || threshold > 100 {
		return "", classify.Options{}, fmt.Errorf("--threshold must be between 0 and 100, got %d", threshold)
	}
	return mode, classify.Options{
		ForceAI:             forceAI,
		ForceLocal:          forceLocal,
		ConfidenceThreshold: threshold,
	}, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")

	mode, opts, err := analysisOptions()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if debugOut {
		cfg.Output.Debug = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, newLogger())
	defer func() { _ = p.Close() }()

	result, err := p.Classify(ctx, input, mode, opts)
	if errors.Is(err, text.ErrInvalidInputLength) {
		return fmt.Errorf("invalid input: %w", err)
	}
	if err != nil {
		return fmt.Errorf("classify failed: %w", err)
	}

	renderer := pipeline.NewRenderer(os.Stdout, verbose)
	switch outJSON {
	case "":
		renderer.RenderSummary(result)
	case "-":
		return renderer.WriteJSON(result)
	default:
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		renderer.RenderSummary(result)
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	return nil
}
