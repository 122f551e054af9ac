package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/indxflow/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	compareJSON    bool
	compareTimeout time.Duration
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <text>",
	Short: "Run local, model and hybrid analysis side by side",
	Long: `Compare classifies one description with every method and reports their
results, durations and costs, whether they agree on the context type, and
which method is recommended for similar descriptions.

The model column is empty when no provider is configured.

Example:
  indxflow compare "Cabinet médical avec suivi des patients"
  indxflow compare "Migration ERP en 5 phases" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the comparison as JSON")
	compareCmd.Flags().DurationVar(&compareTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), compareTimeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, newLogger())
	defer func() { _ = p.Close() }()

	cmp, err := p.Compare(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	renderer := pipeline.NewRenderer(os.Stdout, verbose)
	if compareJSON {
		return renderer.WriteJSON(cmp)
	}
	renderer.RenderComparison(cmp)
	return nil
}
