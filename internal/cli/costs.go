package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/indxflow/internal/ledger"
	"github.com/ppiankov/indxflow/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	costsFrom string
	costsTo   string
	costsDays int
	costsJSON bool
)

// costsCmd represents the costs command
var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Summarize recorded analysis costs",
	Long: `Costs reads the cost ledger (ledger.enabled must be true) and sums local
and model requests and their estimated costs over a date range.

Example:
  indxflow costs
  indxflow costs --days 7
  indxflow costs --from 2026-01-01 --to 2026-01-31 --json`,
	Args: cobra.NoArgs,
	RunE: runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)

	costsCmd.Flags().StringVar(&costsFrom, "from", "", "first day (YYYY-MM-DD)")
	costsCmd.Flags().StringVar(&costsTo, "to", "", "last day (YYYY-MM-DD, default today)")
	costsCmd.Flags().IntVar(&costsDays, "days", 30, "range length when --from is not set")
	costsCmd.Flags().BoolVar(&costsJSON, "json", false, "print the summary as JSON")
}

// dateRange resolves the --from/--to/--days flags against now
func dateRange(now time.Time) (string, string, error) {
	end := now
	if costsTo != "" {
		t, err := time.Parse(ledger.DateLayout, costsTo)
		if err != nil {
			return "", "", fmt.Errorf("invalid --to date: %w", err)
		}
		end = t
	}

	start := end.AddDate(0, 0, -(costsDays - 1))
	if costsFrom != "" {
		t, err := time.Parse(ledger.DateLayout, costsFrom)
		if err != nil {
			return "", "", fmt.Errorf("invalid --from date: %w", err)
		}
		start = t
	}
	if start.After(end) {
		return "", "", fmt.Errorf("--from is after --to")
	}
	return start.Format(ledger.DateLayout), end.Format(ledger.DateLayout), nil
}

func runCosts(cmd *cobra.Command, args []string) error {
	if costsDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	start, end, err := dateRange(time.Now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, newLogger())
	defer func() { _ = p.Close() }()

	summary, err := p.CostSummary(context.Background(), start, end)
	if err != nil {
		return err
	}

	if costsJSON {
		return pipeline.NewRenderer(os.Stdout, verbose).WriteJSON(summary)
	}

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Costs %s → %s\n", summary.StartDate, summary.EndDate)
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("  Active days:       %d\n", summary.ActiveDays)
	fmt.Printf("  Local requests:    %d (%.5f)\n", summary.LocalRequests, summary.LocalCost)
	fmt.Printf("  Model requests:    %d (%.5f)\n", summary.AIRequests, summary.AICost)
	fmt.Printf("  Total cost:        %.5f\n", summary.TotalCost)
	fmt.Printf("  Model usage:       %.1f%%\n", summary.AIUsagePercentage)
	fmt.Printf("  Cost per request:  %.6f\n", summary.CostPerRequest)
	fmt.Println()
	return nil
}
