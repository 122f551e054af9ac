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
	reloadKeywords bool
	keywordsJSON   bool
)

// keywordsCmd represents the keywords command
var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Show the keyword lexicon used by the local scorer",
	Long: `Keywords loads the keyword lexicon from keywords.path, keywords.url or the
embedded set, and shows where it came from and how many entries each
context type has. When the configured source fails, the embedded set is
used and reported as a fallback.

Example:
  indxflow keywords
  INDXFLOW_KEYWORDS_PATH=./keywords.yaml indxflow keywords --json`,
	Args: cobra.NoArgs,
	RunE: runKeywords,
}

func init() {
	rootCmd.AddCommand(keywordsCmd)

	keywordsCmd.Flags().BoolVar(&reloadKeywords, "reload", false, "read the source again after the first load")
	keywordsCmd.Flags().BoolVar(&keywordsJSON, "json", false, "print the compiled lexicon as JSON")
}

func runKeywords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Keywords.Timeout+5*time.Second)
	defer cancel()

	p := pipeline.NewPipeline(cfg, newLogger())
	defer func() { _ = p.Close() }()

	snap := p.Keywords(ctx, false)
	if reloadKeywords {
		snap = p.Keywords(ctx, true)
	}

	if keywordsJSON {
		return pipeline.NewRenderer(os.Stdout, verbose).WriteJSON(snap.Set())
	}

	fmt.Printf("Source:    %s\n", snap.Source())
	fmt.Printf("Entries:   %d\n", snap.Len())
	if snap.IsFallback() {
		fmt.Printf("Fallback:  yes (configured source unavailable)\n")
	}
	fmt.Println()
	for _, t := range model.AllContextTypes() {
		entries := snap.Entries(t)
		if len(entries) == 0 {
			continue
		}
		fmt.Printf("  %-15s %3d", t, len(entries))
		if verbose {
			for _, e := range entries {
				fmt.Printf("  %s(%.1f)", e.Term, e.Weight)
			}
		}
		fmt.Println()
	}
	return nil
}
