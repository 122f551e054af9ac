package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/indxflow/internal/classify"
	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/structure"
	"github.com/ppiankov/indxflow/internal/worker"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer writes results as JSON or a human-readable summary
type Renderer struct {
	out     io.Writer
	verbose bool
}

// NewRenderer creates a renderer writing summaries to out
func NewRenderer(out io.Writer, verbose bool) *Renderer {
	return &Renderer{out: out, verbose: verbose}
}

// RenderJSON writes v as indented JSON to path
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// WriteJSON writes v as indented JSON to the output
func (r *Renderer) WriteJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONLines writes one compact JSON object per batch item
func (r *Renderer) WriteJSONLines(items []*worker.ItemResult) error {
	enc := json.NewEncoder(r.out)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode item %d: %w", item.Index, err)
		}
	}
	return nil
}

// RenderSummary prints a classification
func (r *Renderer) RenderSummary(result model.ClassificationResult) {
	w := r.out
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s  (%d%% confidence)\n", result.PrimaryType, result.Confidence)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Method:     %s", result.Method)
	if result.Strategy != "" {
		fmt.Fprintf(w, " / %s", result.Strategy)
	}
	fmt.Fprintln(w)
	if result.IsHybrid {
		fmt.Fprintf(w, "  Hybrid:     with %s\n", result.SecondaryType)
	}
	fmt.Fprintf(w, "  Reasoning:  %s\n", result.Reasoning)
	if result.AIError != "" {
		fmt.Fprintf(w, "  AI error:   %s\n", result.AIError)
	}
	if len(result.SuggestedStructure) > 0 {
		fmt.Fprintf(w, "  Structure:  %s\n", structure.Names(result.SuggestedStructure))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Detected contexts:")
	for _, c := range result.DetectedContexts {
		fmt.Fprintf(w, "    %-15s %3d%%  weight %.2f  %s\n", c.Type, c.Confidence, c.Weight, c.Priority)
	}

	if alt := result.LocalAlternative; alt != nil {
		fmt.Fprintf(w, "\n  Local alternative: %s (%d%%)\n", alt.Type, alt.Confidence)
	}

	if r.verbose {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Time:       %v\n", result.AnalysisTime)
		fmt.Fprintf(w, "  Cost:       %.5f\n", result.Cost)
		if result.UsedAI {
			fmt.Fprintf(w, "  Confidence: local %d%%, model %d%% (%+d)\n",
				result.LocalConfidence, result.AIConfidence, result.ConfidenceImprovement)
		}
		if result.FromCache {
			fmt.Fprintln(w, "  Model reply served from cache")
		}
		if d := result.Debug; d != nil {
			fmt.Fprintf(w, "  Tokens:     %d [%s]\n", d.TokenCount, strings.Join(d.ProcessedTokens, " "))
		}
	}
	fmt.Fprintln(w)
}

// RenderComparison prints a method comparison
func (r *Renderer) RenderComparison(cmp *classify.Comparison) {
	w := r.out
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  Method comparison")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	row := func(name string, res *model.ClassificationResult, cost float64, elapsed time.Duration) {
		if res == nil {
			fmt.Fprintf(w, "  %-8s n/a\n", name)
			return
		}
		fmt.Fprintf(w, "  %-8s %-15s %3d%%  cost %.5f  time %v\n", name, res.PrimaryType, res.Confidence, cost, elapsed)
	}
	row("local", cmp.Local, cmp.Costs.Local, cmp.Times.Local)
	row("ai", cmp.AI, cmp.Costs.AI, cmp.Times.AI)
	row("hybrid", cmp.Hybrid, cmp.Costs.Hybrid, cmp.Times.Hybrid)

	if cmp.AIError != "" {
		fmt.Fprintf(w, "\n  AI error: %s\n", cmp.AIError)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Cost savings vs model: %.1f%%\n", cmp.CostSavings)
	fmt.Fprintf(w, "  Recommended method:    %s\n", cmp.RecommendedMethod)
	fmt.Fprintln(w)
}

// RenderBoard prints a board with its starter tasks
func (r *Renderer) RenderBoard(board *structure.Board) {
	w := r.out
	fmt.Fprintf(w, "%s (%s)\n\n", board.ContextType, board.Variant)
	for _, col := range board.Columns {
		fmt.Fprintf(w, "  [%s]\n", col.Name)
		for _, t := range col.Tasks {
			fmt.Fprintf(w, "    - %s  (%s, %dh)\n", t.Title, t.Priority, t.EstimatedHours)
		}
	}
	fmt.Fprintln(w)
}
