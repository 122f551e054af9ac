// Package classify runs the local analyzer, decides when to escalate to the
// model analyzer and fuses both answers into one classification.
package classify

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/ppiankov/indxflow/internal/keywords"
	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/score"
	"github.com/ppiankov/indxflow/internal/structure"
	"github.com/ppiankov/indxflow/internal/text"
)

// debugTokens is how many processed tokens the debug block keeps
const debugTokens = 10

// LocalAnalyzer classifies text with the keyword store only
type LocalAnalyzer struct {
	store  *keywords.Store
	scorer *score.Scorer
	logger *slog.Logger
}

// NewLocalAnalyzer creates a local analyzer over store
func NewLocalAnalyzer(store *keywords.Store, logger *slog.Logger) *LocalAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalAnalyzer{
		store:  store,
		scorer: score.NewScorer(),
		logger: logger,
	}
}

// Analyze validates, normalizes, scores and resolves input.
// The only error is text.ErrInvalidInputLength.
func (a *LocalAnalyzer) Analyze(ctx context.Context, input string) (model.ClassificationResult, error) {
	if err := text.Validate(input); err != nil {
		return model.ClassificationResult{}, err
	}

	start := time.Now()
	snap := a.store.Get(ctx)
	tokens := a.store.Normalizer().Normalize(input)

	var result model.ClassificationResult
	var scores score.Scores
	if len(tokens) == 0 {
		result = score.GenericResult("no significant keyword detected")
	} else {
		scores = a.scorer.Score(tokens, snap)
		result = a.scorer.Resolve(scores, len(tokens))
	}

	result.Language = text.DetectLanguage(input)
	result.SuggestedStructure = structure.Default(result.PrimaryType)
	result.Debug = debugInfo(tokens, scores, result.DetectedContexts)
	result.AnalysisTime = time.Since(start)

	a.logger.Debug("local analysis complete",
		"type", result.PrimaryType,
		"confidence", result.Confidence,
		"hybrid", result.IsHybrid,
		"tokens", len(tokens))

	return result, nil
}

// KeywordsLoaded reports whether the keyword store has been loaded
func (a *LocalAnalyzer) KeywordsLoaded() bool {
	return a.store.Loaded()
}

// Store returns the keyword store
func (a *LocalAnalyzer) Store() *keywords.Store {
	return a.store
}

func debugInfo(tokens []string, scores score.Scores, contexts []model.DetectedContext) *model.DebugInfo {
	shown := tokens
	if len(shown) > debugTokens {
		shown = shown[:debugTokens]
	}

	strong := 0
	for _, c := range contexts {
		if c.Priority == model.PriorityStrong || c.Priority == model.PriorityPrimary {
			strong++
		}
	}

	info := &model.DebugInfo{
		TokenCount:      len(tokens),
		ProcessedTokens: append([]string{}, shown...),
		TotalContexts:   len(contexts),
		StrongContexts:  strong,
	}
	if scores != nil {
		info.Scores = maps.Clone(map[model.ContextType]int(scores))
	}
	return info
}
