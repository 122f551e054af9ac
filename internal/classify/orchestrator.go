package classify

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/indxflow/internal/ledger"
	"github.com/ppiankov/indxflow/internal/llm"
	"github.com/ppiankov/indxflow/internal/model"
)

// Escalation policy
const (
	// DefaultConfidenceThreshold is the local confidence below which the model is asked
	DefaultConfidenceThreshold = 75

	// Local confidence below this always escalates, whatever the threshold
	confidenceFloor = 40
)

// ModelAnalyzer classifies text with a language model
type ModelAnalyzer interface {
	Available() bool
	Analyze(ctx context.Context, text string) (model.ClassificationResult, error)
	UsageStats() llm.UsageStats
}

// Options controls one classification
type Options struct {
	ForceAI             bool
	ForceLocal          bool
	ConfidenceThreshold int // DefaultConfidenceThreshold when zero
}

// Config wires an Orchestrator. Model and Ledger may be nil.
type Config struct {
	Model               ModelAnalyzer
	Ledger              ledger.Sink
	ConfidenceThreshold int
	LocalCost           float64
	Logger              *slog.Logger
}

// Orchestrator runs the local analyzer first and escalates to the model
// analyzer when the local answer is weak or ambiguous.
type Orchestrator struct {
	local     *LocalAnalyzer
	model     ModelAnalyzer
	ledger    ledger.Sink
	threshold int
	localCost float64
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator around local
func NewOrchestrator(local *LocalAnalyzer, cfg Config) *Orchestrator {
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.NopSink{}
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		local:     local,
		model:     cfg.Model,
		ledger:    cfg.Ledger,
		threshold: cfg.ConfidenceThreshold,
		localCost: cfg.LocalCost,
		logger:    cfg.Logger,
	}
}

// Local returns the local analyzer
func (o *Orchestrator) Local() *LocalAnalyzer {
	return o.local
}

// ModelAvailable reports whether a model analyzer is configured
func (o *Orchestrator) ModelAvailable() bool {
	return o.model != nil && o.model.Available()
}

// ShouldUseAI decides whether a local result needs the model
func (o *Orchestrator) ShouldUseAI(local model.ClassificationResult, opts Options) bool {
	if opts.ForceLocal {
		return false
	}
	if opts.ForceAI {
		return true
	}

	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = o.threshold
	}

	needsAI := local.Confidence < threshold ||
		local.PrimaryType == model.ContextGeneric ||
		local.IsHybrid ||
		local.Confidence < confidenceFloor

	o.logger.Debug("escalation decision",
		"needs_ai", needsAI,
		"confidence", local.Confidence,
		"type", local.PrimaryType,
		"threshold", threshold)

	return needsAI
}

// Classify returns a classification for input. Only input validation fails;
// model trouble degrades to the local result with AIError set.
func (o *Orchestrator) Classify(ctx context.Context, input string, opts Options) (model.ClassificationResult, error) {
	start := time.Now()

	local, err := o.local.Analyze(ctx, input)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	cost := o.localCost

	var result model.ClassificationResult
	switch {
	case !o.ShouldUseAI(local, opts):
		result = local
		if opts.ForceLocal {
			result.Method = model.MethodLocalForced
		} else {
			result.Method = model.MethodLocalSufficient
			result.Reasoning += " (confidence sufficient)"
		}

	case !o.ModelAvailable():
		result = fallback(local, llm.ErrUnavailable)

	default:
		ai, err := o.model.Analyze(ctx, input)
		if err != nil {
			o.logger.Warn("model analysis failed, using local result", "error", err)
			result = fallback(local, err)
			break
		}
		if !ai.FromCache {
			cost += ai.Cost
		}

		result = Fuse(local, ai)
		result.UsedAI = true
		result.AIConfidence = ai.Confidence
		result.ConfidenceImprovement = ai.Confidence - local.Confidence
		result.FromCache = ai.FromCache
		result.Language = local.Language
	}

	result.LocalConfidence = local.Confidence
	result.Cost = cost
	result.AnalysisTime = time.Since(start)

	o.record(ctx, result)

	o.logger.Info("classification complete",
		"method", result.Method,
		"strategy", result.Strategy,
		"type", result.PrimaryType,
		"confidence", result.Confidence,
		"duration", result.AnalysisTime,
		"cost", result.Cost)

	return result, nil
}

// fallback is the local result annotated with the model failure
func fallback(local model.ClassificationResult, cause error) model.ClassificationResult {
	result := local
	result.Method = model.MethodLocalFallback
	result.UsedAI = false
	result.AIError = cause.Error()
	result.Reasoning += " (AI unavailable)"
	return result
}

// record hands the result to the cost ledger; failures are only logged
func (o *Orchestrator) record(ctx context.Context, result model.ClassificationResult) {
	err := o.ledger.Record(context.WithoutCancel(ctx), ledger.Entry{
		UsedAI:     result.UsedAI,
		Method:     string(result.Method),
		Confidence: result.Confidence,
		Cost:       result.Cost,
		Date:       ledger.Today(),
	})
	if err != nil {
		o.logger.Error("cost ledger write failed", "error", err)
	}
}

// PerformanceReport describes the analyzers behind the orchestrator
type PerformanceReport struct {
	KeywordsLoaded      bool           `json:"keywordsLoaded"`
	KeywordSource       string         `json:"keywordSource,omitempty"`
	KeywordEntries      int            `json:"keywordEntries"`
	KeywordFallback     bool           `json:"keywordFallback"`
	ModelAvailable      bool           `json:"modelAvailable"`
	ModelUsage          llm.UsageStats `json:"modelUsage"`
	ConfidenceThreshold int            `json:"confidenceThreshold"`
	LocalCost           float64        `json:"localCost"`
}

// PerformanceReport returns the current state of both analyzers.
// It does not trigger a keyword load.
func (o *Orchestrator) PerformanceReport(ctx context.Context) PerformanceReport {
	report := PerformanceReport{
		KeywordsLoaded:      o.local.KeywordsLoaded(),
		ModelAvailable:      o.ModelAvailable(),
		ConfidenceThreshold: o.threshold,
		LocalCost:           o.localCost,
	}
	if report.KeywordsLoaded {
		snap := o.local.Store().Get(ctx)
		report.KeywordSource = snap.Source()
		report.KeywordEntries = snap.Len()
		report.KeywordFallback = snap.IsFallback()
	}
	if o.model != nil {
		report.ModelUsage = o.model.UsageStats()
	}
	return report
}
