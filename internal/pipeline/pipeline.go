// Package pipeline wires configuration into the analyzers and renders their results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/indxflow/internal/cache"
	"github.com/ppiankov/indxflow/internal/classify"
	"github.com/ppiankov/indxflow/internal/keywords"
	"github.com/ppiankov/indxflow/internal/ledger"
	"github.com/ppiankov/indxflow/internal/llm"
	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/worker"
)

// UserAgent identifies keyword downloads
const UserAgent = "indxflow/0.1 (+https://github.com/ppiankov/indxflow)"

// Mode selects the analysis path
type Mode string

const (
	ModeHybrid Mode = "hybrid"
	ModeLocal  Mode = "local"
	ModeAI     Mode = "ai"
)

// ParseMode parses a mode flag; empty means hybrid
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeHybrid, nil
	case ModeHybrid, ModeLocal, ModeAI:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (supported: hybrid, local, ai)", s)
	}
}

// Pipeline holds the analyzers built from one configuration
type Pipeline struct {
	config       *model.Config
	store        *keywords.Store
	local        *classify.LocalAnalyzer
	analyzer     *llm.Analyzer
	orchestrator *classify.Orchestrator
	ledger       *ledger.SQLiteLedger // nil when disabled
	logger       *slog.Logger
}

// NewPipeline creates a pipeline with the given configuration.
// A model provider or ledger that fails to initialize is logged and disabled.
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	store := keywords.NewStore(keywordSource(cfg.Keywords), nil, logger)
	local := classify.NewLocalAnalyzer(store, logger)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		logger.Warn("model provider disabled", "provider", cfg.LLM.Provider, "error", err)
		provider = nil
	}

	analyzer := llm.NewAnalyzer(provider, llm.AnalyzerOptions{
		Cache:       resultCache(cfg.Cache),
		CacheTTL:    cfg.Cache.TTL,
		Limiter:     worker.NewLimiter(cfg.RateLimiting.MinInterval),
		RequestCost: cfg.Analysis.AICost,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})

	p := &Pipeline{
		config:   cfg,
		store:    store,
		local:    local,
		analyzer: analyzer,
		logger:   logger,
	}

	var sink ledger.Sink = ledger.NopSink{}
	if cfg.Ledger.Enabled {
		l, err := ledger.Open(ledgerPath(cfg.Ledger))
		if err != nil {
			logger.Warn("cost ledger disabled", "error", err)
		} else {
			p.ledger = l
			sink = l
		}
	}

	p.orchestrator = classify.NewOrchestrator(local, classify.Config{
		Model:               analyzer,
		Ledger:              sink,
		ConfidenceThreshold: cfg.Analysis.ConfidenceThreshold,
		LocalCost:           cfg.Analysis.LocalCost,
		Logger:              logger,
	})

	return p
}

func keywordSource(cfg model.KeywordsConfig) keywords.Source {
	switch {
	case cfg.Path != "":
		return keywords.FileSource{Path: cfg.Path}
	case cfg.URL != "":
		return keywords.NewHTTPSource(cfg.URL, cfg.Timeout, UserAgent)
	default:
		return keywords.Embedded()
	}
}

func resultCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir != "" {
		return cache.NewLayeredCache(cfg.TTL, cfg.Cleanup, cfg.Dir)
	}
	return cache.NewMemoryCache(cfg.TTL, cfg.Cleanup)
}

// DefaultLedgerPath is $HOME/.indxflow/costs.db
func DefaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "indxflow-costs.db"
	}
	return filepath.Join(home, ".indxflow", "costs.db")
}

func ledgerPath(cfg model.LedgerConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return DefaultLedgerPath()
}

// Classify analyzes one text along mode
func (p *Pipeline) Classify(ctx context.Context, text string, mode Mode, opts classify.Options) (model.ClassificationResult, error) {
	var result model.ClassificationResult
	var err error

	switch mode {
	case ModeLocal:
		result, err = p.local.Analyze(ctx, text)
	case ModeAI:
		result, err = p.analyzer.Analyze(ctx, text)
	default:
		result, err = p.orchestrator.Classify(ctx, text, opts)
	}
	if err != nil {
		return model.ClassificationResult{}, err
	}

	if !p.config.Output.Debug {
		result.Debug = nil
	}
	return result, nil
}

// Batch classifies every line of a file with the configured worker count
func (p *Pipeline) Batch(ctx context.Context, path string, mode Mode, opts classify.Options) ([]*worker.ItemResult, error) {
	processor := worker.NewBatchProcessor(worker.ClassifierFunc(func(ctx context.Context, text string) (model.ClassificationResult, error) {
		return p.Classify(ctx, text, mode, opts)
	}), p.config.Concurrency.Workers)

	return processor.ProcessFile(ctx, path)
}

// Compare runs every method on text
func (p *Pipeline) Compare(ctx context.Context, text string) (*classify.Comparison, error) {
	return p.orchestrator.Compare(ctx, text)
}

// PerformanceReport describes the analyzers
func (p *Pipeline) PerformanceReport(ctx context.Context) classify.PerformanceReport {
	return p.orchestrator.PerformanceReport(ctx)
}

// Keywords returns the keyword snapshot, reloading it from the source first if asked
func (p *Pipeline) Keywords(ctx context.Context, reload bool) *keywords.Snapshot {
	if reload {
		return p.store.Reload(ctx)
	}
	return p.store.Get(ctx)
}

// ModelAvailable reports whether a model provider is configured
func (p *Pipeline) ModelAvailable() bool {
	return p.analyzer.Available()
}

// ClearModelCache drops every cached model reply
func (p *Pipeline) ClearModelCache() error {
	return p.analyzer.ClearCache()
}

// CostSummary aggregates the ledger between two dates
func (p *Pipeline) CostSummary(ctx context.Context, start, end string) (ledger.Summary, error) {
	if p.ledger == nil {
		return ledger.Summary{}, fmt.Errorf("cost ledger is disabled (set ledger.enabled)")
	}
	return p.ledger.Summary(ctx, start, end)
}

// Close releases the ledger
func (p *Pipeline) Close() error {
	if p.ledger == nil {
		return nil
	}
	return p.ledger.Close()
}
