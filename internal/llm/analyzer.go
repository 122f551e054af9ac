package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ppiankov/indxflow/internal/cache"
	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/text"
	"github.com/ppiankov/indxflow/internal/worker"
)

// AnalyzerOptions configures an Analyzer. Zero values disable the feature.
type AnalyzerOptions struct {
	Cache       cache.Cache
	CacheTTL    time.Duration
	Limiter     *worker.Limiter // shared by every caller of the analyzer
	RequestCost float64
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *slog.Logger
}

// UsageStats summarizes model usage since start
type UsageStats struct {
	Provider    string    `json:"provider"`
	Configured  bool      `json:"configured"`
	Requests    int64     `json:"requestCount"`
	CacheHits   int64     `json:"cacheHits"`
	CacheSize   int       `json:"cacheSize"`
	LastRequest time.Time `json:"lastRequestTime,omitempty"`
	RequestCost float64   `json:"requestCost"`
}

// Analyzer classifies text with a model provider. Replies are cached by
// text and calls are spaced through the limiter. A nil provider makes
// every Analyze call fail with ErrUnavailable.
type Analyzer struct {
	provider Provider
	opts     AnalyzerOptions
	logger   *slog.Logger

	requests    atomic.Int64
	cacheHits   atomic.Int64
	lastRequest atomic.Int64 // unix nanos
}

// NewAnalyzer creates an analyzer for provider
func NewAnalyzer(provider Provider, opts AnalyzerOptions) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1000
	}
	return &Analyzer{
		provider: provider,
		opts:     opts,
		logger:   logger,
	}
}

// Available reports whether a provider is configured
func (a *Analyzer) Available() bool {
	return a != nil && a.provider != nil
}

// ProviderName returns the provider name, empty when disabled
func (a *Analyzer) ProviderName() string {
	if !a.Available() {
		return ""
	}
	return a.provider.Name()
}

// Analyze classifies text with the model. Input length is validated first.
// Provider failures return an error wrapping ErrModel; unparseable replies
// do not fail and yield the generic fallback result.
func (a *Analyzer) Analyze(ctx context.Context, input string) (model.ClassificationResult, error) {
	if !a.Available() {
		return model.ClassificationResult{}, ErrUnavailable
	}
	if err := text.Validate(input); err != nil {
		return model.ClassificationResult{}, err
	}

	start := time.Now()
	key := cache.CacheKey(input)

	if result, ok := a.cached(key); ok {
		a.cacheHits.Add(1)
		result.FromCache = true
		result.AnalysisTime = time.Since(start)
		a.logger.Debug("model analysis served from cache", "provider", a.provider.Name())
		return result, nil
	}

	if a.opts.Limiter != nil {
		if err := a.opts.Limiter.Wait(ctx, a.provider.Name()); err != nil {
			return model.ClassificationResult{}, fmt.Errorf("%w: waiting for call slot: %w", ErrModel, err)
		}
	}

	a.lastRequest.Store(time.Now().UnixNano())
	resp, err := a.provider.Complete(ctx, CompletionRequest{
		System:      SystemPrompt(),
		Prompt:      BuildPrompt(input),
		Model:       a.opts.Model,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: %s: %w", ErrModel, a.provider.Name(), err)
	}
	a.requests.Add(1)

	result, perr := ParseResponse(resp.Text)
	if perr != nil {
		a.logger.Warn("unusable model reply, using generic result", "provider", a.provider.Name(), "error", perr)
		a.logger.Debug("raw model reply", "text", resp.Text)
	}
	result.Cost = a.opts.RequestCost
	a.store(key, result)

	result.AnalysisTime = time.Since(start)
	a.logger.Info("model analysis complete",
		"provider", a.provider.Name(),
		"type", result.PrimaryType,
		"confidence", result.Confidence,
		"duration", result.AnalysisTime)

	return result, nil
}

// UsageStats returns counters and cache size
func (a *Analyzer) UsageStats() UsageStats {
	if a == nil {
		return UsageStats{}
	}
	stats := UsageStats{
		Provider:    a.ProviderName(),
		Configured:  a.Available(),
		RequestCost: a.opts.RequestCost,
	}
	stats.Requests = a.requests.Load()
	stats.CacheHits = a.cacheHits.Load()
	if a.opts.Cache != nil {
		stats.CacheSize = a.opts.Cache.Len()
	}
	if ns := a.lastRequest.Load(); ns != 0 {
		stats.LastRequest = time.Unix(0, ns)
	}
	return stats
}

// ClearCache drops every cached reply
func (a *Analyzer) ClearCache() error {
	if a == nil || a.opts.Cache == nil {
		return nil
	}
	if err := a.opts.Cache.Clear(); err != nil {
		return fmt.Errorf("clear model cache: %w", err)
	}
	a.logger.Info("model cache cleared")
	return nil
}

// RequestCost is the estimated cost of one model call
func (a *Analyzer) RequestCost() float64 {
	if a == nil {
		return 0
	}
	return a.opts.RequestCost
}

func (a *Analyzer) cached(key string) (model.ClassificationResult, bool) {
	var result model.ClassificationResult
	if a.opts.Cache == nil {
		return result, false
	}
	data, ok := a.opts.Cache.Get(key)
	if !ok {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		_ = a.opts.Cache.Delete(key)
		return result, false
	}
	return result, true
}

func (a *Analyzer) store(key string, result model.ClassificationResult) {
	if a.opts.Cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := a.opts.Cache.Set(key, data, a.opts.CacheTTL); err != nil {
		a.logger.Warn("model cache write failed", "error", err)
	}
}
