package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/indxflow/internal/cache"
	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/text"
	"github.com/ppiankov/indxflow/internal/worker"
)

// MockProvider is a mock LLM provider for testing
type MockProvider struct {
	mu        sync.Mutex
	reply     string
	err       error
	calls     int
	callTimes []time.Time
	lastReq   CompletionRequest
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.callTimes = append(m.callTimes, time.Now())
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &CompletionResponse{Text: m.reply, Model: "mock-1", TokensUsed: 42}, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.err == nil
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestAnalyzer_Unavailable(t *testing.T) {
	a := NewAnalyzer(nil, AnalyzerOptions{})

	if a.Available() {
		t.Error("Expected analyzer without provider to be unavailable")
	}
	if _, err := a.Analyze(context.Background(), "Nous gérons des clients"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}

	stats := a.UsageStats()
	if stats.Configured || stats.Provider != "" {
		t.Errorf("Expected unconfigured stats, got %+v", stats)
	}
}

func TestAnalyzer_InvalidLength(t *testing.T) {
	mock := &MockProvider{reply: validReply}
	a := NewAnalyzer(mock, AnalyzerOptions{})

	if _, err := a.Analyze(context.Background(), "ab"); !errors.Is(err, text.ErrInvalidInputLength) {
		t.Errorf("Expected ErrInvalidInputLength, got %v", err)
	}
	if mock.Calls() != 0 {
		t.Errorf("Expected no provider call, got %d", mock.Calls())
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	mock := &MockProvider{reply: validReply}
	a := NewAnalyzer(mock, AnalyzerOptions{RequestCost: 0.002, Temperature: 0.1})

	result, err := a.Analyze(context.Background(), "Nous gérons plusieurs clients en sprints")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.PrimaryType != model.ContextClientBased {
		t.Errorf("Expected CLIENT_BASED, got %s", result.PrimaryType)
	}
	if result.Cost != 0.002 {
		t.Errorf("Expected cost 0.002, got %v", result.Cost)
	}
	if result.FromCache {
		t.Error("Expected fresh result")
	}
	if mock.lastReq.System == "" || mock.lastReq.MaxTokens != 1000 || mock.lastReq.Temperature != 0.1 {
		t.Errorf("Unexpected request: %+v", mock.lastReq)
	}
}

func TestAnalyzer_UnparseableReply(t *testing.T) {
	mock := &MockProvider{reply: "sorry, I cannot help"}
	a := NewAnalyzer(mock, AnalyzerOptions{})

	result, err := a.Analyze(context.Background(), "Nous gérons plusieurs clients")
	if err != nil {
		t.Fatalf("Expected no error for unparseable reply, got %v", err)
	}
	if result.PrimaryType != model.ContextGeneric || result.Confidence != 50 {
		t.Errorf("Expected generic fallback, got %s %d", result.PrimaryType, result.Confidence)
	}
}

func TestAnalyzer_ProviderError(t *testing.T) {
	mock := &MockProvider{err: &APIError{StatusCode: 500, Message: "boom"}}
	a := NewAnalyzer(mock, AnalyzerOptions{})

	_, err := a.Analyze(context.Background(), "Nous gérons plusieurs clients")
	if !errors.Is(err, ErrModel) {
		t.Fatalf("Expected ErrModel, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Errorf("Expected wrapped APIError, got %v", err)
	}

	mock.err = errors.New("connection refused")
	if _, err := a.Analyze(context.Background(), "Nous gérons plusieurs clients"); !errors.Is(err, ErrModel) {
		t.Errorf("Expected plain errors wrapped in ErrModel, got %v", err)
	}
}

func TestAnalyzer_CacheHit(t *testing.T) {
	mock := &MockProvider{reply: validReply}
	c := cache.NewMemoryCache(time.Hour, time.Minute)
	a := NewAnalyzer(mock, AnalyzerOptions{Cache: c, CacheTTL: time.Hour})

	if _, err := a.Analyze(context.Background(), "Nous gérons plusieurs clients"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// Same text after case and whitespace changes hits the cache
	result, err := a.Analyze(context.Background(), "  NOUS gérons plusieurs clients ")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if mock.Calls() != 1 {
		t.Errorf("Expected 1 provider call, got %d", mock.Calls())
	}
	if !result.FromCache {
		t.Error("Expected FromCache to be set")
	}
	if result.PrimaryType != model.ContextClientBased {
		t.Errorf("Expected cached CLIENT_BASED, got %s", result.PrimaryType)
	}

	stats := a.UsageStats()
	if stats.Requests != 1 || stats.CacheHits != 1 || stats.CacheSize != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.LastRequest.IsZero() {
		t.Error("Expected last request time")
	}

	if err := a.ClearCache(); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	if a.UsageStats().CacheSize != 0 {
		t.Error("Expected empty cache after ClearCache")
	}
	if _, err := a.Analyze(context.Background(), "Nous gérons plusieurs clients"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("Expected provider call after clear, got %d", mock.Calls())
	}
}

func TestAnalyzer_CallSpacing(t *testing.T) {
	mock := &MockProvider{reply: validReply}
	interval := 50 * time.Millisecond
	a := NewAnalyzer(mock, AnalyzerOptions{Limiter: worker.NewLimiter(interval)})

	texts := []string{"premier texte client", "second texte sprint", "troisième texte phase"}

	var wg sync.WaitGroup
	for _, s := range texts {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			if _, err := a.Analyze(context.Background(), s); err != nil {
				t.Errorf("Analyze failed: %v", err)
			}
		}(s)
	}
	wg.Wait()

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if len(mock.callTimes) != 3 {
		t.Fatalf("Expected 3 calls, got %d", len(mock.callTimes))
	}
	first, last := mock.callTimes[0], mock.callTimes[0]
	for _, ct := range mock.callTimes {
		if ct.Before(first) {
			first = ct
		}
		if ct.After(last) {
			last = ct
		}
	}
	// Three calls need at least two full intervals, minus scheduler slack
	if last.Sub(first) < 2*interval-10*time.Millisecond {
		t.Errorf("Expected calls spaced by %v, spread was %v", interval, last.Sub(first))
	}
}

func TestAnalyzer_CancelledWhileWaiting(t *testing.T) {
	mock := &MockProvider{reply: validReply}
	a := NewAnalyzer(mock, AnalyzerOptions{Limiter: worker.NewLimiter(time.Hour)})

	if _, err := a.Analyze(context.Background(), "premier texte"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := a.Analyze(ctx, "second texte"); !errors.Is(err, ErrModel) {
		t.Errorf("Expected ErrModel on cancelled wait, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("Expected 1 provider call, got %d", mock.Calls())
	}
}
