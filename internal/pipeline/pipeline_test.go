package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/indxflow/internal/classify"
	"github.com/ppiankov/indxflow/internal/llm"
	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/structure"
)

const sprintText = "Nous gérons plusieurs clients avec des sprints de 2 semaines"

const modelJSON = `{"primaryType": "TEMPORAL", "confidence": 90, "reasoning": "sprint cadence", "isHybrid": true, "secondaryType": "CLIENT_BASED", "suggestedStructure": ["Backlog", "Sprint", "Review", "Done"]}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.RateLimiting.MinInterval = 0
	return cfg
}

// ollamaServer answers every generate call with modelJSON
func ollamaServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    "llama3.1:8b",
			"response": modelJSON,
			"done":     true,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeHybrid, "LOCAL": ModeLocal, " ai ": ModeAI, "hybrid": ModeHybrid} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %s, %v; expected %s", in, got, err, want)
		}
	}
	if _, err := ParseMode("remote"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestPipeline_LocalMode(t *testing.T) {
	p := NewPipeline(testConfig(), quietLogger())
	defer func() { _ = p.Close() }()

	result, err := p.Classify(context.Background(), sprintText, ModeLocal, classify.Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if result.PrimaryType != model.ContextClientBased || result.Method != model.MethodLocal {
		t.Errorf("Expected local CLIENT_BASED, got %s via %s", result.PrimaryType, result.Method)
	}
	if result.Debug != nil {
		t.Error("Expected debug info stripped by default")
	}
}

func TestPipeline_DebugOutput(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Debug = true
	p := NewPipeline(cfg, quietLogger())

	result, err := p.Classify(context.Background(), sprintText, ModeLocal, classify.Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Debug == nil || result.Debug.TokenCount == 0 {
		t.Errorf("Expected debug info, got %+v", result.Debug)
	}
}

func TestPipeline_HybridWithoutModel(t *testing.T) {
	p := NewPipeline(testConfig(), quietLogger())

	result, err := p.Classify(context.Background(), sprintText, ModeHybrid, classify.Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Method != model.MethodLocalFallback || result.AIError == "" {
		t.Errorf("Expected local_fallback with aiError, got %s / %q", result.Method, result.AIError)
	}

	if _, err := p.Classify(context.Background(), sprintText, ModeAI, classify.Options{}); !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable in ai mode, got %v", err)
	}
}

func TestPipeline_UnknownProviderDisablesModel(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = "openai" // no API key
	p := NewPipeline(cfg, quietLogger())

	if p.ModelAvailable() {
		t.Error("Expected model disabled when the provider cannot be built")
	}
}

func TestPipeline_HybridWithModel(t *testing.T) {
	var calls atomic.Int32
	server := ollamaServer(t, &calls)

	cfg := testConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.BaseURL = server.URL
	cfg.LLM.Model = "llama3.1:8b"
	p := NewPipeline(cfg, quietLogger())

	result, err := p.Classify(context.Background(), sprintText, ModeHybrid, classify.Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if !result.UsedAI || result.Method != model.MethodHybrid {
		t.Fatalf("Expected model escalation, got %s usedAI=%v aiError=%q", result.Method, result.UsedAI, result.AIError)
	}
	// Local CLIENT_BASED 80 vs model TEMPORAL 90
	if result.Strategy != model.StrategyConsensus || result.PrimaryType != model.ContextTemporal {
		t.Errorf("Expected consensus on TEMPORAL, got %s %s", result.Strategy, result.PrimaryType)
	}
	if result.Confidence != 85 {
		t.Errorf("Expected mean confidence 85, got %d", result.Confidence)
	}

	again, err := p.Classify(context.Background(), sprintText, ModeHybrid, classify.Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !again.FromCache || calls.Load() != 1 {
		t.Errorf("Expected cached reply, fromCache=%v calls=%d", again.FromCache, calls.Load())
	}

	report := p.PerformanceReport(context.Background())
	if !report.ModelAvailable || report.ModelUsage.CacheHits != 1 {
		t.Errorf("Unexpected report: %+v", report)
	}

	if err := p.ClearModelCache(); err != nil {
		t.Fatalf("ClearModelCache failed: %v", err)
	}
	if p.PerformanceReport(context.Background()).ModelUsage.CacheSize != 0 {
		t.Error("Expected empty cache")
	}
}

func TestPipeline_KeywordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	doc := `contextKeywords:
  VERSIONED:
    keywords:
      - term: firmware
        weight: 5
        variants: [firmwares]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Keywords.Path = path
	p := NewPipeline(cfg, quietLogger())

	snap := p.Keywords(context.Background(), false)
	if snap.IsFallback() || snap.Len() != 1 || !strings.HasPrefix(snap.Source(), "file:") {
		t.Fatalf("Expected file snapshot with 1 entry, got %s (%d, fallback=%v)", snap.Source(), snap.Len(), snap.IsFallback())
	}

	result, err := p.Classify(context.Background(), "Mise à jour du firmware des capteurs", ModeLocal, classify.Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.PrimaryType != model.ContextVersioned {
		t.Errorf("Expected VERSIONED from file keywords, got %s", result.PrimaryType)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	reloaded := p.Keywords(context.Background(), true)
	if !reloaded.IsFallback() {
		t.Error("Expected fallback after the file disappears")
	}
}

func TestPipeline_Ledger(t *testing.T) {
	cfg := testConfig()
	cfg.Ledger.Enabled = true
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "costs.db")
	p := NewPipeline(cfg, quietLogger())
	defer func() { _ = p.Close() }()

	for i := 0; i < 3; i++ {
		if _, err := p.Classify(context.Background(), sprintText, ModeHybrid, classify.Options{}); err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
	}

	s, err := p.CostSummary(context.Background(), "2000-01-01", "2999-12-31")
	if err != nil {
		t.Fatalf("CostSummary failed: %v", err)
	}
	if s.LocalRequests != 3 || s.AIRequests != 0 {
		t.Errorf("Expected 3 local requests, got %+v", s)
	}
}

func TestPipeline_CostSummaryDisabled(t *testing.T) {
	p := NewPipeline(testConfig(), quietLogger())
	if _, err := p.CostSummary(context.Background(), "2000-01-01", "2000-01-02"); err == nil {
		t.Error("Expected error with ledger disabled")
	}
}

func TestPipeline_Batch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texts.txt")
	lines := "# activities\n" + sprintText + "\n\nab\nMigration du système en plusieurs phases\n"
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(testConfig(), quietLogger())
	items, err := p.Batch(context.Background(), path, ModeLocal, classify.Options{})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].Result == nil || items[0].Result.PrimaryType != model.ContextClientBased {
		t.Errorf("Unexpected first item: %+v", items[0])
	}
	if items[1].Error == nil {
		t.Error("Expected invalid length error for the short line")
	}
	if items[2].Result == nil || items[2].Result.PrimaryType != model.ContextPhased {
		t.Errorf("Unexpected third item: %+v", items[2])
	}

	var buf bytes.Buffer
	if err := NewRenderer(&buf, false).WriteJSONLines(items); err != nil {
		t.Fatalf("WriteJSONLines failed: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 3 {
		t.Errorf("Expected 3 JSON lines, got %d", got)
	}
}

func TestRenderer_Summary(t *testing.T) {
	p := NewPipeline(testConfig(), quietLogger())
	result, err := p.Classify(context.Background(), sprintText, ModeLocal, classify.Options{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	var buf bytes.Buffer
	NewRenderer(&buf, true).RenderSummary(result)
	out := buf.String()

	for _, want := range []string{"CLIENT_BASED", "TEMPORAL", "Structure:", "Cost:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in summary:\n%s", want, out)
		}
	}
}

func TestRenderer_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	r := NewRenderer(io.Discard, false)

	board, err := structure.NewBoard(model.ContextTemporal, structure.DefaultVariant)
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}
	if err := r.RenderJSON(board, path); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded structure.Board
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded.ContextType != model.ContextTemporal || len(decoded.Columns) != 4 {
		t.Errorf("Unexpected board: %+v", decoded)
	}
}
