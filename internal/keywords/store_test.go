package keywords

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/indxflow/internal/model"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// countingSource counts loads and blocks until released
type countingSource struct {
	calls   atomic.Int64
	release chan struct{}
	err     error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load(ctx context.Context) (Set, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return Set{
		model.ContextPhased: {Keywords: []Entry{{Term: "phase", Weight: 4}}},
	}, nil
}

func TestStore_SingleLoadUnderConcurrency(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	store := NewStore(src, nil, discard)

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 20)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i] = store.Get(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if src.calls.Load() != 1 {
		t.Errorf("Expected exactly 1 source load, got %d", src.calls.Load())
	}
	for i, s := range snaps {
		if s != snaps[0] {
			t.Errorf("Expected caller %d to share the same snapshot", i)
		}
	}
	if snaps[0].Source() != "counting" {
		t.Errorf("Expected source counting, got %s", snaps[0].Source())
	}
}

// slowSource answers after delay unless its context ends first
type slowSource struct {
	calls atomic.Int64
	delay time.Duration
}

func (s *slowSource) Name() string { return "slow" }

func (s *slowSource) Load(ctx context.Context) (Set, error) {
	s.calls.Add(1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return Set{
		model.ContextPhased: {Keywords: []Entry{{Term: "phase", Weight: 4}}},
	}, nil
}

func TestStore_CallerTimeoutDoesNotPinFallback(t *testing.T) {
	src := &slowSource{delay: 50 * time.Millisecond}
	store := NewStore(src, nil, discard)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	first := store.Get(ctx)
	if !first.IsFallback() {
		t.Errorf("Expected the timed-out caller to get the embedded set, got %s", first.Source())
	}

	later := store.Get(context.Background())
	if later.IsFallback() || later.Source() != "slow" {
		t.Errorf("Expected the source snapshot for later callers, got %s (fallback=%v)", later.Source(), later.IsFallback())
	}
	if src.calls.Load() != 1 {
		t.Errorf("Expected exactly 1 source load, got %d", src.calls.Load())
	}
	if store.Get(context.Background()) != later {
		t.Error("Expected the loaded snapshot to be kept")
	}
}

func TestStore_FallbackOnError(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	store := NewStore(src, nil, discard)

	snap := store.Get(context.Background())

	if !snap.IsFallback() {
		t.Error("Expected fallback snapshot")
	}
	if snap.Source() != "embedded" {
		t.Errorf("Expected embedded source, got %s", snap.Source())
	}
	if len(snap.Types()) != 6 {
		t.Errorf("Expected 6 keyword contexts, got %d", len(snap.Types()))
	}

	// Fallback is sticky until reload
	store.Get(context.Background())
	if src.calls.Load() != 1 {
		t.Errorf("Expected 1 load, got %d", src.calls.Load())
	}
}

func TestStore_Reload(t *testing.T) {
	src := &countingSource{}
	store := NewStore(src, nil, discard)

	if store.Loaded() {
		t.Error("Expected store to be lazy")
	}
	first := store.Get(context.Background())
	second := store.Reload(context.Background())

	if store.Loads() != 2 {
		t.Errorf("Expected 2 loads, got %d", store.Loads())
	}
	if first == second {
		t.Error("Expected reload to produce a new snapshot")
	}
}

func TestCompile_SkipsInvalidEntries(t *testing.T) {
	store := NewStore(nil, nil, discard)
	snap := Compile(Set{
		model.ContextTemporal: {Keywords: []Entry{
			{Term: "sprint", Weight: 4.5},
			{Term: "heavy", Weight: 9},
			{Term: "", Weight: 2},
			{Term: "zero", Weight: 0},
		}},
		model.ContextType("UNKNOWN"): {Keywords: []Entry{{Term: "x", Weight: 1}}},
	}, store.Normalizer(), "test")

	if snap.Len() != 1 {
		t.Errorf("Expected 1 usable entry, got %d", snap.Len())
	}
	if _, ok := snap.Match(model.ContextTemporal, store.Normalizer().Key("sprints")); !ok {
		t.Error("Expected sprints to match the sprint entry")
	}
}

func TestCompile_SkipsMultiWordTerms(t *testing.T) {
	store := NewStore(nil, nil, discard)
	snap := Compile(Set{
		model.ContextVersioned: {Keywords: []Entry{
			{Term: "mise à jour", Weight: 4},
			{Term: "release", Weight: 4, Variants: []string{"releases", "go-live"}},
		}},
	}, store.Normalizer(), "test")

	if snap.Len() != 1 {
		t.Fatalf("Expected 1 usable entry, got %d", snap.Len())
	}
	if snap.Skipped() != 2 {
		t.Errorf("Expected 2 skipped (term and variant), got %d", snap.Skipped())
	}
	entries := snap.Entries(model.ContextVersioned)
	if len(entries[0].Variants) != 1 || entries[0].Variants[0] != "releases" {
		t.Errorf("Expected only the single-word variant kept, got %v", entries[0].Variants)
	}
	if _, ok := snap.Match(model.ContextVersioned, store.Normalizer().Key("releases")); !ok {
		t.Error("Expected releases to match")
	}
}

func TestDecode(t *testing.T) {
	wrapped := []byte(`{"contextKeywords": {"TEMPORAL": {"keywords": [{"term": "sprint", "weight": 4.5, "variants": ["scrum"]}]}}}`)
	set, err := Decode(wrapped)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(set[model.ContextTemporal].Keywords) != 1 {
		t.Errorf("Expected 1 TEMPORAL keyword, got %v", set)
	}

	plain := []byte("PHASED:\n  keywords:\n    - term: phase\n      weight: 4\n")
	set, err = Decode(plain)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if set[model.ContextPhased].Keywords[0].Term != "phase" {
		t.Errorf("Expected phase, got %v", set)
	}

	if _, err := Decode([]byte("{}")); err == nil {
		t.Error("Expected error for empty artifact")
	}
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"contextKeywords": {"CLIENT_BASED": {"keywords": [{"term": "client", "weight": 5}]}}}`))
	}))
	defer server.Close()

	set, err := NewHTTPSource(server.URL+"/keywords.json", time.Second, "indxflow-test").Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(set[model.ContextClientBased].Keywords) != 1 {
		t.Errorf("Expected 1 CLIENT_BASED keyword, got %v", set)
	}

	if _, err := NewHTTPSource(server.URL+"/missing", time.Second, "").Load(context.Background()); err == nil {
		t.Error("Expected error for 404")
	}
}
