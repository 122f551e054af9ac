package keywords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ppiankov/indxflow/internal/text"
	"golang.org/x/sync/singleflight"
)

// ErrStoreUnavailable marks a keyword source that could not be loaded.
// It is logged and recovered with the embedded set, never returned to analyzers.
var ErrStoreUnavailable = errors.New("keyword store unavailable")

// Store lazily loads a keyword snapshot once and shares it across analyses.
// Concurrent callers during the first load wait on the same in-flight load.
type Store struct {
	source     Source
	normalizer *text.Normalizer
	logger     *slog.Logger

	group   singleflight.Group
	current atomic.Pointer[Snapshot]
	loads   atomic.Int64
}

// NewStore creates a store backed by source; a nil source means the embedded set
func NewStore(source Source, normalizer *text.Normalizer, logger *slog.Logger) *Store {
	if source == nil {
		source = Embedded()
	}
	if normalizer == nil {
		normalizer = text.NewNormalizer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		source:     source,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Get returns the loaded snapshot, loading it on first use.
// The load runs detached from ctx: a caller whose ctx ends first gets an
// uncached embedded snapshot while the load completes for later callers.
func (s *Store) Get(ctx context.Context) *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("load", func() (interface{}, error) {
		// Double-check after joining the flight
		if snap := s.current.Load(); snap != nil {
			return snap, nil
		}
		snap := s.load(loadCtx)
		s.current.Store(snap)
		return snap, nil
	})

	select {
	case res := <-ch:
		return res.Val.(*Snapshot)
	case <-ctx.Done():
		s.logger.Warn("keyword load still in flight, using embedded set for this caller", "error", ctx.Err())
		return s.fallback()
	}
}

// Reload discards the current snapshot and loads again
func (s *Store) Reload(ctx context.Context) *Snapshot {
	s.current.Store(nil)
	return s.Get(ctx)
}

// Loaded reports whether a snapshot is available without loading one
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Loads returns how many times the source was read
func (s *Store) Loads() int64 {
	return s.loads.Load()
}

// Normalizer returns the normalizer used to compile keywords
func (s *Store) Normalizer() *text.Normalizer {
	return s.normalizer
}

func (s *Store) load(ctx context.Context) *Snapshot {
	s.loads.Add(1)

	set, err := s.source.Load(ctx)
	if err == nil {
		snap := Compile(set, s.normalizer, s.source.Name())
		if snap.Skipped() > 0 {
			s.logger.Warn("multi-word keywords ignored", "source", snap.Source(), "count", snap.Skipped())
		}
		if snap.Len() > 0 {
			s.logger.Info("keywords loaded", "source", snap.Source(), "entries", snap.Len(), "contexts", len(snap.Types()))
			return snap
		}
		err = fmt.Errorf("no usable keyword entries")
	}

	s.logger.Warn("keyword source unavailable, using embedded set",
		"source", s.source.Name(),
		"error", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))

	return s.fallback()
}

func (s *Store) fallback() *Snapshot {
	snap := Compile(DefaultSet(), s.normalizer, "embedded")
	snap.fallback = true
	return snap
}
