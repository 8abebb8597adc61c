/*
service.go - Snapshot lifecycle around the engine

PURPOSE:
  Wraps the pure engine with the one mutable thing in the system: which
  snapshot is current. Refresh loads a snapshot from the provider, builds a
  fresh engine (index included), and swaps it in atomically. In-flight
  quotes keep whichever engine they started with - they see the entire old
  snapshot or the entire new one, never a mix.

FAILURE SEMANTICS:
  A failed refresh (store error or index integrity violation) leaves the
  previous engine serving. Quote before the first successful refresh returns
  ErrSnapshotUnavailable.
*/
package rating

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Service is the embeddable entry point: a rating engine plus snapshot
// refresh. Safe for concurrent use.
type Service struct {
	provider SnapshotProvider
	log      *zap.Logger
	current  atomic.Pointer[Engine]
}

// NewService creates a service over the given provider. No snapshot is
// resident until the first successful Refresh.
func NewService(provider SnapshotProvider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{provider: provider, log: log}
}

// Refresh loads a fresh snapshot and swaps it in atomically. On any error
// the previous snapshot (if one exists) keeps serving.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()

	snap, err := s.provider.LoadSnapshot(ctx)
	if err != nil {
		s.log.Error("snapshot load failed", zap.Error(err))
		return err
	}

	engine, err := NewEngine(snap)
	if err != nil {
		s.log.Error("snapshot rejected",
			zap.String("version", snap.Version),
			zap.Error(err))
		return err
	}

	s.current.Store(engine)
	s.log.Info("snapshot refreshed",
		zap.String("version", snap.Version),
		zap.Int("plans", len(snap.Plans)),
		zap.Int("tariffs", engine.Index().Size()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Quote prices a request against the current snapshot.
func (s *Service) Quote(req QuoteRequest) (*QuotePriceBreakdown, error) {
	engine := s.current.Load()
	if engine == nil {
		return nil, ErrSnapshotUnavailable
	}
	return engine.Quote(req)
}

// Snapshot returns the current snapshot, or nil before the first refresh.
func (s *Service) Snapshot() *Snapshot {
	engine := s.current.Load()
	if engine == nil {
		return nil
	}
	return engine.Snapshot()
}

// Engine returns the current engine, or nil before the first refresh.
// Intended for read-only inspection (index stats, direct Rate calls).
func (s *Service) Engine() *Engine { return s.current.Load() }
