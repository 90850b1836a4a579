package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bloomwell/bloom/internal/adapters/remote"
	"github.com/bloomwell/bloom/internal/domain/model"
	"github.com/bloomwell/bloom/pkg/logger"
	"github.com/bloomwell/bloom/pkg/metrics"
)

// MetricsStore caches the session user's singleton metrics row. Refresh
// lazily repairs a missing row with all-zero defaults. UpdateMetrics is an
// optimistic merge: on success the patch is folded into the cached object
// directly, with no re-fetch.
//
// Known gap, kept deliberately: an update that succeeds before the first
// Refresh has populated the cache leaves the cache empty. The remote row is
// updated; nothing local becomes visible until a Refresh runs.
type MetricsStore struct {
	remote remote.Service
	log    logger.Logger
	now    func() time.Time

	mu      sync.RWMutex
	metrics model.UserMetrics
	has     bool
	loading bool
	errMsg  string

	notifier
}

// MetricsOption applies a configuration option to the MetricsStore.
type MetricsOption func(*MetricsStore)

// WithMetricsLogger sets a custom logger for the store.
func WithMetricsLogger(l logger.Logger) MetricsOption {
	return func(s *MetricsStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsClock sets the clock used for updated_at stamps.
func WithMetricsClock(now func() time.Time) MetricsOption {
	return func(s *MetricsStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMetricsStore creates an empty store backed by svc.
func NewMetricsStore(svc remote.Service, opts ...MetricsOption) *MetricsStore {
	s := &MetricsStore{remote: svc, now: time.Now}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.Named("metrics")
	}

	return s
}

// Metrics returns the cached snapshot and whether one exists yet.
func (s *MetricsStore) Metrics() (model.UserMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics, s.has
}

// IsLoading reports whether a store operation is in flight.
func (s *MetricsStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the current error message, or empty.
func (s *MetricsStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Subscribe registers fn to run after every state change and returns its
// cancel func.
func (s *MetricsStore) Subscribe(fn func()) func() {
	return s.subscribe(fn)
}

// Refresh fetches the session user's metrics row. Only the no-rows signal
// triggers the default-row repair; any other failure leaves the cache
// unchanged.
func (s *MetricsStore) Refresh(ctx context.Context) error {
	s.begin()
	defer s.finish()

	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		s.fail("fetch", err)
		return fmt.Errorf("fetch metrics: %w", err)
	}

	row, err := s.remote.MetricsByOwner(ctx, user.ID)
	switch {
	case errors.Is(err, remote.ErrNoRows):
		row, err = s.remote.InsertMetrics(ctx, user.ID, s.defaults())
		if err != nil {
			s.fail("fetch", err)
			return fmt.Errorf("create default metrics: %w", err)
		}
	case err != nil:
		s.fail("fetch", err)
		return fmt.Errorf("fetch metrics: %w", err)
	}

	s.mu.Lock()
	s.metrics = row
	s.has = true
	s.mu.Unlock()
	s.notify()

	metrics.RecordStoreRefresh(storeMetrics)
	return nil
}

// UpdateMetrics sends the patch with a fresh updated_at and merges it into
// the cache on success. The merged result is discarded when no cache exists
// yet.
func (s *MetricsStore) UpdateMetrics(ctx context.Context, patch model.MetricsPatch) error {
	s.begin()
	defer s.finish()

	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		s.fail("update", err)
		return fmt.Errorf("update metrics: %w", err)
	}

	updatedAt := s.now()
	if err := s.remote.UpdateMetricsByOwner(ctx, user.ID, patch, updatedAt); err != nil {
		s.fail("update", err)
		return fmt.Errorf("update metrics: %w", err)
	}

	s.mu.Lock()
	if s.has {
		s.metrics = s.metrics.Apply(patch)
		s.metrics.UpdatedAt = updatedAt
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// defaults is the all-zero row used to repair a missing record.
func (s *MetricsStore) defaults() model.UserMetrics {
	return model.UserMetrics{UpdatedAt: s.now()}
}

func (s *MetricsStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

func (s *MetricsStore) finish() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *MetricsStore) fail(op string, err error) {
	s.log.Warn(context.Background(), "metrics operation failed",
		logger.String("op", op),
		logger.Error(err),
	)
	metrics.RecordStoreError(storeMetrics, op)

	msg := msgFetchMetrics
	if op == "update" {
		msg = msgUpdateMetrics
	}

	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
	s.notify()
}
