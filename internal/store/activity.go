package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/bloomwell/bloom/internal/adapters/remote"
	"github.com/bloomwell/bloom/internal/domain/model"
	"github.com/bloomwell/bloom/pkg/logger"
	"github.com/bloomwell/bloom/pkg/metrics"
)

// ActivityStore caches the session user's activities. Refresh replaces the
// cache atomically; Create, Update, and Delete write remotely and then
// re-fetch so the cache reflects server-assigned fields. Every method fails
// closed: on a remote error the cache is untouched and Err() carries the
// operation's stable message.
//
// Overlapping writes are not guarded against each other; each triggers its
// own refresh and the last refresh to complete wins the cache state.
type ActivityStore struct {
	remote remote.Service
	log    logger.Logger

	mu         sync.RWMutex
	activities []model.Activity
	loading    bool
	errMsg     string

	notifier
}

// ActivityOption applies a configuration option to the ActivityStore.
type ActivityOption func(*ActivityStore)

// WithActivityLogger sets a custom logger for the store.
func WithActivityLogger(l logger.Logger) ActivityOption {
	return func(s *ActivityStore) {
		if l != nil {
			s.log = l
		}
	}
}

// NewActivityStore creates an empty store backed by svc.
func NewActivityStore(svc remote.Service, opts ...ActivityOption) *ActivityStore {
	s := &ActivityStore{remote: svc}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.Named("activities")
	}

	return s
}

// Activities returns a snapshot of the cache. It never fetches.
func (s *ActivityStore) Activities() []model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

// IsLoading reports whether a store operation is in flight.
func (s *ActivityStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the current error message, or empty.
func (s *ActivityStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Subscribe registers fn to run after every state change and returns its
// cancel func.
func (s *ActivityStore) Subscribe(fn func()) func() {
	return s.subscribe(fn)
}

// Refresh fetches all activities owned by the session user, newest first,
// and replaces the cache. On failure the cache is left unchanged.
func (s *ActivityStore) Refresh(ctx context.Context) error {
	s.begin()
	defer s.finish()

	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		s.fail(msgFetchActivities, "fetch", err)
		return fmt.Errorf("fetch activities: %w", err)
	}

	rows, err := s.remote.ListActivities(ctx, user.ID)
	if err != nil {
		s.fail(msgFetchActivities, "fetch", err)
		return fmt.Errorf("fetch activities: %w", err)
	}

	s.mu.Lock()
	s.activities = rows
	s.mu.Unlock()
	s.notify()

	metrics.RecordStoreRefresh(storeActivities)
	metrics.UpdateCachedActivities(len(rows))
	return nil
}

// Create inserts a draft tagged with the session user and refreshes so the
// cache picks up the server-assigned id and defaults. The draft never
// enters the cache directly.
func (s *ActivityStore) Create(ctx context.Context, draft model.ActivityDraft) error {
	s.begin()
	defer s.finish()

	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		s.fail(msgCreateActivity, "create", err)
		return fmt.Errorf("create activity: %w", err)
	}

	if draft.Status == "" {
		draft.Status = model.StatusUpcoming
	}

	if err := s.remote.InsertActivity(ctx, user.ID, draft); err != nil {
		s.fail(msgCreateActivity, "create", err)
		return fmt.Errorf("create activity: %w", err)
	}

	return s.Refresh(ctx)
}

// Update sends a partial patch for id and refreshes on success.
func (s *ActivityStore) Update(ctx context.Context, id string, patch model.ActivityPatch) error {
	s.begin()
	defer s.finish()

	if err := s.remote.UpdateActivity(ctx, id, patch); err != nil {
		s.fail(msgUpdateActivity, "update", err)
		return fmt.Errorf("update activity: %w", err)
	}

	return s.Refresh(ctx)
}

// Delete removes the activity with the given id and refreshes on success.
func (s *ActivityStore) Delete(ctx context.Context, id string) error {
	s.begin()
	defer s.finish()

	if err := s.remote.DeleteActivity(ctx, id); err != nil {
		s.fail(msgDeleteActivity, "delete", err)
		return fmt.Errorf("delete activity: %w", err)
	}

	return s.Refresh(ctx)
}

// begin marks an operation in flight and clears the previous error.
func (s *ActivityStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

func (s *ActivityStore) finish() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *ActivityStore) fail(msg, op string, err error) {
	s.log.Warn(context.Background(), "activity operation failed",
		logger.String("op", op),
		logger.Error(err),
	)
	metrics.RecordStoreError(storeActivities, op)

	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
	s.notify()
}
