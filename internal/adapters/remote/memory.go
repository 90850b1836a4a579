package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bloomwell/bloom/internal/domain/model"
)

// Operation names passed to a Memory hook, one per Service method.
const (
	OpSignUp            = "sign_up"
	OpSignIn            = "sign_in"
	OpSignOut           = "sign_out"
	OpSendPasswordReset = "reset_password"
	OpUpdateUser        = "update_user"
	OpCurrentUser       = "current_user"
	OpListActivities    = "list_activities"
	OpInsertActivity    = "insert_activity"
	OpUpdateActivity    = "update_activity"
	OpDeleteActivity    = "delete_activity"
	OpMetricsByOwner    = "metrics_by_owner"
	OpInsertMetrics     = "insert_metrics"
	OpUpdateMetrics     = "update_metrics"
)

type memoryAccount struct {
	password string
	user     model.User
}

// Memory is an in-process Service used by tests and offline demos. Every
// operation first runs the optional Hook, whose error is returned as-is,
// which is how tests inject remote failures.
type Memory struct {
	// Hook, when set, runs before each operation with its name.
	Hook func(op string) error

	mu         sync.Mutex
	accounts   map[string]*memoryAccount // keyed by email
	session    Session
	hasSession bool
	activities []model.Activity
	metrics    map[string]model.UserMetrics // keyed by user id
	now        func() time.Time
	seq        int // breaks created_at ties for deterministic ordering
}

// MemoryOption applies a configuration option to Memory.
type MemoryOption func(*Memory)

// WithMemoryClock sets the clock used for created_at stamps.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty in-process backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		accounts: make(map[string]*memoryAccount),
		metrics:  make(map[string]model.UserMetrics),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) hook(op string) error {
	if m.Hook != nil {
		return m.Hook(op)
	}
	return nil
}

// SignUp registers a new account and opens a session for it.
func (m *Memory) SignUp(_ context.Context, email, password string, meta model.Metadata) (Session, error) {
	if err := m.hook(OpSignUp); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := m.accounts[key]; exists {
		return Session{}, fmt.Errorf("%w: %s", ErrUserExists, email)
	}

	u := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Metadata:  meta,
		CreatedAt: m.now(),
	}
	m.accounts[key] = &memoryAccount{password: password, user: u}
	return m.openSession(u), nil
}

// SignIn checks credentials and opens a session.
func (m *Memory) SignIn(_ context.Context, email, password string) (Session, error) {
	if err := m.hook(OpSignIn); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[strings.ToLower(email)]
	if !ok || acct.password != password {
		return Session{}, &APIError{Status: 400, Message: "Invalid login credentials"}
	}
	return m.openSession(acct.user), nil
}

// SignOut drops the session.
func (m *Memory) SignOut(_ context.Context) error {
	if err := m.hook(OpSignOut); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSession {
		return ErrNoSession
	}
	m.session = Session{}
	m.hasSession = false
	return nil
}

// SendPasswordReset is a no-op for known emails, mirroring the hosted
// backend's don't-leak-existence behavior.
func (m *Memory) SendPasswordReset(_ context.Context, _ string) error {
	return m.hook(OpSendPasswordReset)
}

// UpdateUser replaces the account metadata and returns the stored identity.
func (m *Memory) UpdateUser(_ context.Context, meta model.Metadata) (model.User, error) {
	if err := m.hook(OpUpdateUser); err != nil {
		return model.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasSession {
		return model.User{}, ErrNoSession
	}
	acct, ok := m.accounts[strings.ToLower(m.session.User.Email)]
	if !ok {
		return model.User{}, ErrNoSession
	}
	acct.user.Metadata = meta
	m.session.User = acct.user
	return acct.user, nil
}

// CurrentUser returns the session identity.
func (m *Memory) CurrentUser(_ context.Context) (model.User, error) {
	if err := m.hook(OpCurrentUser); err != nil {
		return model.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSession {
		return model.User{}, ErrNoSession
	}
	return m.session.User, nil
}

// RestoreSession installs a previously persisted session.
func (m *Memory) RestoreSession(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	m.hasSession = s.AccessToken != ""
}

// ListActivities returns the owner's rows newest-first.
func (m *Memory) ListActivities(_ context.Context, ownerID string) ([]model.Activity, error) {
	if err := m.hook(OpListActivities); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []model.Activity
	for _, a := range m.activities {
		if a.UserID == ownerID {
			rows = append(rows, a)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}

// InsertActivity stores a new row with a generated id.
func (m *Memory) InsertActivity(_ context.Context, ownerID string, draft model.ActivityDraft) error {
	if err := m.hook(OpInsertActivity); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	status := draft.Status
	if status == "" {
		status = model.StatusUpcoming
	}
	m.seq++
	m.activities = append(m.activities, model.Activity{
		ID:           uuid.NewString(),
		UserID:       ownerID,
		Title:        draft.Title,
		Type:         draft.Type,
		Description:  draft.Description,
		Duration:     draft.Duration,
		Time:         draft.Time,
		Participants: draft.Participants,
		Status:       status,
		CreatedAt:    m.now().Add(time.Duration(m.seq) * time.Nanosecond),
	})
	return nil
}

// UpdateActivity patches the row with the given id.
func (m *Memory) UpdateActivity(_ context.Context, id string, patch model.ActivityPatch) error {
	if err := m.hook(OpUpdateActivity); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.activities {
		if m.activities[i].ID != id {
			continue
		}
		a := &m.activities[i]
		if patch.Title != nil {
			a.Title = *patch.Title
		}
		if patch.Type != nil {
			a.Type = *patch.Type
		}
		if patch.Description != nil {
			a.Description = *patch.Description
		}
		if patch.Duration != nil {
			a.Duration = *patch.Duration
		}
		if patch.Time != nil {
			a.Time = *patch.Time
		}
		if patch.Participants != nil {
			a.Participants = *patch.Participants
		}
		if patch.Status != nil {
			a.Status = *patch.Status
		}
		return nil
	}
	return nil // patching a missing id matches zero rows, not an error
}

// DeleteActivity removes the row with the given id.
func (m *Memory) DeleteActivity(_ context.Context, id string) error {
	if err := m.hook(OpDeleteActivity); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.activities {
		if m.activities[i].ID == id {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return nil
		}
	}
	return nil
}

// MetricsByOwner returns the owner's singleton row or ErrNoRows.
func (m *Memory) MetricsByOwner(_ context.Context, ownerID string) (model.UserMetrics, error) {
	if err := m.hook(OpMetricsByOwner); err != nil {
		return model.UserMetrics{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.metrics[ownerID]
	if !ok {
		return model.UserMetrics{}, fmt.Errorf("%w: user %s", ErrNoRows, ownerID)
	}
	return row, nil
}

// InsertMetrics stores the owner's row and returns it.
func (m *Memory) InsertMetrics(_ context.Context, ownerID string, row model.UserMetrics) (model.UserMetrics, error) {
	if err := m.hook(OpInsertMetrics); err != nil {
		return model.UserMetrics{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[ownerID] = row
	return row, nil
}

// UpdateMetricsByOwner patches the owner's row in place.
func (m *Memory) UpdateMetricsByOwner(_ context.Context, ownerID string, patch model.MetricsPatch, updatedAt time.Time) error {
	if err := m.hook(OpUpdateMetrics); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.metrics[ownerID]
	if !ok {
		return nil // matches zero rows
	}
	row = row.Apply(patch)
	row.UpdatedAt = updatedAt
	m.metrics[ownerID] = row
	return nil
}

// openSession mints a session for u. Caller holds the lock.
func (m *Memory) openSession(u model.User) Session {
	m.session = Session{
		AccessToken: uuid.NewString(),
		User:        u,
	}
	m.hasSession = true
	return m.session
}
