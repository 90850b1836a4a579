// Package remote defines the boundary to the hosted backend: identity
// operations plus the two user-scoped record collections. Row ownership
// filtering is the caller's job; every collection call takes the owner id
// explicitly.
package remote

import (
	"context"
	"time"

	"github.com/bloomwell/bloom/internal/domain/model"
)

// Session is the authenticated identity plus its access token. It is the
// only client state that survives a process restart.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	User         model.User `json:"user"`
}

// Service is the opaque remote data service. Implementations must be safe
// for concurrent use; calls run to completion or failure and are never
// retried by this layer.
type Service interface {
	// Identity operations.
	SignUp(ctx context.Context, email, password string, meta model.Metadata) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	// UpdateUser persists the full, already-merged metadata and returns the
	// server-canonical identity.
	UpdateUser(ctx context.Context, meta model.Metadata) (model.User, error)
	// CurrentUser returns the session identity, or ErrNoSession.
	CurrentUser(ctx context.Context) (model.User, error)
	// RestoreSession installs a previously persisted session.
	RestoreSession(s Session)

	// Activities collection, always scoped to ownerID.
	ListActivities(ctx context.Context, ownerID string) ([]model.Activity, error)
	InsertActivity(ctx context.Context, ownerID string, draft model.ActivityDraft) error
	UpdateActivity(ctx context.Context, id string, patch model.ActivityPatch) error
	DeleteActivity(ctx context.Context, id string) error

	// User-metrics singleton, one row per owner.
	MetricsByOwner(ctx context.Context, ownerID string) (model.UserMetrics, error)
	InsertMetrics(ctx context.Context, ownerID string, m model.UserMetrics) (model.UserMetrics, error)
	UpdateMetricsByOwner(ctx context.Context, ownerID string, patch model.MetricsPatch, updatedAt time.Time) error
}
