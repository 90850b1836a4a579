package store

import (
	"context"
	"errors"
	"sync"

	"github.com/bloomwell/bloom/internal/adapters/remote"
	"github.com/bloomwell/bloom/internal/adapters/session"
	"github.com/bloomwell/bloom/internal/domain/model"
	"github.com/bloomwell/bloom/pkg/logger"
	"github.com/bloomwell/bloom/pkg/metrics"
)

// CodeUserAlreadyExists is the one machine-checkable auth failure code.
const CodeUserAlreadyExists = "user_already_exists"

// User-facing fallback messages for auth failures with no remote detail.
const (
	msgSignUpExists  = "This email is already registered. Please sign in instead."
	msgSignUpFailed  = "An unexpected error occurred during sign up. Please try again."
	msgSignInFailed  = "An unexpected error occurred during sign in. Please try again."
	msgSignOutFailed = "An unexpected error occurred during sign out. Please try again."
	msgResetFailed   = "An unexpected error occurred while sending reset instructions. Please try again."
)

// AuthError is the auth store's failure type. Code is set only for cases a
// caller can branch on; everything else is free text for display.
type AuthError struct {
	Message string
	Code    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// SessionStore persists the session across restarts.
type SessionStore interface {
	Load() (remote.Session, error)
	Save(remote.Session) error
	Clear() error
}

// AuthStore owns the session identity. Unlike the other stores its cache is
// persisted: the session survives restarts via the SessionStore, and
// Restore re-installs it on the remote client at startup.
type AuthStore struct {
	remote   remote.Service
	sessions SessionStore
	log      logger.Logger

	mu       sync.RWMutex
	user     model.User
	signedIn bool
	loading  bool

	notifier
}

// AuthOption applies a configuration option to the AuthStore.
type AuthOption func(*AuthStore)

// WithSessionStore sets the persistence slot for the session.
func WithSessionStore(ss SessionStore) AuthOption {
	return func(s *AuthStore) {
		s.sessions = ss
	}
}

// WithAuthLogger sets a custom logger for the store.
func WithAuthLogger(l logger.Logger) AuthOption {
	return func(s *AuthStore) {
		if l != nil {
			s.log = l
		}
	}
}

// NewAuthStore creates an unauthenticated store backed by svc.
func NewAuthStore(svc remote.Service, opts ...AuthOption) *AuthStore {
	s := &AuthStore{remote: svc}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.Named("auth")
	}

	return s
}

// User returns the cached identity and whether a session is active.
func (s *AuthStore) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.signedIn
}

// IsLoading reports whether an auth operation is in flight.
func (s *AuthStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe registers fn to run after every state change and returns its
// cancel func.
func (s *AuthStore) Subscribe(fn func()) func() {
	return s.subscribe(fn)
}

// Restore loads a persisted session, installs it on the remote client, and
// caches its identity. Missing slot is not an error.
func (s *AuthStore) Restore(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}

	sess, err := s.sessions.Load()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return err
	}

	s.remote.RestoreSession(sess)
	s.setUser(sess.User)
	s.log.Info(ctx, "session restored", logger.String("email", sess.User.Email))
	metrics.RecordAuthEvent("restore")
	return nil
}

// SignUp registers a new identity with name stored as profile metadata. An
// already-registered email fails with Code CodeUserAlreadyExists; any other
// failure carries the remote message when available.
func (s *AuthStore) SignUp(ctx context.Context, email, password, name string) error {
	s.begin()
	defer s.finish()

	sess, err := s.remote.SignUp(ctx, email, password, model.Metadata{Name: name})
	if err != nil {
		metrics.RecordStoreError(storeAuth, "sign_up")
		if errors.Is(err, remote.ErrUserExists) {
			return &AuthError{Message: msgSignUpExists, Code: CodeUserAlreadyExists}
		}
		return authErrorFrom(err, msgSignUpFailed)
	}

	s.persist(ctx, sess)
	s.setUser(sess.User)
	metrics.RecordAuthEvent("sign_up")
	return nil
}

// SignIn establishes a session; on success its identity becomes the cached
// user.
func (s *AuthStore) SignIn(ctx context.Context, email, password string) error {
	s.begin()
	defer s.finish()

	sess, err := s.remote.SignIn(ctx, email, password)
	if err != nil {
		metrics.RecordStoreError(storeAuth, "sign_in")
		return authErrorFrom(err, msgSignInFailed)
	}

	s.persist(ctx, sess)
	s.setUser(sess.User)
	metrics.RecordAuthEvent("sign_in")
	return nil
}

// SignOut tears down the session. The cached user is cleared only when the
// remote call succeeds.
func (s *AuthStore) SignOut(ctx context.Context) error {
	s.begin()
	defer s.finish()

	if err := s.remote.SignOut(ctx); err != nil {
		metrics.RecordStoreError(storeAuth, "sign_out")
		return authErrorFrom(err, msgSignOutFailed)
	}

	if s.sessions != nil {
		if err := s.sessions.Clear(); err != nil {
			s.log.Warn(ctx, "failed to clear persisted session", logger.Error(err))
		}
	}
	s.clearUser()
	metrics.RecordAuthEvent("sign_out")
	return nil
}

// ResetPassword triggers the out-of-band reset flow. It never mutates the
// cached user.
func (s *AuthStore) ResetPassword(ctx context.Context, email string) error {
	s.begin()
	defer s.finish()

	if err := s.remote.SendPasswordReset(ctx, email); err != nil {
		metrics.RecordStoreError(storeAuth, "reset_password")
		return authErrorFrom(err, msgResetFailed)
	}

	metrics.RecordAuthEvent("reset_password")
	return nil
}

// UpdateProfile merges the patch into the current metadata, persists the
// merge remotely, and caches the server's returned identity rather than the
// local merge. Fails with ErrNotSignedIn when no session is active.
func (s *AuthStore) UpdateProfile(ctx context.Context, patch model.MetadataPatch) error {
	current, ok := s.User()
	if !ok {
		return ErrNotSignedIn
	}

	merged := current.Metadata.Merge(patch)
	user, err := s.remote.UpdateUser(ctx, merged)
	if err != nil {
		metrics.RecordStoreError(storeAuth, "update_profile")
		s.log.Warn(ctx, "profile update failed", logger.Error(err))
		return ErrUpdateProfile
	}

	s.setUser(user)
	s.persistCurrent(ctx)
	metrics.RecordAuthEvent("update_profile")
	return nil
}

// persist saves the session slot; persistence failures are logged, not
// surfaced, so auth itself still succeeds.
func (s *AuthStore) persist(ctx context.Context, sess remote.Session) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Save(sess); err != nil {
		s.log.Warn(ctx, "failed to persist session", logger.Error(err))
	}
}

// persistCurrent re-saves the slot with the updated identity.
func (s *AuthStore) persistCurrent(ctx context.Context) {
	if s.sessions == nil {
		return
	}
	sess, err := s.sessions.Load()
	if err != nil {
		return
	}
	s.mu.RLock()
	sess.User = s.user
	s.mu.RUnlock()
	if err := s.sessions.Save(sess); err != nil {
		s.log.Warn(ctx, "failed to persist session", logger.Error(err))
	}
}

func (s *AuthStore) setUser(u model.User) {
	s.mu.Lock()
	s.user = u
	s.signedIn = true
	s.mu.Unlock()
	s.notify()
}

func (s *AuthStore) clearUser() {
	s.mu.Lock()
	s.user = model.User{}
	s.signedIn = false
	s.mu.Unlock()
	s.notify()
}

func (s *AuthStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notify()
}

func (s *AuthStore) finish() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// authErrorFrom keeps the remote message when the failure carries one and
// falls back to the generic text otherwise.
func authErrorFrom(err error, fallback string) *AuthError {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		return &AuthError{Message: apiErr.Message}
	}
	return &AuthError{Message: fallback}
}
