// Package service provides the composition root: it wires the remote
// client, session persistence, and the three stores into one Service that
// consumers (the agent, a UI shell, tests) depend on. Stores are explicit
// service objects, never package globals, so a fake remote can be injected
// wholesale.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/bloomwell/bloom/internal/adapters/remote"
	"github.com/bloomwell/bloom/internal/adapters/session"
	"github.com/bloomwell/bloom/internal/domain/model"
	"github.com/bloomwell/bloom/internal/domain/scoring"
	"github.com/bloomwell/bloom/internal/store"
	"github.com/bloomwell/bloom/pkg/logger"
	"github.com/bloomwell/bloom/pkg/metrics"
)

// Service owns the client-side sync layer for one backend project.
type Service struct {
	mu sync.RWMutex

	// Core components
	remote     remote.Service
	sessions   store.SessionStore
	activities *store.ActivityStore
	auth       *store.AuthStore
	metrics    *store.MetricsStore

	// Configuration
	baseURL     string
	apiKey      string
	sessionPath string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBaseURL sets the hosted backend's root URL.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithAPIKey sets the project api key.
func WithAPIKey(key string) Option {
	return func(s *Service) {
		s.apiKey = key
	}
}

// WithSessionPath overrides the session slot location.
func WithSessionPath(path string) Option {
	return func(s *Service) {
		s.sessionPath = path
	}
}

// WithRemote injects a remote implementation, bypassing the HTTP client.
func WithRemote(svc remote.Service) Option {
	return func(s *Service) {
		if svc != nil {
			s.remote = svc
		}
	}
}

// WithSessionStore injects a session persistence implementation.
func WithSessionStore(ss store.SessionStore) Option {
	return func(s *Service) {
		if ss != nil {
			s.sessions = ss
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		baseURL: "http://localhost:8000",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the remote client and stores and restores any persisted
// session. Starting twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.remote == nil {
		s.remote = remote.NewClient(s.baseURL, s.apiKey,
			remote.WithClientLogger(s.logger.Named("remote")),
		)
	}

	if s.sessions == nil {
		path := s.sessionPath
		if path == "" {
			var err error
			path, err = session.DefaultPath()
			if err != nil {
				return fmt.Errorf("resolve session path: %w", err)
			}
		}
		s.sessions = session.NewFileStore(path)
	}

	s.activities = store.NewActivityStore(s.remote,
		store.WithActivityLogger(s.logger.Named("activities")),
	)
	s.auth = store.NewAuthStore(s.remote,
		store.WithSessionStore(s.sessions),
		store.WithAuthLogger(s.logger.Named("auth")),
	)
	s.metrics = store.NewMetricsStore(s.remote,
		store.WithMetricsLogger(s.logger.Named("metrics")),
	)

	if err := s.auth.Restore(ctx); err != nil {
		s.logger.Warn(ctx, "could not restore persisted session", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "sync service started", logger.String("baseURL", s.baseURL))
	return nil
}

// Stop marks the service stopped. Session state is already persisted on
// every change, so there is nothing to flush.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "sync service stopped")
}

// Activities returns the activity store.
func (s *Service) Activities() *store.ActivityStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activities
}

// Auth returns the auth store.
func (s *Service) Auth() *store.AuthStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

// Metrics returns the metrics store.
func (s *Service) Metrics() *store.MetricsStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// Remote returns the remote service the stores are bound to.
func (s *Service) Remote() remote.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote
}

// AssessmentResult is the outcome of one completed stress assessment.
type AssessmentResult struct {
	Score           int
	Category        scoring.Category
	Recommendations []string
}

// ScoreAssessment computes the stress score for a completed question set and
// optionally persists it as the user's stress level.
func (s *Service) ScoreAssessment(ctx context.Context, responses scoring.Responses, persist bool) (AssessmentResult, error) {
	score := scoring.Score(responses)
	metrics.RecordAssessmentScore(score)

	res := AssessmentResult{
		Score:           score,
		Category:        scoring.Categorize(score),
		Recommendations: scoring.Recommendations(score),
	}

	if persist {
		if err := s.Metrics().UpdateMetrics(ctx, model.MetricsPatch{StressLevel: &score}); err != nil {
			return res, err
		}
	}
	return res, nil
}
