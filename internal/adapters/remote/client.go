package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bloomwell/bloom/internal/domain/model"
	"github.com/bloomwell/bloom/pkg/logger"
	"github.com/bloomwell/bloom/pkg/metrics"
)

// Metric label values for the remote collections.
const (
	collectionAuth       = "auth"
	collectionActivities = "activities"
	collectionMetrics    = "user_metrics"
)

// Backend paths. The hosted service speaks a GoTrue-style auth API and a
// PostgREST-style rows API.
const (
	pathSignUp     = "/auth/v1/signup"
	pathToken      = "/auth/v1/token"
	pathLogout     = "/auth/v1/logout"
	pathRecover    = "/auth/v1/recover"
	pathUser       = "/auth/v1/user"
	pathActivities = "/rest/v1/activities"
	pathMetrics    = "/rest/v1/user_metrics"

	// singleObjectAccept asks the rows API for exactly one object; a miss
	// comes back as the no-rows condition instead of an empty array.
	singleObjectAccept = "application/vnd.pgrst.object+json"
	returnRowPrefer    = "return=representation"
)

// noRowsCode is the backend's code for a singleton lookup with no match.
const noRowsCode = "PGRST116"

// Client is the HTTP implementation of Service. It holds the session token
// for the authenticated user; install one via SignIn or RestoreSession.
// No timeout is enforced beyond the transport's own unless configured.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     logger.Logger

	mu         sync.RWMutex
	session    Session
	hasSession bool
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// WithTimeout sets a per-request timeout on the underlying client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpc.Timeout = d
		}
	}
}

// WithClientLogger sets a custom logger for the client.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a Client for the backend at baseURL using the project
// api key.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.Get()
	}

	return c
}

// RestoreSession installs a previously persisted session.
func (c *Client) RestoreSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.hasSession = s.AccessToken != ""
}

// clearSession drops the held session after a successful sign-out.
func (c *Client) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Session{}
	c.hasSession = false
}

func (c *Client) currentSession() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session, c.hasSession
}

// SignUp registers a new identity with profile metadata.
func (c *Client) SignUp(ctx context.Context, email, password string, meta model.Metadata) (Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     meta,
	}
	var s Session
	err := c.do(ctx, collectionAuth, "sign_up", http.MethodPost, c.baseURL+pathSignUp, nil, body, &s)
	if err != nil {
		if isUserExists(err) {
			return Session{}, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return Session{}, err
	}
	c.RestoreSession(s)
	return s, nil
}

// SignIn exchanges credentials for a session and installs it.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	q := url.Values{"grant_type": {"password"}}
	body := map[string]string{"email": email, "password": password}
	var s Session
	err := c.do(ctx, collectionAuth, "sign_in", http.MethodPost, c.baseURL+pathToken+"?"+q.Encode(), nil, body, &s)
	if err != nil {
		return Session{}, err
	}
	c.RestoreSession(s)
	return s, nil
}

// SignOut revokes the session remotely, then drops it locally. The local
// session is kept when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	if _, ok := c.currentSession(); !ok {
		return ErrNoSession
	}
	if err := c.do(ctx, collectionAuth, "sign_out", http.MethodPost, c.baseURL+pathLogout, nil, nil, nil); err != nil {
		return err
	}
	c.clearSession()
	return nil
}

// SendPasswordReset triggers the out-of-band reset flow for email.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, collectionAuth, "reset_password", http.MethodPost, c.baseURL+pathRecover, nil, body, nil)
}

// UpdateUser persists the merged metadata and returns the server's identity.
func (c *Client) UpdateUser(ctx context.Context, meta model.Metadata) (model.User, error) {
	if _, ok := c.currentSession(); !ok {
		return model.User{}, ErrNoSession
	}
	body := map[string]any{"data": meta}
	var u model.User
	if err := c.do(ctx, collectionAuth, "update_user", http.MethodPut, c.baseURL+pathUser, nil, body, &u); err != nil {
		return model.User{}, err
	}

	// Keep the held session's identity in step with the server.
	c.mu.Lock()
	if c.hasSession {
		c.session.User = u
	}
	c.mu.Unlock()
	return u, nil
}

// CurrentUser returns the identity held by the session.
func (c *Client) CurrentUser(_ context.Context) (model.User, error) {
	s, ok := c.currentSession()
	if !ok {
		return model.User{}, ErrNoSession
	}
	return s.User, nil
}

// ListActivities fetches the owner's activities newest-first.
func (c *Client) ListActivities(ctx context.Context, ownerID string) ([]model.Activity, error) {
	q := url.Values{
		"select":  {"*"},
		"user_id": {"eq." + ownerID},
		"order":   {"created_at.desc"},
	}
	var rows []model.Activity
	if err := c.do(ctx, collectionActivities, "list", http.MethodGet, c.baseURL+pathActivities+"?"+q.Encode(), nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertActivity creates a row tagged with the owner id.
func (c *Client) InsertActivity(ctx context.Context, ownerID string, draft model.ActivityDraft) error {
	row := struct {
		model.ActivityDraft
		UserID string `json:"user_id"`
	}{ActivityDraft: draft, UserID: ownerID}
	return c.do(ctx, collectionActivities, "insert", http.MethodPost, c.baseURL+pathActivities, nil, []any{row}, nil)
}

// UpdateActivity applies a partial patch to the row with the given id.
func (c *Client) UpdateActivity(ctx context.Context, id string, patch model.ActivityPatch) error {
	q := url.Values{"id": {"eq." + id}}
	return c.do(ctx, collectionActivities, "update", http.MethodPatch, c.baseURL+pathActivities+"?"+q.Encode(), nil, patch, nil)
}

// DeleteActivity removes the row with the given id.
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	q := url.Values{"id": {"eq." + id}}
	return c.do(ctx, collectionActivities, "delete", http.MethodDelete, c.baseURL+pathActivities+"?"+q.Encode(), nil, nil, nil)
}

// MetricsByOwner fetches the owner's singleton metrics row. Returns
// ErrNoRows when no row exists yet.
func (c *Client) MetricsByOwner(ctx context.Context, ownerID string) (model.UserMetrics, error) {
	q := url.Values{
		"select":  {"*"},
		"user_id": {"eq." + ownerID},
	}
	headers := map[string]string{"Accept": singleObjectAccept}
	var m model.UserMetrics
	if err := c.do(ctx, collectionMetrics, "get", http.MethodGet, c.baseURL+pathMetrics+"?"+q.Encode(), headers, nil, &m); err != nil {
		if isNoRows(err) {
			return model.UserMetrics{}, fmt.Errorf("%w: user %s", ErrNoRows, ownerID)
		}
		return model.UserMetrics{}, err
	}
	return m, nil
}

// InsertMetrics creates the owner's metrics row and returns it as stored.
func (c *Client) InsertMetrics(ctx context.Context, ownerID string, m model.UserMetrics) (model.UserMetrics, error) {
	row := struct {
		model.UserMetrics
		UserID string `json:"user_id"`
	}{UserMetrics: m, UserID: ownerID}
	headers := map[string]string{
		"Accept": singleObjectAccept,
		"Prefer": returnRowPrefer,
	}
	var stored model.UserMetrics
	if err := c.do(ctx, collectionMetrics, "insert", http.MethodPost, c.baseURL+pathMetrics, headers, []any{row}, &stored); err != nil {
		return model.UserMetrics{}, err
	}
	return stored, nil
}

// UpdateMetricsByOwner applies a partial patch plus the new updated_at to
// the owner's row.
func (c *Client) UpdateMetricsByOwner(ctx context.Context, ownerID string, patch model.MetricsPatch, updatedAt time.Time) error {
	q := url.Values{"user_id": {"eq." + ownerID}}
	body := struct {
		model.MetricsPatch
		UpdatedAt time.Time `json:"updated_at"`
	}{MetricsPatch: patch, UpdatedAt: updatedAt}
	return c.do(ctx, collectionMetrics, "update", http.MethodPatch, c.baseURL+pathMetrics+"?"+q.Encode(), nil, body, nil)
}

// do issues one JSON request and decodes the response into out when non-nil.
// Failures with a response body are surfaced as *APIError.
func (c *Client) do(ctx context.Context, collection, op, method, rawURL string, headers map[string]string, body, out any) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		metrics.RecordRemoteRequest(collection, op, outcome)
		metrics.RecordRemoteRequestDuration(collection, op, float64(time.Since(start).Milliseconds()))
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			outcome = "error"
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearerToken())
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		outcome = "error"
		apiErr := parseAPIError(resp.StatusCode, data)
		c.log.Debug(ctx, "remote call failed",
			logger.String("collection", collection),
			logger.String("op", op),
			logger.Int("status", resp.StatusCode),
			logger.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			outcome = "error"
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// bearerToken returns the session token, falling back to the api key for
// unauthenticated calls.
func (c *Client) bearerToken() string {
	if s, ok := c.currentSession(); ok {
		return s.AccessToken
	}
	return c.apiKey
}

// apiErrorBody covers the error shapes the backend produces across its auth
// and rows endpoints.
type apiErrorBody struct {
	Code             any    `json:"code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func parseAPIError(status int, data []byte) *APIError {
	var body apiErrorBody
	_ = json.Unmarshal(data, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Msg
	}
	if msg == "" {
		msg = body.ErrorDescription
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	code := ""
	switch v := body.Code.(type) {
	case string:
		code = v
	case float64:
		code = fmt.Sprintf("%.0f", v)
	}

	return &APIError{Status: status, Code: code, Message: msg}
}

func isUserExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == "user_already_exists" {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "already registered")
}

func isNoRows(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == noRowsCode || apiErr.Status == http.StatusNotAcceptable
}
