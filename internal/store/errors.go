package store

import "errors"

// Stable consumer-facing messages, one per operation family. These are what
// Err() surfaces and what forms display inline; remote detail stays out of
// them on purpose.
const (
	msgFetchActivities = "Failed to fetch activities"
	msgCreateActivity  = "Failed to create activity"
	msgUpdateActivity  = "Failed to update activity"
	msgDeleteActivity  = "Failed to delete activity"
	msgFetchMetrics    = "Failed to fetch metrics"
	msgUpdateMetrics   = "Failed to update metrics"
)

// Sentinel kinds for the auth store's re-raised failures.
var (
	// ErrNotSignedIn is returned by profile updates issued without a session.
	ErrNotSignedIn = errors.New("no user logged in")

	// ErrUpdateProfile is returned when persisting merged profile metadata
	// fails remotely.
	ErrUpdateProfile = errors.New("failed to update profile")
)

// Metric label values for the stores.
const (
	storeActivities = "activities"
	storeAuth       = "auth"
	storeMetrics    = "metrics"
)
