// Package model contains domain models passed between layers.
package model

import "time"

// ActivityType classifies a wellness activity.
type ActivityType string

// Known activity types.
const (
	ActivityMeditation ActivityType = "meditation"
	ActivityBreathing  ActivityType = "breathing"
	ActivityMeeting    ActivityType = "meeting"
	ActivityFocus      ActivityType = "focus"
)

// ActivityStatus tracks the lifecycle of an activity. Transitions are driven
// by explicit updates; nothing in the client advances them automatically.
type ActivityStatus string

// Activity lifecycle states.
const (
	StatusUpcoming  ActivityStatus = "upcoming"
	StatusOngoing   ActivityStatus = "ongoing"
	StatusCompleted ActivityStatus = "completed"
)

// Activity is a scheduled wellness activity owned by a single user.
// Fields mirror the activities collection schema.
type Activity struct {
	ID           string         `json:"id"`      // server-assigned
	UserID       string         `json:"user_id"` // owner; always the session's user
	Title        string         `json:"title"`
	Type         ActivityType   `json:"type"`
	Description  string         `json:"description"`
	Duration     string         `json:"duration"` // free-form label, e.g. "15 min"
	Time         string         `json:"time"`     // "HH:MM"
	Participants int            `json:"participants"`
	Status       ActivityStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ActivityDraft is an Activity before the server has assigned an id and
// creation timestamp.
type ActivityDraft struct {
	Title        string         `json:"title"`
	Type         ActivityType   `json:"type"`
	Description  string         `json:"description"`
	Duration     string         `json:"duration"`
	Time         string         `json:"time"`
	Participants int            `json:"participants"`
	Status       ActivityStatus `json:"status"`
}

// ActivityPatch is a partial update to an Activity. Nil fields are left
// untouched by the server.
type ActivityPatch struct {
	Title        *string         `json:"title,omitempty"`
	Type         *ActivityType   `json:"type,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Duration     *string         `json:"duration,omitempty"`
	Time         *string         `json:"time,omitempty"`
	Participants *int            `json:"participants,omitempty"`
	Status       *ActivityStatus `json:"status,omitempty"`
}

// UserMetrics is the per-user wellness snapshot. Exactly one record exists
// per user; a missing record is repaired lazily with all-zero defaults.
type UserMetrics struct {
	StressLevel   int       `json:"stress_level"` // 0..100
	FocusScore    int       `json:"focus_score"`  // 0..100
	ActivityScore float64   `json:"activity_score"`
	HeartRate     float64   `json:"heart_rate"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MetricsPatch is a partial update to UserMetrics. Nil fields are left
// untouched.
type MetricsPatch struct {
	StressLevel   *int     `json:"stress_level,omitempty"`
	FocusScore    *int     `json:"focus_score,omitempty"`
	ActivityScore *float64 `json:"activity_score,omitempty"`
	HeartRate     *float64 `json:"heart_rate,omitempty"`
}

// Apply merges the patch into a copy of m. UpdatedAt is the caller's
// responsibility.
func (m UserMetrics) Apply(p MetricsPatch) UserMetrics {
	if p.StressLevel != nil {
		m.StressLevel = *p.StressLevel
	}
	if p.FocusScore != nil {
		m.FocusScore = *p.FocusScore
	}
	if p.ActivityScore != nil {
		m.ActivityScore = *p.ActivityScore
	}
	if p.HeartRate != nil {
		m.HeartRate = *p.HeartRate
	}
	return m
}

// Metadata is the profile data stored alongside an identity. All fields are
// always serialized so that an explicit empty value clears the remote field.
type Metadata struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
}

// MetadataPatch is a partial profile update. Nil keeps the current value; a
// non-nil pointer sets it, including to the empty string to clear it.
type MetadataPatch struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Location  *string `json:"location,omitempty"`
}

// Merge returns a copy of m with the patch applied.
func (m Metadata) Merge(p MetadataPatch) Metadata {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.AvatarURL != nil {
		m.AvatarURL = *p.AvatarURL
	}
	if p.Bio != nil {
		m.Bio = *p.Bio
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.Location != nil {
		m.Location = *p.Location
	}
	return m
}

// User is the authenticated identity as returned by the remote service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Metadata  Metadata  `json:"user_metadata"`
	CreatedAt time.Time `json:"created_at"`
}
