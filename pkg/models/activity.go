package models

import "time"

// ActivityKind names a mutation recorded in the activity log.
type ActivityKind string

const (
	ActivityStartupRegistered        ActivityKind = "startup_registered"
	ActivityPositionCreated          ActivityKind = "position_created"
	ActivityApplicationSubmitted     ActivityKind = "application_submitted"
	ActivityApplicationStatusChanged ActivityKind = "application_status_changed"
	ActivityPositionStatusChanged    ActivityKind = "position_status_changed"
	ActivityProfileSaved             ActivityKind = "profile_saved"
)

// ActivityEvent is a single entry in the activity log.
type ActivityEvent struct {
	ID        string       `json:"id"`
	Kind      ActivityKind `json:"kind"`
	StartupID string       `json:"startup_id,omitempty"`
	ActorID   string       `json:"actor_id,omitempty"`
	SubjectID string       `json:"subject_id"`
	Detail    string       `json:"detail,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// ActivityConfig controls the activity log.
type ActivityConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	DBPath        string `yaml:"db_path" env:"DB_PATH"`
	RetentionDays int    `yaml:"retention_days" env:"RETENTION_DAYS"`
}

// ActivityQueryOpts specifies filters for querying activity events.
type ActivityQueryOpts struct {
	StartupID string
	ActorID   string
	Kind      ActivityKind
	Since     time.Time
	Limit     int
}
