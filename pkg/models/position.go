package models

import "time"

// PositionStatus is the lifecycle state of an internship position.
type PositionStatus string

const (
	PositionActive PositionStatus = "active"
	PositionClosed PositionStatus = "closed"
)

// Valid reports whether s is a known position status.
func (s PositionStatus) Valid() bool {
	return s == PositionActive || s == PositionClosed
}

// Position is an internship posting owned by a startup.
type Position struct {
	ID                string         `json:"id"`
	StartupID         string         `json:"startup_id" validate:"required"`
	Title             string         `json:"title" validate:"required"`
	Description       string         `json:"description"`
	Location          string         `json:"location"`
	Duration          string         `json:"duration"`
	Stipend           string         `json:"stipend"`
	Skills            []string       `json:"skills"`
	Deadline          time.Time      `json:"deadline"`
	Status            PositionStatus `json:"status" validate:"omitempty,oneof=active closed"`
	CreatedAt         time.Time      `json:"created_at"`
	ApplicationsCount int            `json:"applications_count"`
}

// PositionListing is an active position joined with its startup's public fields.
type PositionListing struct {
	Position
	StartupName    string `json:"startup_name"`
	StartupLogoURL string `json:"startup_logo_url,omitempty"`
}
