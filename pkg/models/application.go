package models

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application is a student's application to a position.
type Application struct {
	ID          string            `json:"id"`
	PositionID  string            `json:"position_id"`
	StudentID   string            `json:"student_id"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	AppliedAt   time.Time         `json:"applied_at"`
}

// StartupApplication is an application as seen from the startup dashboard.
type StartupApplication struct {
	Application
	StudentName   string `json:"student_name"`
	StudentEmail  string `json:"student_email"`
	PositionTitle string `json:"position_title"`
	StartupID     string `json:"startup_id"`
}

// StudentApplication is an application with its position and startup summary.
type StudentApplication struct {
	ID          string            `json:"id"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	AppliedAt   time.Time         `json:"applied_at"`
	Position    PositionSummary   `json:"internship_positions"`
}

// PositionSummary is the nested position view of a student application.
type PositionSummary struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Location string         `json:"location"`
	Duration string         `json:"duration"`
	Stipend  string         `json:"stipend"`
	Startup  StartupSummary `json:"startups"`
}

// StartupSummary is the nested startup view of a position summary.
type StartupSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}
