package models

import "time"

// ProfileType selects which profile table a user profile is read from.
type ProfileType string

const (
	ProfileStudent ProfileType = "student"
	ProfileStartup ProfileType = "startup"
)

// Valid reports whether t is a known profile type.
func (t ProfileType) Valid() bool {
	return t == ProfileStudent || t == ProfileStartup
}

// StudentProfile holds a student's profile built by the registration wizard.
type StudentProfile struct {
	ID              string       `json:"id" validate:"required"`
	FullName        string       `json:"full_name"`
	Email           string       `json:"email" validate:"omitempty,email"`
	Bio             string       `json:"bio"`
	ProfilePhotoURL string       `json:"profile_photo_url,omitempty"`
	ResumeURL       string       `json:"resume_url,omitempty"`
	GithubURL       string       `json:"github_url,omitempty"`
	LinkedInURL     string       `json:"linkedin_url,omitempty"`
	UniversityID    string       `json:"university_id"`
	GraduationYear  string       `json:"graduation_year"`
	Degree          string       `json:"degree"`
	Major           string       `json:"major"`
	Campus          string       `json:"campus"`
	CGPA            string       `json:"cgpa,omitempty"`
	Skills          []string     `json:"skills"`
	PhoneNumber     string       `json:"phone_number,omitempty"`
	Projects        []Project    `json:"projects,omitempty"`
	Experience      []Experience `json:"experience,omitempty"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Complete reports whether the minimum fields needed to apply are filled.
func (p *StudentProfile) Complete() bool {
	return p.FullName != "" &&
		p.Bio != "" &&
		p.UniversityID != "" &&
		p.GraduationYear != "" &&
		p.Major != "" &&
		p.Campus != "" &&
		len(p.Skills) > 0
}

// ReadyToApply reports whether the profile carries what a startup needs to
// review an application: a name, a bio and at least one skill.
func (p *StudentProfile) ReadyToApply() bool {
	return p.FullName != "" && p.Bio != "" && len(p.Skills) > 0
}

// Project is a portfolio entry on a student profile.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TechStack   []string `json:"tech_stack"`
	URL         string   `json:"url,omitempty"`
}

// Experience is a prior role on a student profile.
type Experience struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description"`
	IsCurrent   bool   `json:"is_current"`
}
