package models

import "time"

// Startup is an alumni-founded company that posts internships.
type Startup struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id" validate:"required"`
	Name            string    `json:"name" validate:"required"`
	Website         string    `json:"website" validate:"required"`
	Domain          string    `json:"domain"`
	Summary         string    `json:"summary"`
	LogoURL         string    `json:"logo_url,omitempty" validate:"omitempty,url"`
	FounderName     string    `json:"founder_name"`
	FounderEmail    string    `json:"founder_email" validate:"omitempty,email"`
	FounderLinkedIn string    `json:"founder_linkedin,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
