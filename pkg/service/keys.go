package service

import (
	"fmt"

	"github.com/internhub/internhub/pkg/models"
)

// Cache keys for queries without parameters.
const (
	KeyActivePositions = "active_positions"
	KeyStartups        = "startups"
)

// Invalidation tags shared by families of keys.
const (
	TagApplications = "applications"
	TagPositions    = "positions"
	TagStartups     = "startups"
)

// UserProfileKey is the cache key for a user's profile of the given type.
func UserProfileKey(userID string, t models.ProfileType) string {
	return fmt.Sprintf("user_profile_%s_%s", userID, t)
}

// StartupApplicationsKey is the cache key for applications to an owner's startups.
func StartupApplicationsKey(ownerID string) string {
	return "startup_applications_" + ownerID
}

// StartupPositionsKey is the cache key for a startup's positions.
func StartupPositionsKey(startupID string) string {
	return "startup_positions_" + startupID
}

// StudentApplicationsKey is the cache key for a student's applications.
func StudentApplicationsKey(studentID string) string {
	return "student_applications_" + studentID
}

func profileTag(userID string) string { return "profile:" + userID }

func startupTag(startupID string) string { return "startup:" + startupID }
