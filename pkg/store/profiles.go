package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/internhub/internhub/pkg/models"
)

// StudentProfile returns the profile for studentID.
func (s *SQLiteStore) StudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	var (
		p                            models.StudentProfile
		skills, projects, experience string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, bio, profile_photo_url, resume_url, github_url, linkedin_url,
		        university_id, graduation_year, degree, major, campus, cgpa, skills, phone_number,
		        projects, experience, updated_at
		 FROM student_profiles WHERE id = ?`,
		studentID,
	).Scan(&p.ID, &p.FullName, &p.Email, &p.Bio, &p.ProfilePhotoURL, &p.ResumeURL, &p.GithubURL, &p.LinkedInURL,
		&p.UniversityID, &p.GraduationYear, &p.Degree, &p.Major, &p.Campus, &p.CGPA, &skills, &p.PhoneNumber,
		&projects, &experience, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student profile: %w", err)
	}

	p.Skills = []string{}
	if err := decodeJSON(skills, &p.Skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	if err := decodeJSON(projects, &p.Projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	if err := decodeJSON(experience, &p.Experience); err != nil {
		return nil, fmt.Errorf("decode experience: %w", err)
	}
	return &p, nil
}

// UpsertStudentProfile inserts or replaces the profile keyed by p.ID.
func (s *SQLiteStore) UpsertStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	skills, err := encodeJSON(p.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	projects, err := encodeJSON(p.Projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	experience, err := encodeJSON(p.Experience)
	if err != nil {
		return fmt.Errorf("encode experience: %w", err)
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO student_profiles
		 (id, full_name, email, bio, profile_photo_url, resume_url, github_url, linkedin_url,
		  university_id, graduation_year, degree, major, campus, cgpa, skills, phone_number,
		  projects, experience, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		  full_name = excluded.full_name, email = excluded.email, bio = excluded.bio,
		  profile_photo_url = excluded.profile_photo_url, resume_url = excluded.resume_url,
		  github_url = excluded.github_url, linkedin_url = excluded.linkedin_url,
		  university_id = excluded.university_id, graduation_year = excluded.graduation_year,
		  degree = excluded.degree, major = excluded.major, campus = excluded.campus,
		  cgpa = excluded.cgpa, skills = excluded.skills, phone_number = excluded.phone_number,
		  projects = excluded.projects, experience = excluded.experience, updated_at = excluded.updated_at`,
		p.ID, p.FullName, p.Email, p.Bio, p.ProfilePhotoURL, p.ResumeURL, p.GithubURL, p.LinkedInURL,
		p.UniversityID, p.GraduationYear, p.Degree, p.Major, p.Campus, p.CGPA, skills, p.PhoneNumber,
		projects, experience, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert student profile: %w", err)
	}
	return nil
}
