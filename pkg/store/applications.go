package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/internhub/internhub/pkg/models"
)

// HasApplied reports whether studentID already applied to positionID.
func (s *SQLiteStore) HasApplied(ctx context.Context, positionID, studentID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE position_id = ? AND student_id = ?`,
		positionID, studentID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check application: %w", err)
	}
	return n > 0, nil
}

// InsertApplication stores a new pending application. A second application
// for the same position and student returns ErrConflict.
func (s *SQLiteStore) InsertApplication(ctx context.Context, a *models.Application) error {
	a.ID = newID()
	a.Status = models.ApplicationPending
	a.AppliedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (id, position_id, student_id, status, cover_letter, applied_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.PositionID, a.StudentID, a.Status, a.CoverLetter, a.AppliedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// UpdateApplicationStatus sets an application's status.
func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE applications SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	var a models.Application
	err = s.db.QueryRowContext(ctx,
		`SELECT id, position_id, student_id, status, cover_letter, applied_at FROM applications WHERE id = ?`, id,
	).Scan(&a.ID, &a.PositionID, &a.StudentID, &a.Status, &a.CoverLetter, &a.AppliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &a, nil
}

// StartupApplications returns applications to positions of every startup
// owned by ownerID, newest first.
func (s *SQLiteStore) StartupApplications(ctx context.Context, ownerID string) ([]models.StartupApplication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.position_id, a.student_id, a.status, a.cover_letter, a.applied_at,
		        COALESCE(sp.full_name, ''), COALESCE(sp.email, ''), p.title, p.startup_id
		 FROM applications a
		 JOIN internship_positions p ON p.id = a.position_id
		 JOIN startups st ON st.id = p.startup_id
		 LEFT JOIN student_profiles sp ON sp.id = a.student_id
		 WHERE st.owner_id = ?
		 ORDER BY a.applied_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("startup applications: %w", err)
	}
	defer rows.Close()

	apps := []models.StartupApplication{}
	for rows.Next() {
		var a models.StartupApplication
		if err := rows.Scan(&a.ID, &a.PositionID, &a.StudentID, &a.Status, &a.CoverLetter, &a.AppliedAt,
			&a.StudentName, &a.StudentEmail, &a.PositionTitle, &a.StartupID); err != nil {
			return nil, fmt.Errorf("scan startup application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// StudentApplications returns a student's applications, newest first.
func (s *SQLiteStore) StudentApplications(ctx context.Context, studentID string) ([]models.StudentApplication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.status, a.cover_letter, a.applied_at,
		        p.id, p.title, p.location, p.duration, p.stipend,
		        st.id, st.name, st.logo_url
		 FROM applications a
		 JOIN internship_positions p ON p.id = a.position_id
		 JOIN startups st ON st.id = p.startup_id
		 WHERE a.student_id = ?
		 ORDER BY a.applied_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("student applications: %w", err)
	}
	defer rows.Close()

	apps := []models.StudentApplication{}
	for rows.Next() {
		var a models.StudentApplication
		p := &a.Position
		if err := rows.Scan(&a.ID, &a.Status, &a.CoverLetter, &a.AppliedAt,
			&p.ID, &p.Title, &p.Location, &p.Duration, &p.Stipend,
			&p.Startup.ID, &p.Startup.Name, &p.Startup.LogoURL); err != nil {
			return nil, fmt.Errorf("scan student application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
