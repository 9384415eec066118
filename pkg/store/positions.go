package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/internhub/internhub/pkg/models"
)

const positionColumns = `p.id, p.startup_id, p.title, p.description, p.location, p.duration,
	p.stipend, p.skills, p.deadline, p.status, p.created_at,
	(SELECT COUNT(*) FROM applications a WHERE a.position_id = p.id)`

func scanPosition(r rowScanner, p *models.Position, extra ...any) error {
	var skills string
	dest := []any{&p.ID, &p.StartupID, &p.Title, &p.Description, &p.Location, &p.Duration,
		&p.Stipend, &skills, &p.Deadline, &p.Status, &p.CreatedAt, &p.ApplicationsCount}
	if err := r.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	p.Skills = []string{}
	return decodeJSON(skills, &p.Skills)
}

// ActivePositions returns active positions, newest first.
func (s *SQLiteStore) ActivePositions(ctx context.Context) ([]models.PositionListing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionColumns+`, st.name, st.logo_url
		 FROM internship_positions p JOIN startups st ON st.id = p.startup_id
		 WHERE p.status = ? ORDER BY p.created_at DESC`,
		models.PositionActive,
	)
	if err != nil {
		return nil, fmt.Errorf("active positions: %w", err)
	}
	defer rows.Close()

	listings := []models.PositionListing{}
	for rows.Next() {
		var l models.PositionListing
		if err := scanPosition(rows, &l.Position, &l.StartupName, &l.StartupLogoURL); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// StartupPositions returns every position of a startup, newest first.
func (s *SQLiteStore) StartupPositions(ctx context.Context, startupID string) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM internship_positions p
		 WHERE p.startup_id = ? ORDER BY p.created_at DESC`,
		startupID,
	)
	if err != nil {
		return nil, fmt.Errorf("startup positions: %w", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := scanPosition(rows, &p); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Position returns a single position.
func (s *SQLiteStore) Position(ctx context.Context, positionID string) (*models.Position, error) {
	var p models.Position
	err := scanPosition(s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM internship_positions p WHERE p.id = ?`, positionID,
	), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &p, nil
}

// InsertPosition stores a new position. An empty status defaults to active.
func (s *SQLiteStore) InsertPosition(ctx context.Context, p *models.Position) error {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	skills, err := encodeJSON(p.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	if p.Status == "" {
		p.Status = models.PositionActive
	}
	p.ID = newID()
	p.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO internship_positions
		 (id, startup_id, title, description, location, duration, stipend, skills, deadline, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.StartupID, p.Title, p.Description, p.Location, p.Duration, p.Stipend,
		skills, p.Deadline.UTC(), p.Status, p.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("startup %s: %w", p.StartupID, ErrNotFound)
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// UpdatePositionStatus sets a position's status.
func (s *SQLiteStore) UpdatePositionStatus(ctx context.Context, id string, status models.PositionStatus) (*models.Position, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE internship_positions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return nil, fmt.Errorf("update position status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.Position(ctx, id)
}
