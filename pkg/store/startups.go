package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/internhub/internhub/pkg/models"
)

const startupColumns = `id, owner_id, name, website, domain, summary, logo_url,
	founder_name, founder_email, founder_linkedin, created_at`

func scanStartup(r rowScanner, s *models.Startup) error {
	return r.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Website, &s.Domain, &s.Summary, &s.LogoURL,
		&s.FounderName, &s.FounderEmail, &s.FounderLinkedIn, &s.CreatedAt)
}

// Startups returns every registered startup ordered by name.
func (s *SQLiteStore) Startups(ctx context.Context) ([]models.Startup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+startupColumns+` FROM startups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list startups: %w", err)
	}
	defer rows.Close()

	startups := []models.Startup{}
	for rows.Next() {
		var st models.Startup
		if err := scanStartup(rows, &st); err != nil {
			return nil, fmt.Errorf("scan startup: %w", err)
		}
		startups = append(startups, st)
	}
	return startups, rows.Err()
}

// Startup returns a single startup by ID.
func (s *SQLiteStore) Startup(ctx context.Context, id string) (*models.Startup, error) {
	var st models.Startup
	err := scanStartup(s.db.QueryRowContext(ctx,
		`SELECT `+startupColumns+` FROM startups WHERE id = ?`, id,
	), &st)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get startup: %w", err)
	}
	return &st, nil
}

// StartupByOwner returns the earliest startup registered by ownerID.
func (s *SQLiteStore) StartupByOwner(ctx context.Context, ownerID string) (*models.Startup, error) {
	var st models.Startup
	err := scanStartup(s.db.QueryRowContext(ctx,
		`SELECT `+startupColumns+` FROM startups WHERE owner_id = ? ORDER BY created_at LIMIT 1`,
		ownerID,
	), &st)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("startup by owner: %w", err)
	}
	return &st, nil
}

// InsertStartup stores a new startup.
func (s *SQLiteStore) InsertStartup(ctx context.Context, st *models.Startup) error {
	st.ID = newID()
	st.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO startups (`+startupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.OwnerID, st.Name, st.Website, st.Domain, st.Summary, st.LogoURL,
		st.FounderName, st.FounderEmail, st.FounderLinkedIn, st.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert startup: %w", err)
	}
	return nil
}
