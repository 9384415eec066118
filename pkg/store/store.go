package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/internhub/internhub/pkg/models"
)

var (
	// ErrNotFound is returned when a single-row read or update matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// Store is the relational backing store for startups, positions,
// applications and student profiles.
type Store interface {
	// ActivePositions returns every active position with its startup name.
	ActivePositions(ctx context.Context) ([]models.PositionListing, error)
	// Startups returns the startup directory.
	Startups(ctx context.Context) ([]models.Startup, error)
	// Startup returns a single startup.
	Startup(ctx context.Context, id string) (*models.Startup, error)
	// StartupByOwner returns the startup registered by an owner.
	StartupByOwner(ctx context.Context, ownerID string) (*models.Startup, error)
	// StudentProfile returns a student's profile.
	StudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error)
	// StartupApplications returns applications to every position of the owner's startups.
	StartupApplications(ctx context.Context, ownerID string) ([]models.StartupApplication, error)
	// StartupPositions returns a startup's positions with application counts.
	StartupPositions(ctx context.Context, startupID string) ([]models.Position, error)
	// StudentApplications returns a student's applications with position and startup summaries.
	StudentApplications(ctx context.Context, studentID string) ([]models.StudentApplication, error)
	// Position returns a single position.
	Position(ctx context.Context, positionID string) (*models.Position, error)

	// InsertStartup stores a new startup, assigning its ID and creation time.
	InsertStartup(ctx context.Context, s *models.Startup) error
	// InsertPosition stores a new position, assigning its ID and creation time.
	InsertPosition(ctx context.Context, p *models.Position) error
	// HasApplied reports whether a student already applied to a position.
	HasApplied(ctx context.Context, positionID, studentID string) (bool, error)
	// InsertApplication stores a new application, assigning its ID and time.
	InsertApplication(ctx context.Context, a *models.Application) error
	// UpdateApplicationStatus sets an application's status and returns it.
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error)
	// UpdatePositionStatus sets a position's status and returns it.
	UpdatePositionStatus(ctx context.Context, id string, status models.PositionStatus) (*models.Position, error)
	// UpsertStudentProfile inserts or replaces a student profile.
	UpsertStudentProfile(ctx context.Context, p *models.StudentProfile) error

	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store with a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const createTables = `
CREATE TABLE IF NOT EXISTS startups (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	website TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	logo_url TEXT NOT NULL DEFAULT '',
	founder_name TEXT NOT NULL DEFAULT '',
	founder_email TEXT NOT NULL DEFAULT '',
	founder_linkedin TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_startups_owner ON startups(owner_id);

CREATE TABLE IF NOT EXISTS internship_positions (
	id TEXT PRIMARY KEY,
	startup_id TEXT NOT NULL REFERENCES startups(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	duration TEXT NOT NULL DEFAULT '',
	stipend TEXT NOT NULL DEFAULT '',
	skills TEXT NOT NULL DEFAULT '[]',
	deadline DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_positions_startup ON internship_positions(startup_id);
CREATE INDEX IF NOT EXISTS idx_positions_status ON internship_positions(status);

CREATE TABLE IF NOT EXISTS student_profiles (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	profile_photo_url TEXT NOT NULL DEFAULT '',
	resume_url TEXT NOT NULL DEFAULT '',
	github_url TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	university_id TEXT NOT NULL DEFAULT '',
	graduation_year TEXT NOT NULL DEFAULT '',
	degree TEXT NOT NULL DEFAULT '',
	major TEXT NOT NULL DEFAULT '',
	campus TEXT NOT NULL DEFAULT '',
	cgpa TEXT NOT NULL DEFAULT '',
	skills TEXT NOT NULL DEFAULT '[]',
	phone_number TEXT NOT NULL DEFAULT '',
	projects TEXT NOT NULL DEFAULT '[]',
	experience TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	position_id TEXT NOT NULL REFERENCES internship_positions(id),
	student_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	cover_letter TEXT NOT NULL DEFAULT '',
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (position_id, student_id)
);
CREATE INDEX IF NOT EXISTS idx_applications_student ON applications(student_id);
`

// New opens a SQLiteStore and runs auto-migration.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	if _, err := db.Exec(createTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store db: %w", err)
	}
	if err := addColumn(db, "applications", "cover_letter", "TEXT NOT NULL DEFAULT ''"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// addColumn adds a column to a table created by an older schema.
func addColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func newID() string {
	return uuid.NewString()
}

func sqliteCode(err error) int {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0
	}
	return se.Code()
}

// isUniqueViolation reports whether err is a SQLite uniqueness failure.
func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// isForeignKeyViolation reports whether err is a SQLite foreign key failure.
func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
