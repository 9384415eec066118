package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/internhub/internhub/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedStartup(t *testing.T, s *SQLiteStore, owner, name string) *models.Startup {
	t.Helper()
	st := &models.Startup{OwnerID: owner, Name: name, Website: "https://" + name + ".example", Domain: "fintech"}
	if err := s.InsertStartup(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	return st
}

func seedPosition(t *testing.T, s *SQLiteStore, startupID, title string) *models.Position {
	t.Helper()
	p := &models.Position{
		StartupID: startupID,
		Title:     title,
		Location:  "Remote",
		Skills:    []string{"go", "sql"},
		Deadline:  time.Now().Add(14 * 24 * time.Hour),
	}
	if err := s.InsertPosition(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestStartups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedStartup(t, s, "owner-b", "Beta")
	seedStartup(t, s, "owner-a", "Alpha")

	startups, err := s.Startups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(startups) != 2 {
		t.Fatalf("expected 2 startups, got %d", len(startups))
	}
	if startups[0].Name != "Alpha" {
		t.Errorf("expected Alpha first, got %s", startups[0].Name)
	}

	st, err := s.StartupByOwner(ctx, "owner-b")
	if err != nil {
		t.Fatal(err)
	}
	if st.Name != "Beta" {
		t.Errorf("expected Beta, got %s", st.Name)
	}

	if _, err := s.StartupByOwner(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	byID, err := s.Startup(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byID.OwnerID != "owner-b" {
		t.Errorf("expected owner-b, got %s", byID.OwnerID)
	}
	if _, err := s.Startup(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActivePositions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st := seedStartup(t, s, "owner", "Acme")
	p1 := seedPosition(t, s, st.ID, "Backend Intern")
	seedPosition(t, s, st.ID, "Frontend Intern")

	if _, err := s.UpdatePositionStatus(ctx, p1.ID, models.PositionClosed); err != nil {
		t.Fatal(err)
	}

	listings, err := s.ActivePositions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 active position, got %d", len(listings))
	}
	if listings[0].Title != "Frontend Intern" {
		t.Errorf("expected Frontend Intern, got %s", listings[0].Title)
	}
	if listings[0].StartupName != "Acme" {
		t.Errorf("expected startup name Acme, got %s", listings[0].StartupName)
	}
	if len(listings[0].Skills) != 2 {
		t.Errorf("expected 2 skills, got %v", listings[0].Skills)
	}
}

func TestStartupPositionsCountsApplications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st := seedStartup(t, s, "owner", "Acme")
	p := seedPosition(t, s, st.ID, "Data Intern")

	for _, student := range []string{"s1", "s2"} {
		if err := s.InsertApplication(ctx, &models.Application{PositionID: p.ID, StudentID: student}); err != nil {
			t.Fatal(err)
		}
	}

	positions, err := s.StartupPositions(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].ApplicationsCount != 2 {
		t.Errorf("expected 2 applications, got %d", positions[0].ApplicationsCount)
	}
	if positions[0].Status != models.PositionActive {
		t.Errorf("expected default status active, got %s", positions[0].Status)
	}
}

func TestApplications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st := seedStartup(t, s, "owner-1", "Acme")
	p := seedPosition(t, s, st.ID, "ML Intern")

	if err := s.UpsertStudentProfile(ctx, &models.StudentProfile{ID: "stu-1", FullName: "Priya Patel", Email: "priya@example.edu"}); err != nil {
		t.Fatal(err)
	}

	applied, err := s.HasApplied(ctx, p.ID, "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("expected no application yet")
	}

	app := &models.Application{PositionID: p.ID, StudentID: "stu-1", CoverLetter: "I built a recommender."}
	if err := s.InsertApplication(ctx, app); err != nil {
		t.Fatal(err)
	}
	if app.Status != models.ApplicationPending {
		t.Errorf("expected pending, got %s", app.Status)
	}

	if err := s.InsertApplication(ctx, &models.Application{PositionID: p.ID, StudentID: "stu-1"}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict on duplicate, got %v", err)
	}

	owned, err := s.StartupApplications(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(owned) != 1 {
		t.Fatalf("expected 1 startup application, got %d", len(owned))
	}
	if owned[0].StudentName != "Priya Patel" || owned[0].PositionTitle != "ML Intern" {
		t.Errorf("unexpected join result: %+v", owned[0])
	}
	if owned[0].CoverLetter != "I built a recommender." {
		t.Errorf("expected cover letter on startup view, got %q", owned[0].CoverLetter)
	}

	mine, err := s.StudentApplications(ctx, "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 student application, got %d", len(mine))
	}
	if mine[0].Position.Startup.Name != "Acme" {
		t.Errorf("expected nested startup Acme, got %s", mine[0].Position.Startup.Name)
	}
	if mine[0].CoverLetter != "I built a recommender." {
		t.Errorf("expected cover letter on student view, got %q", mine[0].CoverLetter)
	}

	updated, err := s.UpdateApplicationStatus(ctx, app.ID, models.ApplicationAccepted)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.ApplicationAccepted || updated.CoverLetter != "I built a recommender." {
		t.Errorf("unexpected updated application: %+v", updated)
	}

	if _, err := s.UpdateApplicationStatus(ctx, "missing", models.ApplicationRejected); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertStudentProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.StudentProfile{
		ID:       "stu-1",
		FullName: "Rahul Singh",
		Skills:   []string{"go"},
		Projects: []models.Project{{ID: "p1", Title: "Compiler", TechStack: []string{"rust"}}},
	}
	if err := s.UpsertStudentProfile(ctx, p); err != nil {
		t.Fatal(err)
	}

	p.Major = "Computer Science"
	p.Skills = append(p.Skills, "python")
	if err := s.UpsertStudentProfile(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.StudentProfile(ctx, "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Major != "Computer Science" {
		t.Errorf("expected updated major, got %q", got.Major)
	}
	if len(got.Skills) != 2 {
		t.Errorf("expected 2 skills, got %v", got.Skills)
	}
	if len(got.Projects) != 1 || got.Projects[0].Title != "Compiler" {
		t.Errorf("unexpected projects: %+v", got.Projects)
	}

	if _, err := s.StudentProfile(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePositionStatusMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.UpdatePositionStatus(context.Background(), "missing", models.PositionClosed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = s1.Close()

	s2, err := New(dbPath)
	if err != nil {
		t.Fatal("second New() failed:", err)
	}
	_ = s2.Close()
}

func TestNewAddsCoverLetterToOldSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE applications (
		id TEXT PRIMARY KEY,
		position_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (position_id, student_id)
	)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	// Reopening must not try to add the column twice.
	s2, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2.Close()

	ctx := context.Background()
	st := seedStartup(t, s, "owner", "Acme")
	p := seedPosition(t, s, st.ID, "Intern")
	if err := s.InsertApplication(ctx, &models.Application{PositionID: p.ID, StudentID: "s1", CoverLetter: "hi"}); err != nil {
		t.Fatalf("insert after migration: %v", err)
	}
}
