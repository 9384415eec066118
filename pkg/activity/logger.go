package activity

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/internhub/internhub/pkg/models"
)

// Logger writes and queries activity events in a SQLite database.
type Logger struct {
	db   *sql.DB
	cfg  models.ActivityConfig
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the activity database, creates the schema and starts the
// retention loop when RetentionDays is positive.
func New(cfg models.ActivityConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open activity db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate activity db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	if cfg.RetentionDays > 0 {
		l.wg.Add(1)
		go l.retentionLoop()
	}

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS activity_log (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		startup_id TEXT NOT NULL DEFAULT '',
		actor_id   TEXT NOT NULL DEFAULT '',
		subject_id TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_activity_startup ON activity_log(startup_id, created_at)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_activity_actor ON activity_log(actor_id)`)
	return err
}

// Log inserts an event. A nil Logger discards events.
func (l *Logger) Log(ctx context.Context, ev models.ActivityEvent) error {
	if l == nil || l.db == nil {
		return nil
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, kind, startup_id, actor_id, subject_id, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Kind, ev.StartupID, ev.ActorID, ev.SubjectID, ev.Detail, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// Query returns events matching opts, newest first.
func (l *Logger) Query(ctx context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEvent, error) {
	if l == nil || l.db == nil {
		return []models.ActivityEvent{}, nil
	}
	q := `SELECT id, kind, startup_id, actor_id, subject_id, detail, created_at
		FROM activity_log WHERE 1=1`
	var args []any

	if opts.StartupID != "" {
		q += " AND startup_id = ?"
		args = append(args, opts.StartupID)
	}
	if opts.ActorID != "" {
		q += " AND actor_id = ?"
		args = append(args, opts.ActorID)
	}
	if opts.Kind != "" {
		q += " AND kind = ?"
		args = append(args, opts.Kind)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	q += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	events := []models.ActivityEvent{}
	for rows.Next() {
		var e models.ActivityEvent
		if err := rows.Scan(&e.ID, &e.Kind, &e.StartupID, &e.ActorID, &e.SubjectID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Cleanup deletes events older than the configured retention period. A
// non-positive retention keeps everything.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx, `DELETE FROM activity_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("activity cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}
