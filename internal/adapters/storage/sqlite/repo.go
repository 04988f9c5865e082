package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/enrichgrid/internal/app"
	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores grid state in a local sqlite file.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:enrichgrid-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			action TEXT NOT NULL,
			enrichment_name TEXT NOT NULL,
			enrichment_icon TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stats (
			position INTEGER PRIMARY KEY,
			label TEXT NOT NULL,
			value TEXT NOT NULL,
			trend TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			record_id INTEGER NOT NULL,
			operation TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			occurred_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_record ON change_events(record_id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListRecords returns records ordered by id.
func (r *Repository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, action, enrichment_name, enrichment_icon, status
		FROM records
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Record, 0)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// NextRecordID reads the AUTOINCREMENT high-water mark, which survives deletes.
func (r *Repository) NextRecordID(ctx context.Context) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'records'), 0),
			COALESCE((SELECT MAX(id) FROM records), 0)
		) + 1
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("read record sequence: %w", err)
	}
	return next, nil
}

// CreateRecord inserts a record under its assigned id and its change events
// in one transaction.
func (r *Repository) CreateRecord(ctx context.Context, rec domain.Record, events ...domain.ChangeEvent) (err error) {
	if rec.ID <= 0 {
		return domain.ErrInvalidID
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records(id, timestamp, action, enrichment_name, enrichment_icon, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Timestamp,
		rec.Action,
		rec.Enrichment.Name,
		string(rec.Enrichment.Icon),
		string(rec.Status),
		ts(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	for _, event := range events {
		if err = insertChangeEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteRecords removes every id and writes the change events in one
// transaction. A missing id rolls the whole batch back.
func (r *Repository) DeleteRecords(ctx context.Context, ids []int, events ...domain.ChangeEvent) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, id := range ids {
		res, execErr := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
		if execErr != nil {
			return execErr
		}
		if err = translateNoRows(res); err != nil {
			return fmt.Errorf("delete record %d: %w", id, err)
		}
	}
	for _, event := range events {
		if err = insertChangeEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListStats returns stat cards in display order.
func (r *Repository) ListStats(ctx context.Context) ([]domain.Stat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, value, trend FROM stats ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Stat, 0)
	for rows.Next() {
		var stat domain.Stat
		if err := rows.Scan(&stat.Label, &stat.Value, &stat.Trend); err != nil {
			return nil, err
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

// ReplaceStats swaps the full stat card set.
func (r *Repository) ReplaceStats(ctx context.Context, stats []domain.Stat) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM stats`); err != nil {
		return err
	}
	for i, stat := range stats {
		if _, err = tx.ExecContext(ctx, `INSERT INTO stats(position, label, value, trend) VALUES (?, ?, ?, ?)`,
			i, stat.Label, stat.Value, stat.Trend); err != nil {
			return fmt.Errorf("insert stat: %w", err)
		}
	}
	return tx.Commit()
}

// insertChangeEvent appends one activity entry inside tx.
func insertChangeEvent(ctx context.Context, tx *sql.Tx, event domain.ChangeEvent) error {
	if strings.TrimSpace(event.ID) == "" {
		return domain.ErrInvalidID
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO change_events(id, record_id, operation, summary, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.ID,
		event.RecordID,
		string(normalizeChangeOperation(string(event.Operation))),
		event.Summary,
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// ListChangeEvents lists recent events for activity-log consumption.
func (r *Repository) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, operation, summary, occurred_at
		FROM change_events
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event      domain.ChangeEvent
			opRaw      string
			occurredAt string
		)
		if err := rows.Scan(&event.ID, &event.RecordID, &opRaw, &event.Summary, &occurredAt); err != nil {
			return nil, err
		}
		event.Operation = normalizeChangeOperation(opRaw)
		event.OccurredAt = parseTS(occurredAt)
		out = append(out, event)
	}
	return out, rows.Err()
}

// normalizeChangeOperation canonicalizes persisted operation values.
func normalizeChangeOperation(raw string) domain.ChangeOperation {
	switch domain.ChangeOperation(strings.TrimSpace(strings.ToLower(raw))) {
	case domain.ChangeOperationDelete:
		return domain.ChangeOperationDelete
	default:
		return domain.ChangeOperationCreate
	}
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (domain.Record, error) {
	var (
		rec     domain.Record
		iconRaw string
		status  string
	)
	if err := s.Scan(&rec.ID, &rec.Timestamp, &rec.Action, &rec.Enrichment.Name, &iconRaw, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, app.ErrNotFound
		}
		return domain.Record{}, err
	}
	icon, err := domain.ParseIcon(iconRaw)
	if err != nil {
		return domain.Record{}, fmt.Errorf("decode records.enrichment_icon %q: %w", iconRaw, err)
	}
	rec.Enrichment.Icon = icon
	rec.Status = domain.Status(status)
	if rec.Status == "" {
		rec.Status = domain.DeriveStatus(rec.Action)
	}
	return rec, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
