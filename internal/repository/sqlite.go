package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/entity"
)

// SQLiteRepository persists projects in a single-file database. Records are
// stored as JSON documents with the credential pair and status lifted into
// columns for lookups; merge semantics run in Go so all backends share them.
type SQLiteRepository struct {
	db  *sql.DB
	log *slog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	pin        TEXT NOT NULL,
	status     TEXT NOT NULL,
	doc        TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

func NewSQLiteRepository(ctx context.Context, path string, log *slog.Logger) (*SQLiteRepository, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	log.Info("store.sqlite.ready", "path", path)
	return &SQLiteRepository{db: db, log: log}, nil
}

func (r *SQLiteRepository) Add(ctx context.Context, p *entity.Project) (*entity.Project, error) {
	cp := p.Clone()
	mintCredentials(cp, time.Now())

	doc, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO projects (id, pin, status, doc, updated_at) VALUES (?, ?, ?, ?, ?)`,
		cp.ID, cp.PIN, string(cp.Status), string(doc), cp.LastUpdate.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	r.log.Info("store.project.added", "project_id", cp.ID, "name", cp.ProjectName)
	return cp, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*entity.Project, error) {
	return r.getWhere(ctx, `SELECT doc FROM projects WHERE id = ?`, id)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*entity.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM projects ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*entity.Project
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p, err := decodeProject(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, patch Patch) (*entity.Project, error) {
	return r.mutate(ctx, id, func(p *entity.Project) error {
		patch.apply(p, time.Now())
		return nil
	})
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status constants.Status) (*entity.Project, error) {
	return r.mutate(ctx, id, func(p *entity.Project) error {
		p.Status = status
		p.LastUpdate = time.Now()
		return nil
	})
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notFound(id)
	}
	r.log.Info("store.project.deleted", "project_id", id)
	return nil
}

func (r *SQLiteRepository) FindByCredentials(ctx context.Context, id, pin string) (*entity.Project, error) {
	p, err := r.getWhere(ctx, `SELECT doc FROM projects WHERE id = ? AND pin = ?`, id, pin)
	if err != nil {
		return nil, badCredentials()
	}
	return p, nil
}

func (r *SQLiteRepository) SetMembership(ctx context.Context, id string, role constants.Role, action constants.MembershipAction) (*entity.Project, error) {
	return r.mutate(ctx, id, func(p *entity.Project) error {
		return applyMembership(p, role, action, time.Now())
	})
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }

func (r *SQLiteRepository) getWhere(ctx context.Context, query string, args ...any) (*entity.Project, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprint(args[0]))
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	return decodeProject(doc)
}

// mutate runs a read-modify-write cycle inside a transaction.
func (r *SQLiteRepository) mutate(ctx context.Context, id string, fn func(*entity.Project) error) (*entity.Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM projects WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	p, err := decodeProject(doc)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	updated, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE projects SET pin = ?, status = ?, doc = ?, updated_at = ? WHERE id = ?`,
		p.PIN, string(p.Status), string(updated), p.LastUpdate.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func decodeProject(doc string) (*entity.Project, error) {
	var p entity.Project
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if p.SDGs == nil {
		p.SDGs = []string{}
	}
	if p.Portfolio == nil {
		p.Portfolio = []string{}
	}
	if p.Rejected == nil {
		p.Rejected = []string{}
	}
	return &p, nil
}
