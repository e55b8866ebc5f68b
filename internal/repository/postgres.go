package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/entity"
)

// PostgresConfig tunes the connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PostgresRepository is the shared-deployment backend. Same JSONB-document
// layout as the sqlite backend; pgx pool handles concurrency.
type PostgresRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	pin        TEXT NOT NULL,
	status     TEXT NOT NULL,
	doc        JSONB NOT NULL,
	seq        BIGINT GENERATED ALWAYS AS IDENTITY,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// NewPostgresRepository creates the pool, verifies connectivity within the
// dial timeout, and ensures the schema exists.
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig, log *slog.Logger) (*PostgresRepository, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		log.Error("failed to parse database config", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "impact-intake"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		log.Error("failed to ping database", "error", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres schema: %w", err)
	}
	log.Info("successfully connected to database")
	return &PostgresRepository{pool: pool, log: log}, nil
}

func (r *PostgresRepository) Add(ctx context.Context, p *entity.Project) (*entity.Project, error) {
	cp := p.Clone()
	mintCredentials(cp, time.Now())

	doc, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO projects (id, pin, status, doc, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		cp.ID, cp.PIN, string(cp.Status), doc, cp.LastUpdate)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	r.log.Info("store.project.added", "project_id", cp.ID, "name", cp.ProjectName)
	return cp, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*entity.Project, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM projects WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	return decodeProject(string(doc))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*entity.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT doc FROM projects ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*entity.Project
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p, err := decodeProject(string(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (*entity.Project, error) {
	return r.mutate(ctx, id, func(p *entity.Project) error {
		patch.apply(p, time.Now())
		return nil
	})
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status constants.Status) (*entity.Project, error) {
	return r.mutate(ctx, id, func(p *entity.Project) error {
		p.Status = status
		p.LastUpdate = time.Now()
		return nil
	})
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	r.log.Info("store.project.deleted", "project_id", id)
	return nil
}

func (r *PostgresRepository) FindByCredentials(ctx context.Context, id, pin string) (*entity.Project, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM projects WHERE id = $1 AND pin = $2`, id, pin).Scan(&doc)
	if err != nil {
		return nil, badCredentials()
	}
	return decodeProject(string(doc))
}

func (r *PostgresRepository) SetMembership(ctx context.Context, id string, role constants.Role, action constants.MembershipAction) (*entity.Project, error) {
	return r.mutate(ctx, id, func(p *entity.Project) error {
		return applyMembership(p, role, action, time.Now())
	})
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// mutate runs a read-modify-write cycle with a row lock so concurrent
// classifications on the same record serialize.
func (r *PostgresRepository) mutate(ctx context.Context, id string, fn func(*entity.Project) error) (*entity.Project, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var doc []byte
	err = tx.QueryRow(ctx, `SELECT doc FROM projects WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	p, err := decodeProject(string(doc))
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
	_, err = tx.Exec(ctx,
		`UPDATE projects SET pin = $1, status = $2, doc = $3, updated_at = $4 WHERE id = $5`,
		p.PIN, string(p.Status), updated, p.LastUpdate, id)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}
