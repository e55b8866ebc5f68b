package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/entity"
)

// MemoryRepository keeps records in process memory. Default backend for
// tests and local development.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]*entity.Project
	order    []string // insertion order for stable listing
	log      *slog.Logger
}

func NewMemoryRepository(log *slog.Logger) *MemoryRepository {
	if log == nil {
		log = slog.Default()
	}
	return &MemoryRepository{
		projects: make(map[string]*entity.Project),
		log:      log,
	}
}

func (r *MemoryRepository) Add(_ context.Context, p *entity.Project) (*entity.Project, error) {
	cp := p.Clone()
	mintCredentials(cp, time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[cp.ID] = cp
	r.order = append(r.order, cp.ID)

	r.log.Info("store.project.added", "project_id", cp.ID, "name", cp.ProjectName)
	return cp.Clone(), nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*entity.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, notFound(id)
	}
	return p.Clone(), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*entity.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Project, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.projects[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, patch Patch) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, notFound(id)
	}
	patch.apply(p, time.Now())
	r.log.Info("store.project.updated", "project_id", id, "pending", p.EntrepreneurPending)
	return p.Clone(), nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status constants.Status) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, notFound(id)
	}
	p.Status = status
	p.LastUpdate = time.Now()
	r.log.Info("store.project.status", "project_id", id, "status", status)
	return p.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return notFound(id)
	}
	delete(r.projects, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.Info("store.project.deleted", "project_id", id)
	return nil
}

func (r *MemoryRepository) FindByCredentials(_ context.Context, id, pin string) (*entity.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok || p.PIN != pin {
		return nil, badCredentials()
	}
	return p.Clone(), nil
}

func (r *MemoryRepository) SetMembership(_ context.Context, id string, role constants.Role, action constants.MembershipAction) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, notFound(id)
	}
	if err := applyMembership(p, role, action, time.Now()); err != nil {
		return nil, err
	}
	r.log.Info("store.project.membership", "project_id", id, "role", role, "action", action)
	return p.Clone(), nil
}

func (r *MemoryRepository) Close() error { return nil }
