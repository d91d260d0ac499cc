package shop

import (
	"context"
	"sync"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
)

// MemoryRepository keeps profiles in a map.
type MemoryRepository struct {
	mu       sync.Mutex
	profiles map[id.ID]*Profile
	// Err, when set, is returned by every call.
	Err error
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns a repository seeded with profiles.
func NewMemoryRepository(profiles ...*Profile) *MemoryRepository {
	r := &MemoryRepository{profiles: make(map[id.ID]*Profile)}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *MemoryRepository) Get(_ context.Context, shopID id.ID) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.profiles[shopID]
	if !ok {
		return nil, apperror.NewNotFound("shop_profile", shopID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) Create(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.profiles[p.ID]; !ok {
		cp := *p
		r.profiles[p.ID] = &cp
	}
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.profiles[p.ID]; !ok {
		return apperror.NewNotFound("shop_profile", p.ID.String())
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) ListAll(context.Context) ([]*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
