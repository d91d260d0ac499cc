package devices

import (
	"context"
	"sort"
	"sync"

	"stocky/internal/core/id"
)

// MemoryRepository keeps tokens in a map keyed by token.
type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]*Token
	// ListErr, when set, fails ListByOwner for the listed owners.
	ListErr map[id.ID]error
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns a repository seeded with tokens.
func NewMemoryRepository(tokens ...*Token) *MemoryRepository {
	r := &MemoryRepository{tokens: make(map[string]*Token), ListErr: make(map[id.ID]error)}
	for _, t := range tokens {
		r.tokens[t.Token] = t
	}
	return r
}

func (r *MemoryRepository) Upsert(_ context.Context, t *Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tokens[t.Token] = &cp
	return nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID id.ID) ([]*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ListErr[ownerID]; err != nil {
		return nil, err
	}
	var out []*Token
	for _, t := range r.tokens {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID id.ID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok && t.OwnerID == ownerID {
		delete(r.tokens, token)
	}
	return nil
}

func (r *MemoryRepository) Prune(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}
