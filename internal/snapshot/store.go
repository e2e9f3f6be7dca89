package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/doxx-org/doxx-app-sub000/internal/pool"
)

// ErrPoolNotFound is returned for an unknown pool ID.
var ErrPoolNotFound = errors.New("pool not found")

type pairKey [64]byte

func keyOf(a, b solana.PublicKey) pairKey {
	a, b = pool.SortMints(a, b)
	var k pairKey
	copy(k[:32], a[:])
	copy(k[32:], b[:])
	return k
}

// Store is an in-memory pool source. Pools put into the store are treated
// as immutable; updating a pool means putting a new snapshot.
type Store struct {
	mu    sync.RWMutex
	pools map[string]pool.Pool
	pairs map[pairKey][]string // sorted IDs
}

// NewStore returns a store holding pools.
func NewStore(pools ...pool.Pool) *Store {
	s := &Store{
		pools: make(map[string]pool.Pool),
		pairs: make(map[pairKey][]string),
	}
	for _, p := range pools {
		s.put(p)
	}
	return s
}

// Put adds or replaces a pool.
func (s *Store) Put(p pool.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(p)
}

func (s *Store) put(p pool.Pool) {
	id := p.ID()
	if _, exists := s.pools[id]; !exists {
		t0, t1 := p.Tokens()
		k := keyOf(t0.Mint, t1.Mint)
		ids := append(s.pairs[k], id)
		sort.Strings(ids)
		s.pairs[k] = ids
	}
	s.pools[id] = p
}

// Remove deletes a pool. It reports whether the pool existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pools[id]
	if !ok {
		return false
	}
	delete(s.pools, id)

	t0, t1 := p.Tokens()
	k := keyOf(t0.Mint, t1.Mint)
	ids := s.pairs[k]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.pairs, k)
	} else {
		s.pairs[k] = ids
	}
	return true
}

// Replace swaps the whole content of the store in one step.
func (s *Store) Replace(pools []pool.Pool) {
	fresh := NewStore(pools...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools, s.pairs = fresh.pools, fresh.pairs
}

// ReloadFile replaces the store content with a snapshot file. On error the
// store is left unchanged.
func (s *Store) ReloadFile(path string, tokens TokenResolver) (int, error) {
	pools, err := LoadFile(path, tokens)
	if err != nil {
		return 0, err
	}
	s.Replace(pools)
	return len(pools), nil
}

// Len returns the number of pools.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pools)
}

// List returns all pools ordered by ID.
func (s *Store) List() []pool.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]pool.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Candidates lists the IDs of pools trading mintA against mintB, ordered.
func (s *Store) Candidates(ctx context.Context, mintA, mintB solana.PublicKey) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mintA.Equals(mintB) {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.pairs[keyOf(mintA, mintB)]
	return append([]string(nil), ids...), nil
}

// Snapshot returns one pool.
func (s *Store) Snapshot(ctx context.Context, id string) (pool.Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	p, ok := s.pools[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrPoolNotFound)
	}
	return p, nil
}
