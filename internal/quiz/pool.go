package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

// ConsumedStore persists the consumed-index set of each pool key.
type ConsumedStore interface {
	Consumed(ctx context.Context, key string) ([]int, error)
	Add(ctx context.Context, key string, indices ...int) error
	Reset(ctx context.Context, key string) error
}

// MemoryConsumedStore is the in-process ConsumedStore.
type MemoryConsumedStore struct {
	mu   sync.Mutex
	sets map[string]map[int]struct{}
}

// NewMemoryConsumedStore creates an empty in-memory store.
func NewMemoryConsumedStore() *MemoryConsumedStore {
	return &MemoryConsumedStore{sets: make(map[string]map[int]struct{})}
}

func (s *MemoryConsumedStore) Consumed(_ context.Context, key string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.sets[key]))
	for i := range s.sets[key] {
		out = append(out, i)
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemoryConsumedStore) Add(_ context.Context, key string, indices ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[int]struct{})
		s.sets[key] = set
	}
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return nil
}

func (s *MemoryConsumedStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key)
	return nil
}

// Draw is the outcome of sampling a level's pool.
type Draw struct {
	Level   vocab.Level
	Indices []int
	// Reset is true when the consumed set was cleared to satisfy this draw.
	Reset bool
}

// PoolTracker hands out entry indices per level without repetition until the
// level's pool runs short, then starts over.
type PoolTracker struct {
	bank  *vocab.Bank
	rng   *Rand
	store ConsumedStore
	scope string

	mu    sync.Mutex
	locks map[vocab.Level]*sync.Mutex
}

// PoolOption configures a PoolTracker.
type PoolOption func(*PoolTracker)

// WithConsumedStore replaces the in-memory store.
func WithConsumedStore(store ConsumedStore) PoolOption {
	return func(p *PoolTracker) {
		p.store = store
	}
}

// WithScope namespaces the store keys, e.g. by learner ID.
func WithScope(scope string) PoolOption {
	return func(p *PoolTracker) {
		p.scope = scope
	}
}

// NewPoolTracker creates a tracker with empty consumed sets.
func NewPoolTracker(bank *vocab.Bank, rng *Rand, opts ...PoolOption) *PoolTracker {
	p := &PoolTracker{
		bank:  bank,
		rng:   rng,
		store: NewMemoryConsumedStore(),
		locks: make(map[vocab.Level]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Draw samples n distinct indices and marks them consumed in one step.
func (p *PoolTracker) Draw(ctx context.Context, level vocab.Level, n int) (Draw, error) {
	mu := p.levelLock(level)
	mu.Lock()
	defer mu.Unlock()

	d, err := p.plan(ctx, level, n)
	if err != nil {
		return Draw{}, err
	}
	if err := p.commit(ctx, d); err != nil {
		return Draw{}, err
	}
	return d, nil
}

// Plan samples n indices without consuming them. Pair it with Commit while
// holding a lock that keeps other draws for the level out.
func (p *PoolTracker) Plan(ctx context.Context, level vocab.Level, n int) (Draw, error) {
	mu := p.levelLock(level)
	mu.Lock()
	defer mu.Unlock()
	return p.plan(ctx, level, n)
}

// Commit marks a planned draw consumed, clearing the level first if the plan required a reset.
func (p *PoolTracker) Commit(ctx context.Context, d Draw) error {
	mu := p.levelLock(d.Level)
	mu.Lock()
	defer mu.Unlock()
	return p.commit(ctx, d)
}

// Consumed returns the consumed indices of a level in ascending order.
func (p *PoolTracker) Consumed(ctx context.Context, level vocab.Level) ([]int, error) {
	return p.store.Consumed(ctx, p.key(level))
}

// Remaining returns how many entries of the level can be drawn before a reset.
func (p *PoolTracker) Remaining(ctx context.Context, level vocab.Level) (int, error) {
	consumed, err := p.consumedInRange(ctx, level)
	if err != nil {
		return 0, err
	}
	return p.bank.Size(level) - len(consumed), nil
}

func (p *PoolTracker) plan(ctx context.Context, level vocab.Level, n int) (Draw, error) {
	entries, err := p.bank.Entries(level)
	if err != nil {
		return Draw{}, err
	}
	if n <= 0 || n > len(entries) {
		return Draw{}, &InsufficientDataError{Level: level, What: "entries to draw", Need: n, Have: len(entries)}
	}

	consumed, err := p.consumedInRange(ctx, level)
	if err != nil {
		return Draw{}, err
	}

	available := make([]int, 0, len(entries))
	for i := range entries {
		if _, used := consumed[i]; !used {
			available = append(available, i)
		}
	}

	d := Draw{Level: level}
	if len(available) < n {
		d.Reset = true
		available = available[:0]
		for i := range entries {
			available = append(available, i)
		}
	}
	d.Indices = p.rng.Sample(available, n)
	return d, nil
}

func (p *PoolTracker) commit(ctx context.Context, d Draw) error {
	key := p.key(d.Level)
	if d.Reset {
		if err := p.store.Reset(ctx, key); err != nil {
			return fmt.Errorf("resetting pool %s: %w", key, err)
		}
		slog.Info("vocabulary pool reset", "level", d.Level, "scope", p.scope)
	}
	if err := p.store.Add(ctx, key, d.Indices...); err != nil {
		return fmt.Errorf("recording draw for %s: %w", key, err)
	}
	return nil
}

// consumedInRange ignores stored indices beyond the bank, which can linger in an
// external store after the vocabulary shrinks.
func (p *PoolTracker) consumedInRange(ctx context.Context, level vocab.Level) (map[int]struct{}, error) {
	raw, err := p.store.Consumed(ctx, p.key(level))
	if err != nil {
		return nil, fmt.Errorf("reading pool %s: %w", p.key(level), err)
	}
	size := p.bank.Size(level)
	set := make(map[int]struct{}, len(raw))
	for _, i := range raw {
		if i >= 0 && i < size {
			set[i] = struct{}{}
		}
	}
	return set, nil
}

func (p *PoolTracker) key(level vocab.Level) string {
	if p.scope == "" {
		return "pool:" + level.String()
	}
	return "pool:" + p.scope + ":" + level.String()
}

func (p *PoolTracker) levelLock(level vocab.Level) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	mu, ok := p.locks[level]
	if !ok {
		mu = &sync.Mutex{}
		p.locks[level] = mu
	}
	return mu
}
