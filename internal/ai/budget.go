package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBudgetExceeded is returned by a budgeted completer once the learner's tokens run out.
var ErrBudgetExceeded = errors.New("AI token budget exceeded")

// BudgetChecker checks and records token usage per learner.
type BudgetChecker interface {
	// Check returns true if the learner has budget remaining.
	Check(learnerID string) (bool, error)
	// Record adds token usage for a learner.
	Record(learnerID string, tokens int) error
	// Usage returns current usage and limit for a learner. A zero limit means unlimited.
	Usage(learnerID string) (used int64, budget int64, err error)
}

// InMemoryBudget tracks usage in process memory with one default limit for every learner.
type InMemoryBudget struct {
	mu           sync.RWMutex
	defaultLimit int64
	budgets      map[string]int64 // learner -> limit override
	usage        map[string]int64 // learner -> tokens used
}

// NewInMemoryBudget creates a tracker. defaultLimit <= 0 means unlimited.
func NewInMemoryBudget(defaultLimit int64) *InMemoryBudget {
	return &InMemoryBudget{
		defaultLimit: defaultLimit,
		budgets:      make(map[string]int64),
		usage:        make(map[string]int64),
	}
}

// SetBudget overrides the token budget for one learner.
func (b *InMemoryBudget) SetBudget(learnerID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[learnerID] = tokens
}

func (b *InMemoryBudget) Check(learnerID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	limit := b.limit(learnerID)
	if limit <= 0 {
		return true, nil
	}
	return b.usage[learnerID] < limit, nil
}

func (b *InMemoryBudget) Record(learnerID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[learnerID] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(learnerID string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[learnerID], b.limit(learnerID), nil
}

func (b *InMemoryBudget) limit(learnerID string) int64 {
	if l, ok := b.budgets[learnerID]; ok {
		return l
	}
	return b.defaultLimit
}

// Completer is anything that can run a completion, such as a Router or a Provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// BudgetedCompleter charges every completion to one learner.
type BudgetedCompleter struct {
	next      Completer
	budget    BudgetChecker
	learnerID string
}

// WithBudget wraps next so calls fail with ErrBudgetExceeded once the learner is over budget.
func WithBudget(next Completer, budget BudgetChecker, learnerID string) *BudgetedCompleter {
	return &BudgetedCompleter{next: next, budget: budget, learnerID: learnerID}
}

func (c *BudgetedCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	ok, err := c.budget.Check(c.learnerID)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("checking budget: %w", err)
	}
	if !ok {
		return CompletionResponse{}, ErrBudgetExceeded
	}

	resp, err := c.next.Complete(ctx, req)
	if err != nil {
		return CompletionResponse{}, err
	}
	if err := c.budget.Record(c.learnerID, resp.TotalTokens()); err != nil {
		return CompletionResponse{}, fmt.Errorf("recording usage: %w", err)
	}
	return resp, nil
}
