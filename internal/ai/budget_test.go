package ai

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryBudget_Unlimited(t *testing.T) {
	b := NewInMemoryBudget(0)
	b.Record("learner1", 1_000_000)

	ok, err := b.Check("learner1")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("Check() = false, want true (zero limit means unlimited)")
	}
}

func TestInMemoryBudget_Limits(t *testing.T) {
	tests := []struct {
		name     string
		override int64
		used     int
		want     bool
	}{
		{"within default", -1, 50, true},
		{"exact default", -1, 100, false},
		{"over default", -1, 150, false},
		{"override raises limit", 500, 150, true},
		{"override lowers limit", 10, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewInMemoryBudget(100)
			if tt.override >= 0 {
				b.SetBudget("learner1", tt.override)
			}
			if err := b.Record("learner1", tt.used); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			ok, err := b.Check("learner1")
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("Check() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestInMemoryBudget_NegativeTokens(t *testing.T) {
	b := NewInMemoryBudget(0)
	if err := b.Record("learner1", -1); err == nil {
		t.Fatal("Record() should reject negative tokens")
	}
}

func TestInMemoryBudget_IsolatedLearners(t *testing.T) {
	b := NewInMemoryBudget(100)
	b.Record("learner1", 200)

	ok, _ := b.Check("learner2")
	if !ok {
		t.Error("learner2 should not be charged for learner1's usage")
	}
	used, limit, _ := b.Usage("learner1")
	if used != 200 || limit != 100 {
		t.Errorf("Usage() = (%d, %d), want (200, 100)", used, limit)
	}
}

func TestBudgetedCompleter(t *testing.T) {
	mock := NewMockProvider("0123456789") // 10 input + 10 output tokens
	budget := NewInMemoryBudget(30)
	c := WithBudget(mock, budget, "learner1")

	req := CompletionRequest{Messages: []Message{{Role: "user", Content: "hi"}}}
	if _, err := c.Complete(context.Background(), req); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}
	if _, err := c.Complete(context.Background(), req); err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	_, err := c.Complete(context.Background(), req)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("third Complete() error = %v, want ErrBudgetExceeded", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2 (over-budget call must not reach provider)", mock.Calls())
	}
}
