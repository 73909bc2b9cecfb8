package quiz_test

import (
	"slices"
	"testing"

	"github.com/hanyumate/hanyumate/internal/quiz"
)

func TestRand_Sample(t *testing.T) {
	r := quiz.NewRand(99)
	population := []int{10, 20, 30, 40, 50}

	for range 50 {
		got := r.Sample(population, 3)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		seen := map[int]bool{}
		for _, v := range got {
			if seen[v] || !slices.Contains(population, v) {
				t.Fatalf("sample %v has duplicates or foreign values", got)
			}
			seen[v] = true
		}
	}
	if !slices.Equal(population, []int{10, 20, 30, 40, 50}) {
		t.Errorf("population modified: %v", population)
	}
	if got := r.Sample(population, 9); len(got) != 5 {
		t.Errorf("oversized sample len = %d, want 5", len(got))
	}
}

func TestRand_SameSeedSameSequence(t *testing.T) {
	a, b := quiz.NewRand(5), quiz.NewRand(5)
	pop := []int{0, 1, 2, 3, 4, 5, 6, 7}
	for range 10 {
		if !slices.Equal(a.Sample(pop, 4), b.Sample(pop, 4)) {
			t.Fatal("same seed produced different samples")
		}
	}
}
