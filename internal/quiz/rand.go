package quiz

import (
	"math/rand/v2"
	"sync"
)

// Rand is a seedable random source safe for use by several goroutines.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSeededRand returns a source seeded from the runtime's random generator.
func NewSeededRand() *Rand {
	return NewRand(rand.Uint64())
}

// Sample returns k distinct elements of population chosen uniformly, in random order.
// population is not modified.
func (r *Rand) Sample(population []int, k int) []int {
	if k > len(population) {
		k = len(population)
	}
	pool := append([]int(nil), population...)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + r.r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Shuffle randomizes the order of n elements.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.r.Shuffle(n, swap)
}
