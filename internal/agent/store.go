package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/hanyumate/hanyumate/internal/quiz"
	"github.com/hanyumate/hanyumate/internal/vocab"
)

// Learner is the per-user state the engine works on. The engine holds mu for
// the whole of a command, so plan, build and commit of a quiz are atomic per learner.
type Learner struct {
	mu sync.Mutex

	ID          string
	Level       vocab.Level
	LessonIndex int
	UseAI       bool
	// Quiz is the active session; a new start or regenerate replaces it.
	Quiz      *quiz.Session
	Pool      *quiz.PoolTracker
	CreatedAt time.Time
}

// LearnerStore keeps learners for the life of the process.
type LearnerStore interface {
	GetLearner(id string) (*Learner, bool)
	PutLearner(l *Learner) error
	Count() int
}

// MemoryStore is an in-memory implementation of LearnerStore.
type MemoryStore struct {
	learners map[string]*Learner
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory learner store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		learners: make(map[string]*Learner),
	}
}

func (s *MemoryStore) GetLearner(id string) (*Learner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.learners[id]
	return l, ok
}

func (s *MemoryStore) PutLearner(l *Learner) error {
	if l == nil || l.ID == "" {
		return fmt.Errorf("learner id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	s.learners[l.ID] = l
	return nil
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.learners)
}
