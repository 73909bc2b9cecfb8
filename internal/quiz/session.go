package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

// DefaultQuestionsPerQuiz is the quiz length when none is configured.
const DefaultQuestionsPerQuiz = 5

// StartRequest describes a new quiz.
type StartRequest struct {
	Level    vocab.Level
	Count    int
	Supplier Supplier
	Tracker  *PoolTracker
}

// Session is one generated quiz with its answers. Answers use 1-based question numbers.
type Session struct {
	ID        string
	Level     vocab.Level
	Questions []Question
	// PoolReset is set when drawing this quiz exhausted the level and started over.
	PoolReset bool
	CreatedAt time.Time

	mu        sync.Mutex
	answers   map[int]string
	submitted bool
}

// Result is the graded view of one question.
type Result struct {
	Number   int
	Question Question
	Chosen   string
	Correct  bool
}

// Start draws Count entries and builds one question per entry. The pool is only
// marked consumed once every question is built, so a cancelled or failed start
// leaves the tracker untouched.
func Start(ctx context.Context, req StartRequest) (*Session, error) {
	if req.Supplier == nil || req.Tracker == nil {
		return nil, errors.New("quiz start requires a supplier and a pool tracker")
	}

	draw, err := req.Tracker.Plan(ctx, req.Level, req.Count)
	if err != nil {
		return nil, err
	}

	kinds := req.Supplier.Kinds()
	if len(kinds) == 0 {
		kinds = []Kind{KindMeaning}
	}

	questions := make([]Question, 0, len(draw.Indices))
	for i, index := range draw.Indices {
		kind := kinds[i%len(kinds)]
		q, err := req.Supplier.BuildQuestion(ctx, req.Level, index, kind)
		if kind != KindMeaning && errors.Is(err, ErrDistractorCollision) {
			q, err = req.Supplier.BuildQuestion(ctx, req.Level, index, KindMeaning)
		}
		if err != nil {
			return nil, fmt.Errorf("building question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := req.Tracker.Commit(ctx, draw); err != nil {
		return nil, err
	}

	return &Session{
		ID:        uuid.NewString(),
		Level:     req.Level,
		Questions: questions,
		PoolReset: draw.Reset,
		CreatedAt: time.Now(),
		answers:   make(map[int]string),
	}, nil
}

// RecordAnswer stores label for question number (1-based). It returns false and
// changes nothing when the quiz is submitted, the number is out of range or the
// label is not one of the question's options.
func (s *Session) RecordAnswer(number int, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted || number < 1 || number > len(s.Questions) {
		return false
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	if !s.Questions[number-1].HasLabel(label) {
		return false
	}
	s.answers[number] = label
	return true
}

// Answer returns the recorded label for a question number.
func (s *Session) Answer(number int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[number]
	return a, ok
}

// Answered returns how many questions have an answer.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Submit locks the answers. It can only happen once.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return ErrAlreadySubmitted
	}
	if len(s.Questions) == 0 {
		return ErrNoQuestions
	}
	s.submitted = true
	return nil
}

// Submitted reports whether the quiz has been submitted.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Score returns the number of correct answers and the question count.
// Unanswered questions count as wrong.
func (s *Session) Score() (correct, total int, err error) {
	results, err := s.Results()
	if err != nil {
		return 0, 0, err
	}
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	return correct, len(results), nil
}

// Results grades every question. Only valid after Submit.
func (s *Session) Results() ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.submitted {
		return nil, ErrNotSubmitted
	}
	results := make([]Result, len(s.Questions))
	for i, q := range s.Questions {
		chosen := s.answers[i+1]
		results[i] = Result{
			Number:   i + 1,
			Question: q,
			Chosen:   chosen,
			Correct:  chosen != "" && chosen == q.Correct,
		}
	}
	return results, nil
}

// Fallbacks counts questions that came from the local supplier after a remote failure.
func (s *Session) Fallbacks() int {
	n := 0
	for _, q := range s.Questions {
		if q.Source == SourceFallback {
			n++
		}
	}
	return n
}
