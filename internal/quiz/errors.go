// Package quiz builds multiple-choice vocabulary quizzes and grades them.
package quiz

import (
	"errors"
	"fmt"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

// ConfigurationError is raised by the vocabulary bank; re-exported for callers of this package.
type ConfigurationError = vocab.ConfigurationError

var (
	ErrConfiguration       = vocab.ErrConfiguration
	ErrInsufficientData    = errors.New("insufficient data")
	ErrDistractorCollision = errors.New("distractor collision")
	ErrRemoteSupplier      = errors.New("remote supplier failed")

	ErrNotSubmitted     = errors.New("quiz not submitted")
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	ErrNoQuestions      = errors.New("quiz has no questions")
)

// InsufficientDataError means a draw or sampling step could not find enough
// distinct items. It indicates a broken invariant, not a user mistake.
type InsufficientDataError struct {
	Level vocab.Level
	What  string
	Need  int
	Have  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("level %s: need %d %s, have %d", e.Level, e.Need, e.What, e.Have)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// DistractorCollisionError means no set of distinct option texts was found
// within the retry budget.
type DistractorCollisionError struct {
	Level    vocab.Level
	Headword string
	Kind     Kind
	Attempts int
}

func (e *DistractorCollisionError) Error() string {
	return fmt.Sprintf("level %s: no distinct %s options for %q after %d attempts", e.Level, e.Kind, e.Headword, e.Attempts)
}

func (e *DistractorCollisionError) Unwrap() error {
	return ErrDistractorCollision
}

// RemoteSupplierError wraps any failure talking to or parsing the remote generator.
type RemoteSupplierError struct {
	Op  string
	Err error
}

func (e *RemoteSupplierError) Error() string {
	return fmt.Sprintf("remote supplier %s: %v", e.Op, e.Err)
}

func (e *RemoteSupplierError) Unwrap() []error {
	return []error{ErrRemoteSupplier, e.Err}
}
