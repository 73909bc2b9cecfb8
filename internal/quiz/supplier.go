package quiz

import (
	"context"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

// Supplier builds one question for a bank entry.
type Supplier interface {
	BuildQuestion(ctx context.Context, level vocab.Level, index int, kind Kind) (Question, error)
	// Kinds lists the question kinds the supplier cycles through within a quiz.
	Kinds() []Kind
}
