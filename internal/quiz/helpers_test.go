package quiz_test

import (
	"fmt"
	"testing"

	"github.com/hanyumate/hanyumate/internal/quiz"
	"github.com/hanyumate/hanyumate/internal/vocab"
)

const testLevel vocab.Level = "HSK1"

// newBank builds a one-level bank of n entries with distinct fields.
func newBank(t *testing.T, n int) *vocab.Bank {
	t.Helper()
	entries := make([]vocab.Entry, n)
	for i := range entries {
		entries[i] = vocab.Entry{
			Headword:      fmt.Sprintf("字%d", i),
			Pronunciation: fmt.Sprintf("zi%d", i),
			Meanings:      map[string]string{"en": fmt.Sprintf("meaning %d", i), "fr": fmt.Sprintf("sens %d", i)},
		}
	}
	return mustBank(t, entries)
}

func mustBank(t *testing.T, entries []vocab.Entry) *vocab.Bank {
	t.Helper()
	bank, err := vocab.NewBank([]vocab.LevelEntries{{Level: testLevel, Entries: entries}})
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}
	return bank
}

func checkQuestion(t *testing.T, q quiz.Question, wantOptions int) {
	t.Helper()
	if err := q.Validate(); err != nil {
		t.Fatalf("invalid question %+v: %v", q, err)
	}
	if len(q.Options) != wantOptions {
		t.Errorf("len(Options) = %d, want %d", len(q.Options), wantOptions)
	}
	for i, o := range q.Options {
		if o.Label != quiz.Labels[i] {
			t.Errorf("option %d label = %q, want %q", i, o.Label, quiz.Labels[i])
		}
	}
}
