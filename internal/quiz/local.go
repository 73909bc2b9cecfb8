package quiz

import (
	"context"
	"fmt"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

const defaultMaxCollisionAttempts = 10

// LocalSupplier builds questions from the bank alone. Given a fixed seed its
// output is deterministic.
type LocalSupplier struct {
	bank        *vocab.Bank
	rng         *Rand
	options     int
	lang        string
	maxAttempts int
}

// LocalOption configures a LocalSupplier.
type LocalOption func(*LocalSupplier)

// WithOptionsPerQuestion sets the option count, clamped to 2..4.
func WithOptionsPerQuestion(n int) LocalOption {
	return func(s *LocalSupplier) {
		s.options = min(max(n, MinOptionsPerQuestion), MaxOptionsPerQuestion)
	}
}

// WithLanguage selects the meaning variant shown in options.
func WithLanguage(lang string) LocalOption {
	return func(s *LocalSupplier) {
		s.lang = lang
	}
}

// WithMaxAttempts sets how many distractor samples are tried before giving up.
func WithMaxAttempts(n int) LocalOption {
	return func(s *LocalSupplier) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewLocalSupplier creates a bank-backed supplier.
func NewLocalSupplier(bank *vocab.Bank, rng *Rand, opts ...LocalOption) *LocalSupplier {
	s := &LocalSupplier{
		bank:        bank,
		rng:         rng,
		options:     DefaultOptionsPerQuestion,
		lang:        vocab.DefaultLanguage,
		maxAttempts: defaultMaxCollisionAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kinds alternates meaning and pronunciation questions.
func (s *LocalSupplier) Kinds() []Kind {
	return []Kind{KindMeaning, KindPronunciation}
}

// Language returns the meaning variant in use.
func (s *LocalSupplier) Language() string {
	return s.lang
}

// OptionsPerQuestion returns the configured option count.
func (s *LocalSupplier) OptionsPerQuestion() int {
	return s.options
}

// BuildQuestion asks for the meaning or pronunciation of entry index of level.
// Distractors come from the other entries of the same level.
func (s *LocalSupplier) BuildQuestion(_ context.Context, level vocab.Level, index int, kind Kind) (Question, error) {
	entries, err := s.bank.Entries(level)
	if err != nil {
		return Question{}, err
	}
	if len(entries) < vocab.MinEntriesPerLevel {
		return Question{}, &InsufficientDataError{Level: level, What: "entries for a question", Need: vocab.MinEntriesPerLevel, Have: len(entries)}
	}
	if index < 0 || index >= len(entries) {
		return Question{}, fmt.Errorf("entry index %d out of range for level %s", index, level)
	}

	target := entries[index]
	correct := s.valueOf(target, kind)

	pool := make([]int, 0, len(entries)-1)
	for i := range entries {
		if i != index {
			pool = append(pool, i)
		}
	}
	k := min(s.options-1, len(pool))

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		texts := []string{correct}
		for _, i := range s.rng.Sample(pool, k) {
			texts = append(texts, s.valueOf(entries[i], kind))
		}
		if !distinctTexts(texts) {
			continue
		}
		return s.assemble(target, kind, texts), nil
	}

	return Question{}, &DistractorCollisionError{Level: level, Headword: target.Headword, Kind: kind, Attempts: s.maxAttempts}
}

// assemble shuffles texts (texts[0] is the correct one) and labels them.
func (s *LocalSupplier) assemble(target vocab.Entry, kind Kind, texts []string) Question {
	correct := texts[0]
	s.rng.Shuffle(len(texts), func(i, j int) {
		texts[i], texts[j] = texts[j], texts[i]
	})

	q := Question{
		Kind:        kind,
		Headword:    target.Headword,
		Prompt:      fmt.Sprintf("%s — %s", target.Headword, kind),
		Options:     make([]Option, len(texts)),
		Explanation: explanation(target, s.lang),
		Source:      SourceLocal,
	}
	for i, text := range texts {
		q.Options[i] = Option{Label: Labels[i], Text: text}
		if text == correct {
			q.Correct = Labels[i]
		}
	}
	return q
}

func (s *LocalSupplier) valueOf(e vocab.Entry, kind Kind) string {
	if kind == KindPronunciation {
		return e.Pronunciation
	}
	return e.Meaning(s.lang)
}

func explanation(e vocab.Entry, lang string) string {
	return fmt.Sprintf("%s (%s) → %s", e.Headword, e.Pronunciation, e.Meaning(lang))
}
