package quiz

import (
	"fmt"
	"strings"
)

// Kind selects which field of an entry a question asks about.
type Kind int

const (
	KindMeaning Kind = iota
	KindPronunciation
)

func (k Kind) String() string {
	switch k {
	case KindMeaning:
		return "meaning"
	case KindPronunciation:
		return "pronunciation"
	default:
		return "unknown"
	}
}

// Where a question came from.
const (
	SourceLocal    = "local"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Labels are the option labels in display order.
var Labels = []string{"A", "B", "C", "D"}

const (
	MinOptionsPerQuestion     = 2
	MaxOptionsPerQuestion     = 4
	DefaultOptionsPerQuestion = 4
)

// Option is one labeled multiple-choice answer.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single multiple-choice item.
type Question struct {
	Kind        Kind     `json:"kind"`
	Headword    string   `json:"headword"`
	Prompt      string   `json:"prompt"`
	Options     []Option `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
	Source      string   `json:"source"`
}

// OptionText returns the text behind a label.
func (q Question) OptionText(label string) (string, bool) {
	for _, o := range q.Options {
		if o.Label == label {
			return o.Text, true
		}
	}
	return "", false
}

// HasLabel reports whether label is one of the question's options.
func (q Question) HasLabel(label string) bool {
	_, ok := q.OptionText(label)
	return ok
}

// Validate checks labels are unique, the correct label appears exactly once and
// option texts are pairwise distinct.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question has empty prompt")
	}
	if len(q.Options) < MinOptionsPerQuestion {
		return fmt.Errorf("question has %d options, need at least %d", len(q.Options), MinOptionsPerQuestion)
	}

	labels := make(map[string]struct{}, len(q.Options))
	texts := make([]string, 0, len(q.Options))
	correct := 0
	for _, o := range q.Options {
		if _, dup := labels[o.Label]; dup {
			return fmt.Errorf("duplicate option label %q", o.Label)
		}
		labels[o.Label] = struct{}{}
		if strings.TrimSpace(o.Text) == "" {
			return fmt.Errorf("option %s has empty text", o.Label)
		}
		texts = append(texts, o.Text)
		if o.Label == q.Correct {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("correct label %q matches %d options", q.Correct, correct)
	}
	if !distinctTexts(texts) {
		return fmt.Errorf("option texts are not distinct")
	}
	return nil
}
