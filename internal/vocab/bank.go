package vocab

import (
	"errors"
	"fmt"
	"strings"
)

// MinEntriesPerLevel is the smallest level that can produce a four-option question.
const MinEntriesPerLevel = 4

// ErrConfiguration is the sentinel matched by every ConfigurationError.
var ErrConfiguration = errors.New("vocabulary configuration error")

// ConfigurationError reports a bank that cannot serve quizzes. It is fatal at startup.
type ConfigurationError struct {
	Level  Level
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Level == "" {
		return fmt.Sprintf("vocabulary: %s", e.Reason)
	}
	return fmt.Sprintf("vocabulary level %s: %s", e.Level, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// LevelEntries is the input form for one level of a bank.
type LevelEntries struct {
	Level   Level
	Entries []Entry
}

// Bank is an immutable level -> entries table shared by all sessions.
type Bank struct {
	levels  []Level
	entries map[Level][]Entry
}

// NewBank validates and copies the given levels. Level order is preserved.
func NewBank(levels []LevelEntries) (*Bank, error) {
	if len(levels) == 0 {
		return nil, &ConfigurationError{Reason: "no levels defined"}
	}

	b := &Bank{
		levels:  make([]Level, 0, len(levels)),
		entries: make(map[Level][]Entry, len(levels)),
	}
	for _, le := range levels {
		if le.Level == "" {
			return nil, &ConfigurationError{Reason: "level with empty name"}
		}
		if _, dup := b.entries[le.Level]; dup {
			return nil, &ConfigurationError{Level: le.Level, Reason: "defined more than once"}
		}
		if len(le.Entries) < MinEntriesPerLevel {
			return nil, &ConfigurationError{
				Level:  le.Level,
				Reason: fmt.Sprintf("has %d entries, need at least %d", len(le.Entries), MinEntriesPerLevel),
			}
		}
		entries := make([]Entry, len(le.Entries))
		for i, e := range le.Entries {
			if err := checkEntry(e); err != nil {
				return nil, &ConfigurationError{Level: le.Level, Reason: fmt.Sprintf("entry %d: %v", i+1, err)}
			}
			entries[i] = copyEntry(e)
		}
		b.levels = append(b.levels, le.Level)
		b.entries[le.Level] = entries
	}
	return b, nil
}

// Levels returns the levels in their defined order.
func (b *Bank) Levels() []Level {
	return append([]Level(nil), b.levels...)
}

// HasLevel reports whether the level exists.
func (b *Bank) HasLevel(level Level) bool {
	_, ok := b.entries[level]
	return ok
}

// Entries returns the level's entries. The returned slice must not be modified.
func (b *Bank) Entries(level Level) ([]Entry, error) {
	entries, ok := b.entries[level]
	if !ok {
		return nil, &ConfigurationError{Level: level, Reason: "unknown level"}
	}
	return entries, nil
}

// Size returns the number of entries in a level, or 0 for an unknown level.
func (b *Bank) Size(level Level) int {
	return len(b.entries[level])
}

// Entry returns one entry by index.
func (b *Bank) Entry(level Level, index int) (Entry, error) {
	entries, err := b.Entries(level)
	if err != nil {
		return Entry{}, err
	}
	if index < 0 || index >= len(entries) {
		return Entry{}, fmt.Errorf("entry index %d out of range for level %s (%d entries)", index, level, len(entries))
	}
	return entries[index], nil
}

func checkEntry(e Entry) error {
	switch {
	case strings.TrimSpace(e.Headword) == "":
		return errors.New("headword is empty")
	case strings.TrimSpace(e.Pronunciation) == "":
		return errors.New("pronunciation is empty")
	case len(e.Languages()) == 0:
		return errors.New("no meaning")
	}
	return nil
}

func copyEntry(e Entry) Entry {
	meanings := make(map[string]string, len(e.Meanings))
	for k, v := range e.Meanings {
		meanings[k] = v
	}
	e.Meanings = meanings
	return e
}
