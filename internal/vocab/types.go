// Package vocab holds the read-only vocabulary bank the quiz core draws from.
package vocab

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
)

// DefaultLanguage is the meaning variant used when a requested language is missing.
const DefaultLanguage = "en"

// Level identifies a proficiency tier such as HSK1.
type Level string

func (l Level) String() string {
	return string(l)
}

// ParseLevel normalizes user input like "hsk2" or " HSK2 " into a Level.
func ParseLevel(s string) Level {
	return Level(strings.ToUpper(strings.TrimSpace(s)))
}

// Entry is a single vocabulary item.
type Entry struct {
	Headword      string            `yaml:"headword"`
	Pronunciation string            `yaml:"pronunciation"`
	Meanings      map[string]string `yaml:"meanings"`
}

// Meaning returns the meaning in the requested language. It tries the exact key,
// then the base language ("th-TH" -> "th"), then DefaultLanguage, then the first
// non-empty variant in key order.
func (e Entry) Meaning(lang string) string {
	if m := e.Meanings[lang]; m != "" {
		return m
	}
	if tag, err := language.Parse(lang); err == nil {
		base, _ := tag.Base()
		if m := e.Meanings[base.String()]; m != "" {
			return m
		}
	}
	if m := e.Meanings[DefaultLanguage]; m != "" {
		return m
	}
	keys := lo.Keys(e.Meanings)
	slices.Sort(keys)
	for _, k := range keys {
		if m := e.Meanings[k]; m != "" {
			return m
		}
	}
	return ""
}

// Languages returns the meaning variants present on the entry, sorted.
func (e Entry) Languages() []string {
	keys := lo.Filter(lo.Keys(e.Meanings), func(k string, _ int) bool {
		return e.Meanings[k] != ""
	})
	slices.Sort(keys)
	return keys
}
