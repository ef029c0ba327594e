package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Trigger detects celebration keywords in posted messages with a
// case-insensitive substring match, backed by an Aho-Corasick automaton
// so the word list can grow without rescanning cost.
type Trigger struct {
	matcher *goahocorasick.Machine
}

// NewTrigger builds the automaton over the lowercased keyword list.
func NewTrigger(words []string) (Trigger, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		patterns = append(patterns, foldRunes([]rune(word)))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Trigger{}, err
	}
	return Trigger{matcher: m}, nil
}

// Match reports whether the text contains any trigger keyword.
func (t Trigger) Match(text string) bool {
	if text == "" {
		return false
	}
	spans := t.matcher.MultiPatternSearch(foldRunes([]rune(text)), true)
	return len(spans) > 0
}

func foldRunes(input []rune) []rune {
	out := make([]rune, len(input))
	for i, r := range input {
		out[i] = unicode.ToLower(r)
	}
	return out
}
