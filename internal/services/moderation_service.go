// internal/services/moderation_service.go
package services

import (
	"strings"
)

// Moderator decides whether listing content is acceptable. Implementations
// may be slow (remote classifiers); callers dispatch them out-of-band and
// must not let a failure here break listing creation.
type Moderator interface {
	Moderate(text string) bool
}

// StopListModerator rejects content containing any configured stop word.
// Matching is case-insensitive on whole words.
type StopListModerator struct {
	stopWords map[string]struct{}
}

func NewStopListModerator(words []string) *StopListModerator {
	m := &StopListModerator{stopWords: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m.stopWords[w] = struct{}{}
		}
	}
	return m
}

func (m *StopListModerator) Moderate(text string) bool {
	if len(m.stopWords) == 0 {
		return true
	}

	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	}) {
		if _, banned := m.stopWords[word]; banned {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я', r == 'ё':
		return true
	default:
		return false
	}
}

// ModeratorFunc adapts a function to the Moderator interface.
type ModeratorFunc func(text string) bool

func (f ModeratorFunc) Moderate(text string) bool { return f(text) }
