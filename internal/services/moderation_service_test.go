// internal/services/moderation_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopListModerator(t *testing.T) {
	m := NewStopListModerator([]string{"scam", "Запрещено", " spaced "})

	assert.True(t, m.Moderate("Selling a bike, lightly used"))
	assert.False(t, m.Moderate("This is not a SCAM, honest"))
	assert.False(t, m.Moderate("Тут запрещено, но вдруг"))
	assert.False(t, m.Moderate("definitely spaced out"))

	// Whole words only: a stop word inside another word does not match.
	assert.True(t, m.Moderate("scampering squirrels for sale"))
}

func TestStopListModeratorEmptyList(t *testing.T) {
	m := NewStopListModerator(nil)
	assert.True(t, m.Moderate("anything goes"))
}

func TestModeratorFunc(t *testing.T) {
	calls := 0
	var m Moderator = ModeratorFunc(func(text string) bool {
		calls++
		return text == "ok"
	})

	assert.True(t, m.Moderate("ok"))
	assert.False(t, m.Moderate("nope"))
	assert.Equal(t, 2, calls)
}
