package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 5 * time.Minute

	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	t.Run("no prior action", func(t *testing.T) {
		assert.True(t, Allow(nil, now, cooldown))
	})

	t.Run("inside cooldown", func(t *testing.T) {
		assert.False(t, Allow(ago(4*time.Minute), now, cooldown))
	})

	t.Run("exactly at cooldown", func(t *testing.T) {
		assert.False(t, Allow(ago(5*time.Minute), now, cooldown))
	})

	t.Run("past cooldown", func(t *testing.T) {
		assert.True(t, Allow(ago(6*time.Minute), now, cooldown))
	})

	t.Run("last action in the future counts the same", func(t *testing.T) {
		// Clock corrections can leave the stored timestamp ahead of now.
		assert.False(t, Allow(ago(-4*time.Minute), now, cooldown))
		assert.True(t, Allow(ago(-6*time.Minute), now, cooldown))
	})
}
