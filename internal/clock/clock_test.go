package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_SetAndAdvance(t *testing.T) {
	start := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	f := NewFake(start)
	assert.Equal(t, start, f.Now())

	f.Advance(14*time.Minute + 59*time.Second)
	assert.Equal(t, start.Add(899*time.Second), f.Now())

	loc := time.FixedZone("CEST", 2*3600)
	f.Set(time.Date(2024, 7, 1, 12, 0, 0, 0, loc))
	assert.Equal(t, time.UTC, f.Now().Location())
	assert.Equal(t, start.Add(0), f.Now())
}

func TestReal_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Real().Now().Location())
}
