package clock

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	at := time.Date(2025, 12, 1, 18, 30, 0, 0, time.FixedZone("EAT", 3*3600))
	c := NewFixed(at)

	assert.True(t, c.Now().Equal(at))
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Today(c))
}

func TestSystem(t *testing.T) {
	before := time.Now()
	now := NewSystem().Now()
	assert.False(t, now.Before(before.Add(-time.Second)))
	assert.Equal(t, time.UTC, now.Location())
}

func TestInLocationToday(t *testing.T) {
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	assert.NoError(t, err)

	// 22:30 UTC is already 01:30 the next morning in Nairobi
	late := NewFixed(time.Date(2025, 11, 30, 22, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), Today(late))

	zoned := InLocation(late, nairobi)
	assert.True(t, zoned.Now().Equal(late.Now()))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Today(zoned))

	assert.Equal(t, late, InLocation(late, nil))
}
