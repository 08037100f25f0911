package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestManualClock_StandsStill(t *testing.T) {
	clock := NewManualClock(start)
	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(start)

	clock.Advance(12 * time.Hour)
	assert.Equal(t, start.Add(12*time.Hour), clock.Now())

	clock.Advance(-time.Hour)
	assert.Equal(t, start.Add(11*time.Hour), clock.Now())
}

func TestManualClock_SetConvertsToUTC(t *testing.T) {
	clock := NewManualClock(start)
	loc := time.FixedZone("UTC+2", 2*60*60)

	clock.Set(time.Date(2024, 3, 2, 11, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), clock.Now())
	assert.Equal(t, time.UTC, clock.Now().Location())
}

func TestManualClock_ConcurrentAdvance(t *testing.T) {
	clock := NewManualClock(start)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(100*time.Second), clock.Now())
}
