package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_StartsAtEpoch(t *testing.T) {
	c := NewStepClock()
	assert.Equal(t, DefaultEpoch, c.Now())
}

func TestStepClock_Advances(t *testing.T) {
	c := NewStepClock()
	first := c.Now()
	second := c.Now()
	assert.Equal(t, time.Second, second.Sub(first))
}

func TestStepClock_Reset(t *testing.T) {
	c := NewStepClock()
	c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, DefaultEpoch, c.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	c := NewStepClock()

	const goroutines = 50
	seen := make(chan time.Time, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines)
}
