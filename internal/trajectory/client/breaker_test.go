package client

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterFourthConsecutiveFailure(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)
	defer b.Dispose()

	for i := 0; i < 3; i++ {
		b.RecordFailure()
		assert.True(t, b.Closed(), "breaker must stay closed through failure %d", i+1)
	}

	b.RecordFailure() // 4th
	assert.False(t, b.Closed())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFromAnyState(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)
	defer b.Dispose()

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	require.False(t, b.Closed())

	b.RecordSuccess()
	assert.True(t, b.Closed())
	assert.Zero(t, b.State().Failures)
	assert.True(t, b.Allow())
}

func TestBreaker_CooldownPermitsSingleProbe(t *testing.T) {
	b := NewCircuitBreaker(3, 20*time.Millisecond)
	defer b.Dispose()

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	require.False(t, b.Allow())

	time.Sleep(50 * time.Millisecond)

	assert.True(t, b.Allow(), "cooldown elapsed, one probe allowed")
	assert.False(t, b.Allow(), "second call while probing is rejected")
}

func TestBreaker_FailedProbeRestartsCooldown(t *testing.T) {
	b := NewCircuitBreaker(3, 20*time.Millisecond)
	defer b.Dispose()

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	time.Sleep(50 * time.Millisecond)
	require.True(t, b.Allow())

	b.RecordFailure() // probe failed, re-open
	assert.False(t, b.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, b.Allow(), "new cooldown elapses and permits another probe")
}

func TestBreaker_StateSnapshot(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)
	defer b.Dispose()

	st := b.State()
	assert.Zero(t, st.Failures)
	assert.False(t, st.Open)
	assert.Nil(t, st.LastFailureAt)

	b.RecordFailure()
	st = b.State()
	assert.Equal(t, 1, st.Failures)
	require.NotNil(t, st.LastFailureAt)
	assert.WithinDuration(t, time.Now().UTC(), *st.LastFailureAt, time.Second)
}

func TestBreaker_ConcurrentUpdatesNotLost(t *testing.T) {
	b := NewCircuitBreaker(1000000, time.Minute)
	defer b.Dispose()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.RecordFailure()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5000, b.State().Failures)
}
