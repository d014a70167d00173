package memory

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-fitness-be/internal/repository"
	"ai-fitness-be/pkg/pose"
	"ai-fitness-be/pkg/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGetRemove(t *testing.T) {
	r := NewSessionRepository(0, nil)

	s, err := r.Create("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID())
	assert.Equal(t, 1, r.Count())

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, err = r.Create("a")
	assert.ErrorIs(t, err, repository.ErrSessionExists)

	removed, ok := r.Remove("a")
	require.True(t, ok)
	assert.Same(t, s, removed)

	_, ok = r.Get("a")
	assert.False(t, ok)
	_, ok = r.Remove("a")
	assert.False(t, ok, "second remove is a no-op")
	assert.Zero(t, r.Count())
}

func TestSessionsAreIndependent(t *testing.T) {
	r := NewSessionRepository(0, nil)
	a, err := r.Create("a")
	require.NoError(t, err)
	b, err := r.Create("b")
	require.NoError(t, err)

	a.SetLimbSide(pose.LimbRight)
	a.StartCalibrationMin()
	a.IngestAngle(20, workout.HintMin)
	_, err = a.CompleteCalibrationMin()
	require.NoError(t, err)

	snapB := b.Snapshot()
	assert.Equal(t, pose.LimbLeft, snapB.LimbSide)
	assert.Nil(t, snapB.MinAngle)
	assert.Equal(t, workout.ModeIdle, snapB.Mode)
}

func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	r := NewSessionRepository(0, nil)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Create("same"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestConcurrentRemoveOnlyOneWins(t *testing.T) {
	r := NewSessionRepository(0, nil)
	for i := 0; i < 10; i++ {
		_, err := r.Create(fmt.Sprintf("s-%d", i))
		require.NoError(t, err)
	}

	var removed int32
	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, ok := r.Remove(id); ok {
					atomic.AddInt32(&removed, 1)
				}
			}(fmt.Sprintf("s-%d", i))
		}
	}
	wg.Wait()
	assert.Equal(t, int32(10), removed)
	assert.Zero(t, r.Count())
}

func TestExpiredSessionsAreReported(t *testing.T) {
	expired := make(chan string, 1)
	r := NewSessionRepository(50*time.Millisecond, func(s *workout.Session) {
		expired <- s.ID()
	})

	_, err := r.Create("stale")
	require.NoError(t, err)
	_, err = r.Create("closed")
	require.NoError(t, err)
	_, ok := r.Remove("closed")
	require.True(t, ok)

	select {
	case id := <-expired:
		assert.Equal(t, "stale", id)
	case <-time.After(3 * time.Second):
		t.Fatal("expired session was not reported")
	}
}

func TestExpiryAndRemoveTearDownOnce(t *testing.T) {
	tests := []struct {
		name        string
		expireFirst bool
	}{
		{"expired before remove", true},
		{"removed before expiry", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expired int32
			r := NewSessionRepository(0, func(*workout.Session) {
				atomic.AddInt32(&expired, 1)
			})
			s, err := r.Create("a")
			require.NoError(t, err)

			// evicted is what the janitor calls; invoking it directly stands
			// in for a purge racing the connection teardown.
			var removed bool
			if tt.expireFirst {
				r.evicted("a", s)
				_, removed = r.Remove("a")
			} else {
				_, removed = r.Remove("a")
				r.evicted("a", s)
			}

			ended := int(atomic.LoadInt32(&expired))
			if removed {
				ended++
			}
			assert.Equal(t, 1, ended, "session ends exactly once")
			assert.Equal(t, !tt.expireFirst, removed)
			assert.Zero(t, r.Count())
		})
	}
}
