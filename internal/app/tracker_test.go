package app

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joacominatel/minalite/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Register(t *testing.T) {
	t.Parallel()

	tr := NewTracker(config.Stats{})
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	ev := tr.RegisterSuccess("/a.db")
	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, fixed, ev.Timestamp)
	assert.Equal(t, EventSuccess, ev.Type)

	tr.RegisterFailure("/b.db")
	tr.RegisterSuccess("/c.db")

	stats := tr.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)

	recent := tr.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "/c.db", recent[0].Path)
	assert.Equal(t, "/b.db", recent[1].Path)

	assert.Len(t, tr.Recent(10), 3)
	assert.Empty(t, tr.Recent(0))
}

func TestTracker_HistoryIsBounded(t *testing.T) {
	t.Parallel()

	tr := NewTracker(config.Stats{})
	for i := 0; i < maxHistory+10; i++ {
		tr.RegisterSuccess(fmt.Sprintf("/db%d", i))
	}

	stats := tr.Stats()
	assert.Equal(t, maxHistory+10, stats.Total)
	require.Len(t, stats.History, maxHistory)
	assert.Equal(t, "/db10", stats.History[0].Path)
}

func TestTracker_SnapshotIsIsolated(t *testing.T) {
	t.Parallel()

	tr := NewTracker(config.Stats{})
	tr.RegisterSuccess("/a.db")

	snap := tr.Stats()
	snap.History[0].Path = "mutated"
	assert.Equal(t, "/a.db", tr.Stats().History[0].Path)
}

func TestTracker_Concurrent(t *testing.T) {
	t.Parallel()

	tr := NewTracker(config.Stats{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tr.RegisterSuccess("/x.db")
			} else {
				tr.RegisterFailure("/x.db")
			}
			_ = tr.Recent(5)
		}(i)
	}
	wg.Wait()

	stats := tr.Stats()
	assert.Equal(t, 20, stats.Total)
	assert.Equal(t, 10, stats.Successful)
	assert.Equal(t, 10, stats.Failed)

	tr.Reset()
	assert.Equal(t, config.Stats{}, tr.Stats())
}
