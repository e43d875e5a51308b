package scan

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateCounters(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	started := time.Date(2023, 6, 15, 8, 0, 0, 0, time.UTC)
	st := NewRunState(id, started)

	assert.Equal(t, id, st.ID())
	assert.Equal(t, started, st.StartedAt())

	st.MarkProbe()
	st.MarkProbe()
	st.MarkDateDone()
	st.AddValid("https://example.com/a.opt")

	assert.Equal(t, int64(2), st.Probes())
	assert.Equal(t, int64(1), st.DatesDone())
	assert.Equal(t, int64(1), st.Hits())
	assert.Equal(t, []string{"https://example.com/a.opt"}, st.ValidLinks())
}

func TestRunStateValidLinksReturnsCopy(t *testing.T) {
	t.Parallel()

	st := NewRunState(uuid.New(), time.Now())
	st.AddValid("https://example.com/a.opt")

	links := st.ValidLinks()
	links[0] = "mutated"

	assert.Equal(t, []string{"https://example.com/a.opt"}, st.ValidLinks())
}

func TestRunStateStopIsMonotonic(t *testing.T) {
	t.Parallel()

	st := NewRunState(uuid.New(), time.Now())
	require.False(t, st.Stopped())

	st.Stop()
	st.Stop()
	assert.True(t, st.Stopped())
}

func TestRunStateCurrentDate(t *testing.T) {
	t.Parallel()

	st := NewRunState(uuid.New(), time.Now())
	assert.Empty(t, st.CurrentDate())

	st.SetCurrentDate("20230615")
	assert.Equal(t, "20230615", st.CurrentDate())
}

func TestRunStateConcurrentUpdates(t *testing.T) {
	t.Parallel()

	st := NewRunState(uuid.New(), time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				st.MarkProbe()
				if j%10 == 0 {
					st.AddValid(fmt.Sprintf("https://example.com/%d-%d.opt", n, j))
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(800), st.Probes())
	assert.Equal(t, int64(80), st.Hits())
	assert.Len(t, st.ValidLinks(), 80)
}
