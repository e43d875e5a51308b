package scan

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/WakiJi/wmscan/internal/progress"
)

type proberFunc func(ctx context.Context, url string) Outcome

func (f proberFunc) Check(ctx context.Context, url string) Outcome { return f(ctx, url) }

type captureEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (c *captureEmitter) Emit(evt progress.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *captureEmitter) all() []progress.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]progress.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *captureEmitter) byStage(stage progress.Stage) []progress.Event {
	var out []progress.Event
	for _, evt := range c.all() {
		if evt.Stage == stage {
			out = append(out, evt)
		}
	}
	return out
}

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2023, 6, 15, 8, 0, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

var testEndpoint = Endpoint{Domain: "media.example.com", Path: "/archive/opt/"}

func TestPoolProbesEveryTarget(t *testing.T) {
	t.Parallel()

	// Even seconds resolve, odd seconds come back 404.
	prober := proberFunc(func(_ context.Context, url string) Outcome {
		code := strings.TrimSuffix(url, "_0.opt")
		if n, _ := strconv.Atoi(code[len(code)-1:]); n%2 == 0 {
			return Success(url, 200)
		}
		return HTTPFailure(404)
	})

	gen := newTestGenerator(t, "pm", "20230615", "20230615", 43200, 43209)
	st := NewRunState(uuid.New(), time.Now())
	pool := NewPool(4, prober, st, nil, newStubClock(), zap.NewNop())

	results := pool.Run(context.Background(), testEndpoint, "20230615", gen.TargetsFor(mustDate(t, "20230615")))
	require.Len(t, results, 10)

	hits := make(map[string]struct{})
	for _, res := range results {
		if res.Outcome.Valid() {
			hits[res.Outcome.URL] = struct{}{}
		}
	}
	want := map[string]struct{}{
		"https://media.example.com/archive/opt/pm_20230615120000_0.opt": {},
		"https://media.example.com/archive/opt/pm_20230615120002_0.opt": {},
		"https://media.example.com/archive/opt/pm_20230615120004_0.opt": {},
		"https://media.example.com/archive/opt/pm_20230615120006_0.opt": {},
		"https://media.example.com/archive/opt/pm_20230615120008_0.opt": {},
	}
	assert.Equal(t, want, hits)
	assert.Equal(t, int64(10), st.Probes())
}

func TestPoolStopDropsRemainder(t *testing.T) {
	t.Parallel()

	st := NewRunState(uuid.New(), time.Now())
	// The first probe raises the stop flag before returning, so the feeder
	// submits at most one more target and drops the rest.
	prober := proberFunc(func(_ context.Context, url string) Outcome {
		st.Stop()
		return Success(url, 200)
	})

	gen := newTestGenerator(t, "pm", "20230615", "20230615", 0, 49)
	pool := NewPool(1, prober, st, nil, newStubClock(), zap.NewNop())

	results := pool.Run(context.Background(), testEndpoint, "20230615", gen.TargetsFor(mustDate(t, "20230615")))
	require.Len(t, results, 2)

	var probed, skipped int
	for _, res := range results {
		switch res.Outcome.Kind {
		case OutcomeSkipped:
			skipped++
		default:
			probed++
		}
	}
	assert.Equal(t, 1, probed)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, int64(1), st.Probes())
}

func TestPoolEmitsProbeEvents(t *testing.T) {
	t.Parallel()

	prober := proberFunc(func(_ context.Context, url string) Outcome {
		return HTTPFailure(404)
	})

	gen := newTestGenerator(t, "pm", "20230615", "20230615", 0, 4)
	st := NewRunState(uuid.New(), time.Now())
	emitter := &captureEmitter{}
	pool := NewPool(2, prober, st, emitter, newStubClock(), zap.NewNop())

	pool.Run(context.Background(), testEndpoint, "20230615", gen.TargetsFor(mustDate(t, "20230615")))

	events := emitter.all()
	require.Len(t, events, 5)
	for _, evt := range events {
		require.NoError(t, evt.Validate())
		assert.Equal(t, progress.StageProbeDone, evt.Stage)
		assert.Equal(t, "20230615", evt.Date)
		assert.Equal(t, progress.Status4xx, evt.StatusClass)
		assert.False(t, evt.Valid)
	}
}

func TestPoolClassifiesNetworkFailures(t *testing.T) {
	t.Parallel()

	prober := proberFunc(func(_ context.Context, url string) Outcome {
		return NetworkFailure(context.DeadlineExceeded)
	})

	gen := newTestGenerator(t, "pm", "20230615", "20230615", 0, 0)
	st := NewRunState(uuid.New(), time.Now())
	emitter := &captureEmitter{}
	pool := NewPool(1, prober, st, emitter, newStubClock(), zap.NewNop())

	pool.Run(context.Background(), testEndpoint, "20230615", gen.TargetsFor(mustDate(t, "20230615")))

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, progress.StatusOther, events[0].StatusClass)
	assert.Equal(t, context.DeadlineExceeded.Error(), events[0].Note)
}
