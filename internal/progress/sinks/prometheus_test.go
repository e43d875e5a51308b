package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/WakiJi/wmscan/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	batch := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
		{
			RunID:       runID,
			TS:          time.Now(),
			Stage:       progress.StageProbeDone,
			Date:        "20230101",
			URL:         "https://example.com/a_20230101000000_0.opt",
			StatusCode:  200,
			StatusClass: progress.Status2xx,
			Valid:       true,
			Dur:         120 * time.Millisecond,
			Remaining:   90 * time.Second,
		},
		{
			RunID:       runID,
			TS:          time.Now(),
			Stage:       progress.StageProbeDone,
			Date:        "20230101",
			URL:         "https://example.com/a_20230101000001_0.opt",
			StatusCode:  404,
			StatusClass: progress.Status4xx,
			Dur:         80 * time.Millisecond,
		},
		{RunID: runID, TS: time.Now(), Stage: progress.StageDateDone, Date: "20230101", Probes: 2, Hits: 1},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runActive))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.probesTotal.WithLabelValues(string(progress.Status2xx))))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.probesTotal.WithLabelValues(string(progress.Status4xx))))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.validLinks))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.datesDone))
	require.InDelta(t, 90.0, testutil.ToFloat64(sink.budgetLeft), 1e-9)
	require.Equal(t, 2, testutil.CollectAndCount(sink.probeDuration, "wmscan_probe_duration_seconds"))

	done := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunDone, Dur: time.Minute, Probes: 2, Hits: 1},
	}
	require.NoError(t, sink.Consume(context.Background(), done))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runActive))
}
