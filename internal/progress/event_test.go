package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	t.Parallel()

	base := Event{
		RunID: UUIDToBytes(uuid.New()),
		TS:    time.Now(),
	}

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr string
	}{
		{
			name:   "run start ok",
			mutate: func(e *Event) { e.Stage = StageRunStart },
		},
		{
			name:   "probe done ok",
			mutate: func(e *Event) { e.Stage = StageProbeDone; e.URL = "https://x/y"; e.StatusClass = Status2xx },
		},
		{
			name:    "missing run id",
			mutate:  func(e *Event) { e.Stage = StageRunStart; e.RunID = [16]byte{} },
			wantErr: "run id",
		},
		{
			name:    "missing timestamp",
			mutate:  func(e *Event) { e.Stage = StageRunStart; e.TS = time.Time{} },
			wantErr: "timestamp",
		},
		{
			name:    "date done without date",
			mutate:  func(e *Event) { e.Stage = StageDateDone },
			wantErr: "requires date",
		},
		{
			name:    "probe done without status class",
			mutate:  func(e *Event) { e.Stage = StageProbeDone; e.URL = "https://x/y" },
			wantErr: "status class",
		},
		{
			name:    "unknown stage",
			mutate:  func(e *Event) { e.Stage = Stage("NOPE") },
			wantErr: "unknown stage",
		},
		{
			name:    "negative duration",
			mutate:  func(e *Event) { e.Stage = StageRunStart; e.Dur = -time.Second },
			wantErr: "duration",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			evt := base
			tt.mutate(&evt)
			err := evt.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Status2xx, ClassifyStatus(200))
	assert.Equal(t, Status3xx, ClassifyStatus(302))
	assert.Equal(t, Status4xx, ClassifyStatus(404))
	assert.Equal(t, Status5xx, ClassifyStatus(503))
	assert.Equal(t, StatusOther, ClassifyStatus(0))
	assert.Equal(t, StatusOther, ClassifyStatus(700))
}
