package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("20230615")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), d)

	leap, err := ParseDate("20240229")
	require.NoError(t, err)
	assert.Equal(t, "20240229", FormatDate(leap))

	for _, bad := range []string{"", "20230615", "202306155", "abcdefgh", "20230230", "20230229", "20231301"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseTimeCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "000000", want: 0},
		{in: "000001", want: 1},
		{in: "120000", want: 43200},
		{in: "235959", want: 86399},
		{in: "", wantErr: true},
		{in: "12345", wantErr: true},
		{in: "1234567", wantErr: true},
		{in: "12a456", wantErr: true},
		{in: "240000", wantErr: true},
		{in: "126000", wantErr: true},
		{in: "120060", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeCode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFormatTimeCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "000000", FormatTimeCode(0))
	assert.Equal(t, "120000", FormatTimeCode(43200))
	assert.Equal(t, "235959", FormatTimeCode(86399))

	for _, sec := range []int{0, 59, 60, 3599, 3600, 43200, 86399} {
		back, err := ParseTimeCode(FormatTimeCode(sec))
		require.NoError(t, err)
		assert.Equal(t, sec, back)
	}
}

func TestNewDateRange(t *testing.T) {
	t.Parallel()

	r, err := NewDateRange(mustDate(t, "20230601"), mustDate(t, "20230610"))
	require.NoError(t, err)
	assert.Equal(t, 10, r.Days())

	single, err := NewDateRange(mustDate(t, "20230601"), mustDate(t, "20230601"))
	require.NoError(t, err)
	assert.Equal(t, 1, single.Days())

	_, err = NewDateRange(mustDate(t, "20230610"), mustDate(t, "20230601"))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestNewDateRangeNormalizesToMidnight(t *testing.T) {
	t.Parallel()

	noon := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)
	r, err := NewDateRange(noon, noon.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), r.Start())
	assert.Equal(t, 2, r.Days())
}

func TestNewTimeWindow(t *testing.T) {
	t.Parallel()

	w, err := NewTimeWindow(0, 86399)
	require.NoError(t, err)
	assert.Equal(t, 86400, w.Len())

	second, err := NewTimeWindow(43200, 43200)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Len())

	for _, tt := range []struct{ start, end int }{
		{start: -1, end: 10},
		{start: 0, end: 86400},
		{start: 10, end: 9},
	} {
		_, err := NewTimeWindow(tt.start, tt.end)
		assert.ErrorIs(t, err, ErrInvalidRange, "window %d..%d", tt.start, tt.end)
	}
}

func TestGeneratorDates(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, "pm", "20230601", "20230603", 0, 4)

	dates := gen.Dates()
	require.Len(t, dates, 3)
	assert.Equal(t, "20230601", FormatDate(dates[0]))
	assert.Equal(t, "20230602", FormatDate(dates[1]))
	assert.Equal(t, "20230603", FormatDate(dates[2]))
}

func TestGeneratorDatesSpanMonthBoundary(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, "pm", "20230630", "20230702", 0, 0)

	var got []string
	for _, d := range gen.Dates() {
		got = append(got, FormatDate(d))
	}
	assert.Equal(t, []string{"20230630", "20230701", "20230702"}, got)
}

func TestGeneratorDatesFrom(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, "pm", "20230601", "20230605", 0, 0)

	from := gen.DatesFrom(mustDate(t, "20230603"))
	require.Len(t, from, 3)
	assert.Equal(t, "20230603", FormatDate(from[0]))

	all := gen.DatesFrom(mustDate(t, "20230101"))
	assert.Len(t, all, 5)

	none := gen.DatesFrom(mustDate(t, "20230701"))
	assert.Empty(t, none)
}

func TestGeneratorTargetsFor(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, "pm", "20230615", "20230615", 43200, 43204)

	targets := gen.TargetsFor(mustDate(t, "20230615"))
	require.Len(t, targets, 5)

	seen := make(map[string]struct{}, len(targets))
	for _, tgt := range targets {
		assert.Equal(t, "pm_20230615", tgt.FileHead)
		seen[tgt.TimeCode] = struct{}{}
	}
	assert.Len(t, seen, 5, "time codes must be unique")
	assert.Equal(t, "120000", targets[0].TimeCode)
	assert.Equal(t, "120004", targets[4].TimeCode)
}

func TestGeneratorCount(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, "pm", "20230601", "20230603", 10, 19)
	assert.Equal(t, 10, gen.TargetsPerDate())
	assert.Equal(t, 30, gen.Count())
}

func newTestGenerator(t *testing.T, base, start, end string, from, to int) *Generator {
	t.Helper()
	dates, err := NewDateRange(mustDate(t, start), mustDate(t, end))
	require.NoError(t, err)
	window, err := NewTimeWindow(from, to)
	require.NoError(t, err)
	return NewGenerator(base, dates, window)
}
