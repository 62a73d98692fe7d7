package timeofday

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readingAt(id string, t time.Time) health.Reading {
	return health.Reading{
		ID:         id,
		MetricType: health.MetricHeartRate,
		Value:      health.Float(70),
		RecordedAt: t,
	}
}

func TestPeriodOf_HourBoundaries(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		hour     int
		minute   int
		expected Period
	}{
		{0, 0, Evening},
		{4, 59, Evening},
		{5, 0, Morning},
		{11, 59, Morning},
		{12, 0, Afternoon},
		{17, 59, Afternoon},
		{18, 0, Evening},
		{23, 59, Evening},
	}

	for _, tt := range tests {
		ts := day.Add(time.Duration(tt.hour)*time.Hour + time.Duration(tt.minute)*time.Minute)
		if got := PeriodOf(ts, nil); got != tt.expected {
			t.Errorf("PeriodOf(%02d:%02d) = %s, want %s", tt.hour, tt.minute, got, tt.expected)
		}
	}
}

func TestFilter_UsesLocation(t *testing.T) {
	// 02:00 UTC is 11:00 in Tokyo
	ts := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	readings := []health.Reading{readingAt("a", ts)}

	utc := Filter(readings, nil)
	assert.Len(t, utc.Evening, 1)

	tokyo, err := ParseLocation("+09:00")
	require.NoError(t, err)
	local := Filter(readings, tokyo)
	assert.Len(t, local.Morning, 1)
	assert.Empty(t, local.Evening)
}

func TestFilter_PreservesOrder(t *testing.T) {
	base := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	readings := []health.Reading{
		readingAt("late", base.Add(4*time.Hour)),
		readingAt("early", base),
		readingAt("mid", base.Add(2*time.Hour)),
	}

	b := Filter(readings, time.UTC)
	require.Len(t, b.Morning, 3)
	assert.Equal(t, "late", b.Morning[0].ID)
	assert.Equal(t, "early", b.Morning[1].ID)
	assert.Equal(t, "mid", b.Morning[2].ID)
}

func TestFilter_DisjointAndExhaustive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	readings := make([]health.Reading, 500)
	for i := range readings {
		offset := time.Duration(rng.Int63n(int64(365 * 24 * time.Hour)))
		readings[i] = readingAt(fmt.Sprintf("r%d", i), start.Add(offset))
	}

	for _, tz := range []string{"UTC", "+05:30", "-11:00", "+14:00"} {
		loc, err := ParseLocation(tz)
		require.NoError(t, err)

		b := Filter(readings, loc)
		assert.Equal(t, len(readings), b.Len(), tz)

		seen := make(map[string]Period)
		for _, p := range []Period{Morning, Afternoon, Evening} {
			for _, r := range b.Get(p) {
				_, dup := seen[r.ID]
				assert.False(t, dup, "reading %s in more than one bucket", r.ID)
				seen[r.ID] = p
				assert.Equal(t, p, PeriodOf(r.RecordedAt, loc))
			}
		}
		assert.Len(t, seen, len(readings))
	}
}

func TestFilter_Empty(t *testing.T) {
	b := Filter(nil, nil)
	assert.Equal(t, 0, b.Len())
	assert.NotNil(t, b.Morning)
	assert.NotNil(t, b.Afternoon)
	assert.NotNil(t, b.Evening)
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input      string
		wantErr    bool
		wantOffset int
	}{
		{"", false, 0},
		{"UTC", false, 0},
		{"+09:00", false, 9 * 3600},
		{"-05:30", false, -(5*3600 + 30*60)},
		{"Mars/Olympus", true, 0},
		{"+9:00", true, 0},
		{"+15:00", true, 0},
	}

	ref := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		loc, err := ParseLocation(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLocation(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLocation(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if _, offset := ref.In(loc).Zone(); offset != tt.wantOffset {
			t.Errorf("ParseLocation(%q) offset = %d, want %d", tt.input, offset, tt.wantOffset)
		}
	}
}
