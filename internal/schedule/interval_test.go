package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextTimestampFixedIntervals(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		freq Frequency
		want time.Duration
	}{
		{FreqHourly, time.Hour},
		{FreqEvery4Hours, 4 * time.Hour},
		{FreqEvery6Hours, 6 * time.Hour},
		{FreqEvery12Hours, 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			got := NextTimestamp(tt.freq, base)
			assert.Equal(t, tt.want, got.Sub(base))
			assert.Equal(t, time.Duration(IntervalSeconds(tt.freq))*time.Second, got.Sub(base))
		})
	}
}

func TestNextTimestampCalendar(t *testing.T) {
	base := time.Date(2025, 1, 31, 8, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC), NextTimestamp(FreqDaily, base))
	assert.Equal(t, time.Date(2025, 2, 7, 8, 30, 0, 0, time.UTC), NextTimestamp(FreqWeekly, base))
	assert.Equal(t, time.Date(2025, 2, 14, 8, 30, 0, 0, time.UTC), NextTimestamp(FreqBiWeekly, base))
	// Jan 31 + 1 month normalizes past the short month.
	assert.Equal(t, time.Date(2025, 3, 3, 8, 30, 0, 0, time.UTC), NextTimestamp(FreqMonthly, base))
}

func TestNextTimestampDaySpecific(t *testing.T) {
	// A Monday at 09:15.
	base := time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)

	got := NextTimestamp(Frequency("every_wednesday"), base)
	assert.Equal(t, time.Wednesday, got.Weekday())
	assert.Equal(t, time.Date(2025, 3, 12, 9, 15, 0, 0, time.UTC), got)

	// Same weekday advances a full week, never returns base itself.
	got = NextTimestamp(Frequency("every_monday"), base)
	assert.Equal(t, time.Date(2025, 3, 17, 9, 15, 0, 0, time.UTC), got)
}

func TestNextTimestampUnknownFallsBackOneDay(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, base.AddDate(0, 0, 1), NextTimestamp(Frequency("fortnightly-ish"), base))
}

func TestCalculateNextRunFutureBase(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)

	got := CalculateNextRun(FreqHourly, start, now)
	assert.Equal(t, start.Add(time.Hour), got)
}

func TestCalculateNextRunCatchUpPreservesPhase(t *testing.T) {
	// Started days ago at :45 past the hour; the next run must stay on
	// the :45 grid and land strictly after now.
	start := time.Date(2025, 3, 1, 6, 45, 0, 0, time.UTC)
	now := time.Date(2025, 3, 3, 12, 10, 0, 0, time.UTC)

	got := CalculateNextRun(FreqHourly, start, now)
	assert.True(t, got.After(now))
	assert.Equal(t, 45, got.Minute())
	assert.Equal(t, time.Date(2025, 3, 3, 12, 45, 0, 0, time.UTC), got)
}

func TestCalculateNextRunDeepPastRebases(t *testing.T) {
	// Too far behind for the bounded catch-up loop; rebases off now.
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	got := CalculateNextRun(FreqHourly, start, now)
	assert.True(t, got.After(now))
	assert.Equal(t, now.Add(time.Hour), got)
}

func TestCalculateNextRunNeverReturnsPast(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	start := now.AddDate(0, -1, -3)

	for _, freq := range []Frequency{
		FreqHourly, FreqEvery4Hours, FreqEvery6Hours, FreqEvery12Hours,
		FreqDaily, FreqWeekly, FreqBiWeekly, FreqMonthly,
		Frequency("every_friday"),
	} {
		got := CalculateNextRun(freq, start, now)
		assert.True(t, got.After(now), "freq %s returned %s", freq, got)
	}
}

func TestCalculateNextRunZeroStart(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, 1), CalculateNextRun(FreqDaily, time.Time{}, now))
}

func TestOccurrenceCount(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 25, OccurrenceCount(FreqHourly, start, start.Add(24*time.Hour)))
	assert.Equal(t, 1, OccurrenceCount(FreqHourly, start, start))
	assert.Equal(t, 0, OccurrenceCount(FreqHourly, start, start.Add(-time.Minute)))
	assert.Equal(t, 3, OccurrenceCount(FreqDaily, start, start.AddDate(0, 0, 2)))
	assert.Equal(t, 2, OccurrenceCount(FreqMonthly, start, start.AddDate(0, 1, 0)))
}

func TestValidFrequency(t *testing.T) {
	assert.True(t, ValidFrequency(FreqHourly))
	assert.True(t, ValidFrequency(Frequency("every_sunday")))
	assert.True(t, ValidFrequency(FreqCustom))
	assert.False(t, ValidFrequency(Frequency("every_someday")))
	assert.False(t, ValidFrequency(Frequency("yearly")))
}
