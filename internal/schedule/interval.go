// Package schedule contains the scheduling math and the processor that
// executes due generation schedules.
package schedule

import (
	"strings"
	"time"
)

// Frequency identifies how often a schedule recurs.
type Frequency string

const (
	FreqHourly       Frequency = "hourly"
	FreqEvery4Hours  Frequency = "every_4_hours"
	FreqEvery6Hours  Frequency = "every_6_hours"
	FreqEvery12Hours Frequency = "every_12_hours"
	FreqDaily        Frequency = "daily"
	FreqWeekly       Frequency = "weekly"
	FreqBiWeekly     Frequency = "bi_weekly"
	FreqMonthly      Frequency = "monthly"
	FreqOnce         Frequency = "once"
	FreqCustom       Frequency = "custom"
)

// maxCatchUpSteps bounds the drift-correction loop in CalculateNextRun.
const maxCatchUpSteps = 100

// fixedIntervals maps frequencies advanced by plain duration addition.
var fixedIntervals = map[Frequency]time.Duration{
	FreqHourly:       time.Hour,
	FreqEvery4Hours:  4 * time.Hour,
	FreqEvery6Hours:  6 * time.Hour,
	FreqEvery12Hours: 12 * time.Hour,
}

// intervalSeconds is the nominal duration of each frequency, used for
// reporting and occurrence counting. Calendar frequencies use their
// typical length here; actual advancement is calendar-aware.
var intervalSeconds = map[Frequency]int64{
	FreqHourly:       3600,
	FreqEvery4Hours:  14400,
	FreqEvery6Hours:  21600,
	FreqEvery12Hours: 43200,
	FreqDaily:        86400,
	FreqWeekly:       604800,
	FreqBiWeekly:     1209600,
	FreqMonthly:      2592000,
	FreqOnce:         86400,
	FreqCustom:       86400,
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ValidFrequency reports whether freq is a known frequency key.
func ValidFrequency(freq Frequency) bool {
	if _, ok := intervalSeconds[freq]; ok {
		return true
	}
	_, ok := dayFromFrequency(freq)
	return ok
}

// IntervalSeconds returns the nominal interval of freq in seconds,
// or 0 for unknown keys.
func IntervalSeconds(freq Frequency) int64 {
	if secs, ok := intervalSeconds[freq]; ok {
		return secs
	}
	if _, ok := dayFromFrequency(freq); ok {
		return 604800
	}
	return 0
}

// NextTimestamp returns the next run time one interval step after base.
// Fixed intervals use duration addition; daily and longer use
// calendar-aware addition so month-length variance and DST are
// respected. Day-specific keys (every_monday .. every_sunday) advance
// to the next occurrence of that weekday, preserving the time of day.
// Unknown keys fall back to one day ahead.
func NextTimestamp(freq Frequency, base time.Time) time.Time {
	if d, ok := fixedIntervals[freq]; ok {
		return base.Add(d)
	}

	switch freq {
	case FreqDaily, FreqOnce, FreqCustom:
		return base.AddDate(0, 0, 1)
	case FreqWeekly:
		return base.AddDate(0, 0, 7)
	case FreqBiWeekly:
		return base.AddDate(0, 0, 14)
	case FreqMonthly:
		return base.AddDate(0, 1, 0)
	}

	if day, ok := dayFromFrequency(freq); ok {
		return nextWeekday(base, day)
	}

	return base.AddDate(0, 0, 1)
}

// CalculateNextRun computes the next run for freq from a given start
// time. A start in the past is advanced interval by interval so the
// schedule keeps its original phase ("every Monday at 9am" stays
// pinned to that slot) instead of rebasing off now. The catch-up loop
// is bounded; if it exhausts, the result is rebased off now.
func CalculateNextRun(freq Frequency, start, now time.Time) time.Time {
	base := start
	if base.IsZero() {
		base = now
	}

	if base.Before(now) {
		for i := 0; i < maxCatchUpSteps; i++ {
			base = NextTimestamp(freq, base)
			if base.After(now) {
				return base
			}
		}
		return NextTimestamp(freq, now)
	}

	return NextTimestamp(freq, base)
}

// OccurrenceCount returns how many runs of freq occur between start and
// end inclusive, assuming a run at start. Fixed intervals use the
// closed form floor((end-start)/interval)+1; calendar frequencies
// count iteratively. Used for reporting and previews, not execution.
func OccurrenceCount(freq Frequency, start, end time.Time) int {
	if end.Before(start) {
		return 0
	}

	if d, ok := fixedIntervals[freq]; ok {
		return int(end.Sub(start)/d) + 1
	}

	count := 1
	t := start
	for i := 0; i < 10000; i++ {
		t = NextTimestamp(freq, t)
		if t.After(end) {
			break
		}
		count++
	}
	return count
}

// dayFromFrequency parses day-specific keys such as "every_monday".
func dayFromFrequency(freq Frequency) (time.Weekday, bool) {
	name, ok := strings.CutPrefix(string(freq), "every_")
	if !ok {
		return 0, false
	}
	day, ok := weekdays[name]
	return day, ok
}

// nextWeekday returns the next occurrence of day strictly after base,
// preserving base's time of day.
func nextWeekday(base time.Time, day time.Weekday) time.Time {
	ahead := (int(day) - int(base.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return base.AddDate(0, 0, ahead)
}
