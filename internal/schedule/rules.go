package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rule modes.
const (
	ModeAll = "all"
	ModeAny = "any"
)

// Condition types.
const (
	CondTimeBetween      = "time_between"
	CondDaysOfWeek       = "days_of_week"
	CondExcludeMonthDays = "exclude_month_days"
)

// ErrNoSlotInWindow is returned by NextRuleRun when no matching minute
// exists within the search horizon. The returned fallback time is
// still usable so callers can keep a schedule alive.
var ErrNoSlotInWindow = errors.New("schedule: no matching slot within search window")

// ruleSearchHorizon bounds the minute-step search in NextRuleRun.
const ruleSearchHorizon = 60 * 24 * time.Hour

// Condition is a single constraint on when a schedule may run.
// Fields are populated per Type; the others stay empty.
type Condition struct {
	Type string `json:"type"`

	// time_between, inclusive HH:MM bounds. Start after End means an
	// overnight window that wraps midnight.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// days_of_week, lowercase English day names.
	Days []string `json:"days,omitempty"`

	// exclude_month_days, days of month 1-31 on which runs are blocked.
	MonthDays []int `json:"month_days,omitempty"`
}

// RuleSet combines conditions under an all/any mode. A nil or empty
// rule set matches every instant.
type RuleSet struct {
	Mode       string      `json:"mode"`
	Conditions []Condition `json:"conditions"`
}

// ParseRules decodes and sanitizes a stored rule document. A nil or
// empty document yields an always-matching rule set.
func ParseRules(raw json.RawMessage) (RuleSet, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return RuleSet{Mode: ModeAll}, nil
	}

	var rs RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	return SanitizeRules(rs), nil
}

// SanitizeRules normalizes the mode and drops malformed conditions so
// one bad entry cannot wedge a schedule. Condition types we do not
// recognize are kept; they evaluate as matching.
func SanitizeRules(rs RuleSet) RuleSet {
	mode := strings.ToLower(strings.TrimSpace(rs.Mode))
	if mode != ModeAny {
		mode = ModeAll
	}

	out := RuleSet{Mode: mode}
	for _, c := range rs.Conditions {
		c.Type = strings.ToLower(strings.TrimSpace(c.Type))
		if !validCondition(c) {
			continue
		}
		out.Conditions = append(out.Conditions, c)
	}
	return out
}

func validCondition(c Condition) bool {
	switch c.Type {
	case CondTimeBetween:
		_, okStart := parseClock(c.Start)
		_, okEnd := parseClock(c.End)
		return okStart && okEnd
	case CondDaysOfWeek:
		if len(c.Days) == 0 {
			return false
		}
		for _, d := range c.Days {
			if _, ok := weekdays[strings.ToLower(strings.TrimSpace(d))]; !ok {
				return false
			}
		}
		return true
	case CondExcludeMonthDays:
		if len(c.MonthDays) == 0 {
			return false
		}
		for _, d := range c.MonthDays {
			if d < 1 || d > 31 {
				return false
			}
		}
		return true
	}
	return true
}

// Matches reports whether t satisfies the rule set.
func (rs RuleSet) Matches(t time.Time) bool {
	if len(rs.Conditions) == 0 {
		return true
	}

	for _, c := range rs.Conditions {
		ok := matchCondition(c, t)
		if rs.Mode == ModeAny && ok {
			return true
		}
		if rs.Mode != ModeAny && !ok {
			return false
		}
	}
	return rs.Mode != ModeAny
}

func matchCondition(c Condition, t time.Time) bool {
	switch c.Type {
	case CondTimeBetween:
		start, _ := parseClock(c.Start)
		end, _ := parseClock(c.End)
		cur := t.Hour()*60 + t.Minute()
		if start <= end {
			return cur >= start && cur <= end
		}
		// Overnight window, e.g. 22:00-06:00.
		return cur >= start || cur <= end
	case CondDaysOfWeek:
		for _, d := range c.Days {
			if day, ok := weekdays[strings.ToLower(strings.TrimSpace(d))]; ok && day == t.Weekday() {
				return true
			}
		}
		return false
	case CondExcludeMonthDays:
		for _, d := range c.MonthDays {
			if t.Day() == d {
				return false
			}
		}
		return true
	}
	// Forward compatibility: unknown condition types never block a run.
	return true
}

// NextRuleRun finds the first minute at or after from that satisfies
// the rule set, stepping minute by minute up to the search horizon.
// If the horizon is exhausted it returns from+24h together with
// ErrNoSlotInWindow so the caller can log the misconfiguration while
// keeping the schedule alive.
func NextRuleRun(rs RuleSet, from time.Time) (time.Time, error) {
	t := from.Truncate(time.Minute)
	if t.Before(from) {
		t = t.Add(time.Minute)
	}

	limit := from.Add(ruleSearchHorizon)
	for !t.After(limit) {
		if rs.Matches(t) {
			return t, nil
		}
		t = t.Add(time.Minute)
	}

	return from.Add(24 * time.Hour), ErrNoSlotInWindow
}

// parseClock parses HH:MM into minutes since midnight.
func parseClock(s string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
