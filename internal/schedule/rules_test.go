package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRulesEmpty(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`)} {
		rs, err := ParseRules(raw)
		require.NoError(t, err)
		assert.True(t, rs.Matches(time.Now()))
	}
}

func TestParseRulesInvalidJSON(t *testing.T) {
	_, err := ParseRules(json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestSanitizeRulesDropsMalformed(t *testing.T) {
	rs := SanitizeRules(RuleSet{
		Mode: "ANY",
		Conditions: []Condition{
			{Type: CondTimeBetween, Start: "09:00", End: "17:00"},
			{Type: CondTimeBetween, Start: "25:00", End: "17:00"},
			{Type: CondDaysOfWeek, Days: []string{"monday", "noday"}},
			{Type: CondExcludeMonthDays, MonthDays: []int{0, 5}},
			{Type: "future_condition"},
		},
	})

	assert.Equal(t, ModeAny, rs.Mode)
	require.Len(t, rs.Conditions, 2)
	assert.Equal(t, CondTimeBetween, rs.Conditions[0].Type)
	assert.Equal(t, "future_condition", rs.Conditions[1].Type)
}

func TestMatchesTimeBetween(t *testing.T) {
	rs := RuleSet{Mode: ModeAll, Conditions: []Condition{
		{Type: CondTimeBetween, Start: "09:00", End: "17:00"},
	}}

	assert.True(t, rs.Matches(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	assert.True(t, rs.Matches(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)))
	assert.False(t, rs.Matches(time.Date(2025, 3, 10, 8, 59, 0, 0, time.UTC)))
	assert.False(t, rs.Matches(time.Date(2025, 3, 10, 17, 1, 0, 0, time.UTC)))
}

func TestMatchesOvernightWindow(t *testing.T) {
	rs := RuleSet{Mode: ModeAll, Conditions: []Condition{
		{Type: CondTimeBetween, Start: "22:00", End: "06:00"},
	}}

	assert.True(t, rs.Matches(time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)))
	assert.True(t, rs.Matches(time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)))
	assert.False(t, rs.Matches(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
}

func TestMatchesDaysOfWeek(t *testing.T) {
	rs := RuleSet{Mode: ModeAll, Conditions: []Condition{
		{Type: CondDaysOfWeek, Days: []string{"monday", "friday"}},
	}}

	monday := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	assert.True(t, rs.Matches(monday))
	assert.False(t, rs.Matches(tuesday))
}

func TestMatchesExcludeMonthDays(t *testing.T) {
	rs := RuleSet{Mode: ModeAll, Conditions: []Condition{
		{Type: CondExcludeMonthDays, MonthDays: []int{1, 15}},
	}}

	assert.False(t, rs.Matches(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)))
	assert.True(t, rs.Matches(time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC)))
}

func TestMatchesModes(t *testing.T) {
	conds := []Condition{
		{Type: CondTimeBetween, Start: "09:00", End: "17:00"},
		{Type: CondDaysOfWeek, Days: []string{"sunday"}},
	}
	// Monday noon: first condition holds, second does not.
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, RuleSet{Mode: ModeAll, Conditions: conds}.Matches(at))
	assert.True(t, RuleSet{Mode: ModeAny, Conditions: conds}.Matches(at))
}

func TestNextRuleRunFindsSlot(t *testing.T) {
	rs := RuleSet{Mode: ModeAll, Conditions: []Condition{
		{Type: CondTimeBetween, Start: "09:00", End: "17:00"},
		{Type: CondDaysOfWeek, Days: []string{"wednesday"}},
	}}

	// Monday 18:30: the next matching minute is Wednesday 09:00.
	from := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	got, err := NextRuleRun(rs, from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), got)
}

func TestNextRuleRunImmediateMatch(t *testing.T) {
	rs := RuleSet{Mode: ModeAll}
	from := time.Date(2025, 3, 10, 18, 30, 12, 0, time.UTC)

	got, err := NextRuleRun(rs, from)
	require.NoError(t, err)
	// Rounded up to the next whole minute.
	assert.Equal(t, time.Date(2025, 3, 10, 18, 31, 0, 0, time.UTC), got)
}

func TestNextRuleRunExhaustedWindow(t *testing.T) {
	// All days excluded: no minute can ever match.
	days := make([]int, 31)
	for i := range days {
		days[i] = i + 1
	}
	rs := RuleSet{Mode: ModeAll, Conditions: []Condition{
		{Type: CondExcludeMonthDays, MonthDays: days},
	}}

	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	got, err := NextRuleRun(rs, from)
	assert.ErrorIs(t, err, ErrNoSlotInWindow)
	assert.Equal(t, from.Add(24*time.Hour), got)
}
