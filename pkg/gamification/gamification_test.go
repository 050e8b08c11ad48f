package gamification

import (
	"testing"

	"shiftboard/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRules() *Rules {
	return NewRules(config.DefaultEngineConfig())
}

func TestLevel(t *testing.T) {
	r := defaultRules()

	tests := []struct {
		xp    int64
		level int
	}{
		{-10, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{600, 4},
		{999, 4},
		{1000, 5},
		{50000, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, r.Level(tt.xp), "xp %d", tt.xp)
	}
	assert.Equal(t, 5, r.MaxLevel())
}

func TestNextThreshold(t *testing.T) {
	r := defaultRules()

	next, ok := r.NextThreshold(150)
	assert.True(t, ok)
	assert.Equal(t, int64(300), next)

	_, ok = r.NextThreshold(1200)
	assert.False(t, ok)
}

func TestApplyDelta(t *testing.T) {
	assert.Equal(t, int64(150), ApplyDelta(100, 50))
	assert.Equal(t, int64(0), ApplyDelta(40, -100))
	assert.Equal(t, int64(0), ApplyDelta(0, -1))
}

func TestAccrueDay_Streak(t *testing.T) {
	r := defaultRules()

	s, awarded := r.AccrueDay(StreakState{}, "2026-03-01")
	assert.Equal(t, 1, s.Current)
	assert.Empty(t, awarded)

	// same day again does not increment
	same, awarded := r.AccrueDay(s, "2026-03-01")
	assert.Equal(t, s, same)
	assert.Empty(t, awarded)

	s, _ = r.AccrueDay(s, "2026-03-02")
	s, awarded = r.AccrueDay(s, "2026-03-03")
	assert.Equal(t, 3, s.Current)
	require.Len(t, awarded, 1)
	assert.Equal(t, 3, awarded[0].Days)
	assert.Equal(t, int64(20), awarded[0].BonusXP)

	// gap breaks the streak and resets milestones
	s, awarded = r.AccrueDay(s, "2026-03-05")
	assert.Equal(t, 1, s.Current)
	assert.Empty(t, s.Milestones)
	assert.Empty(t, awarded)

	// older days are ignored
	older, _ := r.AccrueDay(s, "2026-03-04")
	assert.Equal(t, s, older)
}

func TestAccrueDay_MilestoneAcrossMonth(t *testing.T) {
	r := defaultRules()
	s := StreakState{Current: 6, LastDay: "2026-02-28", Milestones: []int{3}}

	s, awarded := r.AccrueDay(s, "2026-03-01")
	assert.Equal(t, 7, s.Current)
	require.Len(t, awarded, 1)
	assert.Equal(t, 7, awarded[0].Days)
	assert.ElementsMatch(t, []int{3, 7}, s.Milestones)
}

func TestEffectiveStreak(t *testing.T) {
	s := StreakState{Current: 4, LastDay: "2026-03-10"}

	assert.Equal(t, 4, EffectiveStreak(s, "2026-03-10"))
	assert.Equal(t, 4, EffectiveStreak(s, "2026-03-11"))
	assert.Equal(t, 0, EffectiveStreak(s, "2026-03-12"))
	assert.Equal(t, 0, EffectiveStreak(StreakState{}, "2026-03-12"))
}
