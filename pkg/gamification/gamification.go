// Package gamification holds the pure XP, level and streak arithmetic.
// Persistence and event emission live in the service layer.
package gamification

import (
	"sort"

	"shiftboard/pkg/config"
	"shiftboard/pkg/schedule"
)

// Rules is the configured level table, completion bonus and streak milestones
type Rules struct {
	thresholds   []int64
	completionXP int64
	milestones   []config.StreakMilestone // ascending by Days
}

// NewRules builds rules from engine config
func NewRules(cfg config.EngineConfig) *Rules {
	milestones := append([]config.StreakMilestone(nil), cfg.StreakMilestones...)
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].Days < milestones[j].Days })

	thresholds := cfg.LevelThresholds
	if len(thresholds) == 0 {
		thresholds = []int64{0}
	}

	return &Rules{
		thresholds:   append([]int64(nil), thresholds...),
		completionXP: cfg.CompletionXP,
		milestones:   milestones,
	}
}

// Level returns the 1-based level for totalXP: the number of thresholds reached
func (r *Rules) Level(totalXP int64) int {
	level := 0
	for _, t := range r.thresholds {
		if totalXP >= t {
			level++
		} else {
			break
		}
	}
	if level == 0 {
		return 1
	}
	return level
}

// MaxLevel returns the highest reachable level
func (r *Rules) MaxLevel() int {
	return len(r.thresholds)
}

// NextThreshold returns the XP needed for the next level, false at max level
func (r *Rules) NextThreshold(totalXP int64) (int64, bool) {
	level := r.Level(totalXP)
	if level >= len(r.thresholds) {
		return 0, false
	}
	return r.thresholds[level], true
}

// CompletionXP is the bonus for one fulfilled assignment
func (r *Rules) CompletionXP() int64 {
	return r.completionXP
}

// ApplyDelta adds delta to total and floors the result at zero
func ApplyDelta(total, delta int64) int64 {
	next := total + delta
	if next < 0 {
		return 0
	}
	return next
}

// StreakState is the persisted streak portion of a profile
type StreakState struct {
	Current    int
	LastDay    string // YYYY-MM-DD, empty if never qualified
	Milestones []int  // milestone days already awarded in the current streak
}

// AccrueDay records a qualifying day and returns the new state and any milestones
// reached for the first time in this streak. Repeating a day, or a day older than
// the last qualifying day, leaves the state unchanged.
func (r *Rules) AccrueDay(state StreakState, day string) (StreakState, []config.StreakMilestone) {
	if day == "" || (state.LastDay != "" && day <= state.LastDay) {
		return state, nil
	}

	next := StreakState{LastDay: day}
	if state.LastDay != "" && state.LastDay == schedule.PreviousDay(day) {
		next.Current = state.Current + 1
		next.Milestones = append([]int(nil), state.Milestones...)
	} else {
		next.Current = 1
	}

	var awarded []config.StreakMilestone
	for _, m := range r.milestones {
		if next.Current >= m.Days && !contains(next.Milestones, m.Days) {
			awarded = append(awarded, m)
			next.Milestones = append(next.Milestones, m.Days)
		}
	}
	return next, awarded
}

// EffectiveStreak derives the streak as of today. A streak whose last qualifying day
// is before yesterday is broken and reads as zero.
func EffectiveStreak(state StreakState, today string) int {
	if state.LastDay == "" {
		return 0
	}
	if state.LastDay >= today || state.LastDay == schedule.PreviousDay(today) {
		return state.Current
	}
	return 0
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
