// Package penalty maps cancellation lead time and arrival lateness to XP deductions.
package penalty

import (
	"fmt"
	"sort"

	"shiftboard/pkg/config"
)

// Kind of penalty, one record per kind per assignment
type Kind string

const (
	KindCancellation Kind = "cancellation"
	KindDelay        Kind = "delay"
)

// Result is a computed deduction. XP is a positive magnitude; zero means no penalty.
type Result struct {
	Kind    Kind   `json:"kind"`
	XP      int64  `json:"xp"`
	Tier    string `json:"tier,omitempty"`
	Minutes int    `json:"minutes"`
	Reason  string `json:"reason"`
}

// Applies reports whether the result deducts anything
func (r Result) Applies() bool {
	return r.XP > 0
}

// Calculator holds the configured tier tables
type Calculator struct {
	cancellation []config.PenaltyTier // descending by MinMinutes
	delay        []config.PenaltyTier // descending by MinMinutes
}

// NewCalculator builds a calculator. Tables are expected to be validated by config.
func NewCalculator(cancellation, delay []config.PenaltyTier) *Calculator {
	return &Calculator{
		cancellation: descending(cancellation),
		delay:        descending(delay),
	}
}

// NewCalculatorFromConfig builds a calculator from engine config
func NewCalculatorFromConfig(cfg config.EngineConfig) *Calculator {
	return NewCalculator(cfg.CancellationTiers, cfg.DelayTiers)
}

// Cancellation returns the deduction for cancelling leadMinutes before start.
// A negative lead (start already passed) falls into the most severe tier.
func (c *Calculator) Cancellation(leadMinutes int) Result {
	res := Result{Kind: KindCancellation, Minutes: leadMinutes}
	if len(c.cancellation) == 0 {
		res.Reason = "no cancellation penalty configured"
		return res
	}

	idx := len(c.cancellation) - 1
	for i, t := range c.cancellation {
		if leadMinutes >= t.MinMinutes {
			idx = i
			break
		}
	}
	tier := c.cancellation[idx]
	res.XP = tier.XP
	res.Tier = tier.Label

	if idx == 0 {
		res.Reason = fmt.Sprintf("a %d XP penalty applies for cancelling %s or more before the shift starts",
			tier.XP, humanMinutes(tier.MinMinutes))
	} else {
		res.Reason = fmt.Sprintf("a %d XP penalty applies because fewer than %s remain before the shift starts",
			tier.XP, humanMinutes(c.cancellation[idx-1].MinMinutes))
	}
	return res
}

// Delay returns the deduction for confirming arrival latenessMinutes after start
func (c *Calculator) Delay(latenessMinutes int) Result {
	res := Result{Kind: KindDelay, Minutes: latenessMinutes}
	for _, t := range c.delay {
		if latenessMinutes >= t.MinMinutes {
			res.XP = t.XP
			res.Tier = t.Label
			res.Reason = fmt.Sprintf("a %d XP penalty applies for arriving %s late", t.XP, humanMinutes(latenessMinutes))
			return res
		}
	}
	res.Reason = "no delay penalty, arrival confirmed on time"
	return res
}

func descending(tiers []config.PenaltyTier) []config.PenaltyTier {
	out := append([]config.PenaltyTier(nil), tiers...)
	sort.Slice(out, func(i, j int) bool { return out[i].MinMinutes > out[j].MinMinutes })
	return out
}

func humanMinutes(m int) string {
	switch {
	case m == 1:
		return "1 minute"
	case m == 60:
		return "1 hour"
	case m > 0 && m%60 == 0:
		return fmt.Sprintf("%d hours", m/60)
	default:
		return fmt.Sprintf("%d minutes", m)
	}
}
