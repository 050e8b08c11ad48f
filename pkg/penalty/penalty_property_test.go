package penalty

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_PenaltyMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)
	c := defaultCalculator()

	properties.Property("shorter lead never yields a smaller cancellation penalty", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			return c.Cancellation(a).XP >= c.Cancellation(b).XP
		},
		gen.IntRange(-600, 3000),
		gen.IntRange(-600, 3000),
	))

	properties.Property("more lateness never yields a smaller delay penalty", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			return c.Delay(a).XP <= c.Delay(b).XP
		},
		gen.IntRange(-60, 600),
		gen.IntRange(-60, 600),
	))

	properties.Property("every result carries a reason", prop.ForAll(
		func(m int) bool {
			return c.Cancellation(m).Reason != "" && c.Delay(m).Reason != ""
		},
		gen.IntRange(-600, 3000),
	))

	properties.TestingRun(t)
}
