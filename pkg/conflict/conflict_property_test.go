package conflict

import (
	"fmt"
	"testing"
	"time"

	"shiftboard/pkg/schedule"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type slot struct {
	Day      int
	StartMin int
	Length   int
}

func genSlot() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 3),
		gen.IntRange(0, 22*60),
		gen.IntRange(15, 6*60),
	).Map(func(v []interface{}) slot {
		return slot{Day: v[0].(int), StartMin: v[1].(int), Length: v[2].(int)}
	})
}

func (s slot) window() schedule.Window {
	end := s.StartMin + s.Length
	if end > 24*60-1 {
		end = 24*60 - 1
	}
	w, err := schedule.Parse(
		fmt.Sprintf("2026-03-%02d", s.Day),
		fmt.Sprintf("%02d:%02d", s.StartMin/60, s.StartMin%60),
		fmt.Sprintf("%02d:%02d", end/60, end%60),
		time.UTC,
	)
	if err != nil {
		panic(err)
	}
	return w
}

// Feeding any sequence of offers through Check and keeping only the accepted ones
// must leave a pairwise non-overlapping set.
func TestProperty_AcceptedSetIsPairwiseDisjoint(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("held windows never overlap", prop.ForAll(
		func(slots []slot) bool {
			var held []Held
			for i, s := range slots {
				c := Candidate{OfferID: fmt.Sprintf("o-%d", i), PosterID: "poster", Window: s.window()}
				if Check("worker", c, held).Acceptable {
					held = append(held, Held{OfferID: c.OfferID, Window: c.Window})
				}
			}
			for i := range held {
				for j := i + 1; j < len(held); j++ {
					if schedule.Overlaps(held[i].Window, held[j].Window) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(genSlot()),
	))

	properties.Property("rejection always names an overlapping held offer", prop.ForAll(
		func(existing, candidate slot) bool {
			held := []Held{{OfferID: "held", Window: existing.window()}}
			d := Check("worker", Candidate{OfferID: "new", PosterID: "poster", Window: candidate.window()}, held)
			overlaps := schedule.Overlaps(existing.window(), candidate.window())
			if overlaps {
				return !d.Acceptable && d.ConflictsWith == "held" && d.Reason != ""
			}
			return d.Acceptable
		},
		genSlot(),
		genSlot(),
	))

	properties.TestingRun(t)
}
