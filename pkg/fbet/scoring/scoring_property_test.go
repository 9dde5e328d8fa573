package scoring

import (
	"testing"

	"pgregory.net/rapid"
)

// Property: the highscore is a pure function of the underlying facts.
// Shuffling the order in which events, members and tips are fed in must
// not change the resulting sorted list.
func TestProperty_HighscoreOrderIndependent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property test in short mode")
	}

	rapid.Check(t, func(rt *rapid.T) {
		events, members, tips := genGroupFacts(rt)

		baseline := Highscore(events, members, tips)

		permEvents := permute(rt, events, "eventPerm")
		permMembers := permute(rt, members, "memberPerm")
		permTips := permute(rt, tips, "tipPerm")

		shuffled := Highscore(permEvents, permMembers, permTips)

		if len(baseline) != len(shuffled) {
			rt.Fatalf("entry count changed under permutation: %d vs %d", len(baseline), len(shuffled))
		}
		for i := range baseline {
			if baseline[i] != shuffled[i] {
				rt.Fatalf("entry %d changed under permutation: %+v vs %+v", i, baseline[i], shuffled[i])
			}
		}
	})
}

// Property: per-event point distribution follows the 3/1 rule, so a user's
// total equals the sum over events of 3 for unique correct tips and 1 for
// shared ones. The check recomputes totals naively per event.
func TestProperty_HighscorePointLaw(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property test in short mode")
	}

	rapid.Check(t, func(rt *rapid.T) {
		events, members, tips := genGroupFacts(rt)

		expected := make(map[uint]int)
		for _, e := range events {
			var correct []uint
			for _, tip := range tips {
				if tip.EventID == e.EventID && NormalizeOption(tip.SelectedOption) == NormalizeOption(e.WinningOption) {
					correct = append(correct, tip.UserID)
				}
			}
			if len(correct) == 1 {
				expected[correct[0]] += 3
			} else {
				for _, uid := range correct {
					expected[uid]++
				}
			}
		}

		for _, entry := range Highscore(events, members, tips) {
			if entry.Points != expected[entry.UserID] {
				rt.Fatalf("user %d: got %d points, law says %d", entry.UserID, entry.Points, expected[entry.UserID])
			}
		}
	})
}

// genGroupFacts draws a consistent set of finished events, members and
// tips: one tip at most per (member, event) pair, options drawn from a
// small pool so collisions between tips and winners are common.
func genGroupFacts(rt *rapid.T) ([]FinishedEvent, []Member, []TipFact) {
	options := []string{"A", "B", " a ", "b", "Draw"}

	numEvents := rapid.IntRange(0, 6).Draw(rt, "numEvents")
	events := make([]FinishedEvent, numEvents)
	for i := range events {
		events[i] = FinishedEvent{
			EventID:       uint(i + 1),
			WinningOption: rapid.SampledFrom(options).Draw(rt, "winner"),
		}
	}

	numMembers := rapid.IntRange(0, 8).Draw(rt, "numMembers")
	members := make([]Member, numMembers)
	for i := range members {
		members[i] = Member{
			UserID: uint(i + 1),
			Name:   rapid.SampledFrom([]string{"Anna", "Bob", "carla", "", "User 9"}).Draw(rt, "name"),
			Email:  rapid.SampledFrom([]string{"", "m@example.com"}).Draw(rt, "email"),
		}
	}

	var tips []TipFact
	for _, m := range members {
		for _, e := range events {
			if rapid.Bool().Draw(rt, "hasTip") {
				tips = append(tips, TipFact{
					UserID:         m.UserID,
					EventID:        e.EventID,
					SelectedOption: rapid.SampledFrom(options).Draw(rt, "pick"),
				})
			}
		}
	}

	return events, members, tips
}

func permute[T any](rt *rapid.T, in []T, label string) []T {
	out := make([]T, len(in))
	copy(out, in)
	return rapid.Permutation(out).Draw(rt, label)
}
