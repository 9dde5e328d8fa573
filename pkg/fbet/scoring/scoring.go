// Package scoring computes points and highscores from already-fetched
// event, membership and tip rows. It performs no I/O, so every rule in
// here is testable without a database.
package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// FinishedEvent is an event with a recorded result.
type FinishedEvent struct {
	EventID       uint
	WinningOption string
}

// TipFact is the slice of a tip the engine needs.
type TipFact struct {
	UserID         uint
	EventID        uint
	SelectedOption string
}

// Member is a group member with display data. Name and Email may be
// empty when the user record is missing or incomplete.
type Member struct {
	UserID uint
	Name   string
	Email  string
}

// Entry is one row of a group highscore.
type Entry struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// NormalizeOption prepares an option string for comparison: leading and
// trailing whitespace removed, case folded to lowercase. Stored options
// and tips are never modified; only comparisons use the normalized form.
func NormalizeOption(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// winnersByEvent maps event id to the normalized winning option.
func winnersByEvent(events []FinishedEvent) map[uint]string {
	winners := make(map[uint]string, len(events))
	for _, e := range events {
		winners[e.EventID] = NormalizeOption(e.WinningOption)
	}
	return winners
}

// UserPoints returns the flat score for one user: one point per tip that
// matches the winning option of its event. Tips on events not present in
// events are ignored.
//
// This is deliberately simpler than the Highscore bonus rule; the two
// scores are defined independently and must not be unified.
func UserPoints(events []FinishedEvent, tips []TipFact) int {
	winners := winnersByEvent(events)
	points := 0
	for _, tip := range tips {
		winner, ok := winners[tip.EventID]
		if ok && NormalizeOption(tip.SelectedOption) == winner {
			points++
		}
	}
	return points
}

// DisplayName resolves the name shown for a member. Stored names are
// trimmed; empty names and placeholder names of the form "User ..." fall
// back to the member's email, or to a synthetic "User <id>" label when no
// email is known either.
func DisplayName(userID uint, name, email string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.HasPrefix(strings.ToLower(trimmed), "user ") {
		if email != "" {
			return email
		}
		return fmt.Sprintf("User %d", userID)
	}
	return trimmed
}

// Highscore computes the ranked point list for a group.
//
// Per finished event: a single correct tipper earns 3 points, two or more
// correct tippers earn 1 point each, and an event nobody got right awards
// nothing. Points add up across events. Every member gets exactly one
// entry, members without tips or points included. The result is sorted by
// points descending, then case-folded name ascending, then user id, so
// recomputation over the same facts always yields the same list.
func Highscore(events []FinishedEvent, members []Member, tips []TipFact) []Entry {
	if len(members) == 0 {
		return []Entry{}
	}

	winners := winnersByEvent(events)

	correctByEvent := make(map[uint][]uint)
	for _, tip := range tips {
		winner, ok := winners[tip.EventID]
		if ok && NormalizeOption(tip.SelectedOption) == winner {
			correctByEvent[tip.EventID] = append(correctByEvent[tip.EventID], tip.UserID)
		}
	}

	points := make(map[uint]int)
	for _, correct := range correctByEvent {
		if len(correct) == 1 {
			points[correct[0]] += 3
			continue
		}
		for _, userID := range correct {
			points[userID]++
		}
	}

	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		entries = append(entries, Entry{
			UserID: m.UserID,
			Name:   DisplayName(m.UserID, m.Name, m.Email),
			Points: points[m.UserID],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		ni, nj := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if ni != nj {
			return ni < nj
		}
		return entries[i].UserID < entries[j].UserID
	})

	return entries
}
