// Package types contains read shapes shared by the service and its API.
package types

import "github.com/okian/playground/internal/domain/model"

// Entry is one row of a seeker's candidate ranking.
type Entry struct {
	Rank        int     `json:"rank"`
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"full_name"`
	Email       string  `json:"email"`
	Score       float64 `json:"score"`
	Percent     int     `json:"percent"`
}

// NewEntry builds a ranking row for candidate at the 1-based rank.
func NewEntry(rank int, candidate model.Profile, score float64) Entry {
	return Entry{
		Rank:        rank,
		CandidateID: candidate.ID,
		Name:        candidate.Name,
		Email:       candidate.Email,
		Score:       score,
		Percent:     model.Percent(score),
	}
}
