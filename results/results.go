// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"math"
	"sort"
)

// Rating is one voter's score for one option
type Rating struct {
	OptionID string
	Value    int
}

// OptionSummary is recomputed on every query and never stored
type OptionSummary struct {
	OptionID   string  `json:"option_id"`
	Label      string  `json:"label,omitempty"`
	Average    float64 `json:"average"`
	TotalScore int     `json:"total_score"`
	TotalVotes int     `json:"total_votes"`
	Ranking    int     `json:"ranking"` // 1-indexed position
}

// Results holds option summaries ordered best to worst
type Results struct {
	TotalVoters int             `json:"total_voters"`
	Options     []OptionSummary `json:"options"`
}

// Compute aggregates ratings into ranked per-option summaries.
// Values are trusted to be inside the rating range already.
func Compute(ratings []Rating, voterCount int) Results {
	if len(ratings) == 0 {
		return Results{TotalVoters: 0, Options: []OptionSummary{}}
	}

	// Group by option, keeping only options that were actually rated
	byOption := make(map[string]*OptionSummary)
	for _, r := range ratings {
		s, ok := byOption[r.OptionID]
		if !ok {
			s = &OptionSummary{OptionID: r.OptionID}
			byOption[r.OptionID] = s
		}
		s.TotalScore += r.Value
		s.TotalVotes++
	}

	summaries := make([]OptionSummary, 0, len(byOption))
	for _, s := range byOption {
		s.Average = round2(float64(s.TotalScore) / float64(s.TotalVotes))
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]

		// 1. Higher average wins
		if a.Average != b.Average {
			return a.Average > b.Average
		}

		// 2. Higher total score wins
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}

		// 3. Stable tie-breaking by option ID (ascending)
		return a.OptionID < b.OptionID
	})

	// Ranks are positional, ties never share a rank
	for i := range summaries {
		summaries[i].Ranking = i + 1
	}

	return Results{
		TotalVoters: voterCount,
		Options:     summaries,
	}
}

// ByOption indexes the summaries by option ID
func (r Results) ByOption() map[string]OptionSummary {
	m := make(map[string]OptionSummary, len(r.Options))
	for _, s := range r.Options {
		m[s.OptionID] = s
	}
	return m
}

// WithLabels fills in option labels; unknown IDs keep an empty label
func (r Results) WithLabels(labels map[string]string) Results {
	out := Results{TotalVoters: r.TotalVoters, Options: make([]OptionSummary, len(r.Options))}
	for i, s := range r.Options {
		s.Label = labels[s.OptionID]
		out.Options[i] = s
	}
	return out
}

// round2 rounds to two decimals, ties to even: 0.125 -> 0.12, 0.375 -> 0.38
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
