// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/logo-vote/results"
)

// ComputePollResults loads every rating of a poll and aggregates them.
// Results are computed on demand and never stored.
func ComputePollResults(ctx context.Context, db *sql.DB, pollID string) (results.Results, error) {
	labels, err := getOptionLabels(ctx, db, pollID)
	if err != nil {
		return results.Results{}, fmt.Errorf("failed to load option labels: %w", err)
	}

	ratings, err := getRatings(ctx, db, pollID)
	if err != nil {
		return results.Results{}, fmt.Errorf("failed to load ratings: %w", err)
	}

	voters, err := countVoters(ctx, db, pollID)
	if err != nil {
		return results.Results{}, fmt.Errorf("failed to count voters: %w", err)
	}

	return results.Compute(ratings, voters).WithLabels(labels), nil
}

// getOptionLabels retrieves option labels for a poll
func getOptionLabels(ctx context.Context, db *sql.DB, pollID string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, label FROM option WHERE poll_id = $1
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := make(map[string]string)
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		labels[id] = label
	}

	return labels, rows.Err()
}

func getRatings(ctx context.Context, db *sql.DB, pollID string) ([]results.Rating, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT option_id, value
		FROM rating
		WHERE poll_id = $1
		ORDER BY option_id
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []results.Rating
	for rows.Next() {
		var r results.Rating
		if err := rows.Scan(&r.OptionID, &r.Value); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}

	return ratings, rows.Err()
}

func countVoters(ctx context.Context, db *sql.DB, pollID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT voter_key) FROM rating WHERE poll_id = $1
	`, pollID).Scan(&n)
	return n, err
}
