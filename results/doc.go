// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results turns raw ratings into a ranked summary per option.

# Computation

Compute is a pure function of its inputs:

	res := results.Compute(ratings, voterCount)

For each option that received at least one rating:

  - total_score: sum of rating values
  - total_votes: number of ratings
  - average: total_score / total_votes rounded to 2 decimal places, ties to even

Options nobody rated are left out of the output.

# Ranking

Options are ordered by:

 1. average (descending)
 2. total_score (descending)
 3. option ID (ascending)

The ranking field is the 1-based position in that order. Ties never share a
rank, so N rated options always get exactly the ranks 1..N.

# Empty Input

No ratings yields an empty option list and total_voters = 0.
*/
package results
