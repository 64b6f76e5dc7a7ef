// Package ranking validates evaluator matches and selects the top
// candidates deterministically.
package ranking

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"resumescout/pkg/ai"
	"resumescout/pkg/domain"
)

// ErrNoValidMatches means every evaluator entry was dropped during
// validation.
var ErrNoValidMatches = errors.New("no valid matches")

// SelectTop coerces ids and scores to integers, drops entries that fail
// coercion or whose score is outside [0,100], sorts the remainder by
// score descending (ties keep evaluator order), and returns the first n.
// The second result is the number of dropped entries.
func SelectTop(matches []ai.EvaluatorMatch, n int) ([]domain.Match, int, error) {
	valid := make([]domain.Match, 0, len(matches))
	dropped := 0
	for _, m := range matches {
		id, ok := coerceInt64(m.ResumeID)
		if !ok {
			dropped++
			continue
		}
		score, ok := coerceInt(m.Score)
		if !ok || score < 0 || score > 100 {
			dropped++
			continue
		}
		valid = append(valid, domain.Match{
			DocumentID: id,
			FullName:   strings.TrimSpace(m.FullName),
			Score:      score,
			Details:    m.Details,
		})
	}
	if len(valid) == 0 {
		return nil, dropped, ErrNoValidMatches
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Score > valid[j].Score
	})
	if n > 0 && len(valid) > n {
		valid = valid[:n]
	}
	for i := range valid {
		valid[i].Rank = i + 1
	}
	return valid, dropped, nil
}

func coerceInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case float64:
		if val != float64(int64(val)) {
			return 0, false
		}
		return int64(val), true
	case int64:
		return val, true
	case int:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func coerceInt(v any) (int, bool) {
	n, ok := coerceInt64(v)
	if !ok {
		return 0, false
	}
	return int(n), true
}
