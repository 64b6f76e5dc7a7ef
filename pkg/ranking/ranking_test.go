package ranking

import (
	"errors"
	"testing"

	"resumescout/pkg/ai"
)

func TestSelectTopSortsDescending(t *testing.T) {
	matches := []ai.EvaluatorMatch{
		{ResumeID: float64(1), FullName: "Low", Score: float64(30)},
		{ResumeID: float64(2), FullName: "High", Score: float64(90)},
		{ResumeID: float64(3), FullName: "Mid", Score: float64(60)},
	}
	top, dropped, err := SelectTop(matches, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 0 {
		t.Fatalf("unexpected dropped count: %d", dropped)
	}
	scores := []int{top[0].Score, top[1].Score, top[2].Score}
	if scores[0] != 90 || scores[1] != 60 || scores[2] != 30 {
		t.Fatalf("not sorted descending: %v", scores)
	}
	for i, m := range top {
		if m.Rank != i+1 {
			t.Fatalf("rank mismatch at %d: %d", i, m.Rank)
		}
	}
}

func TestSelectTopStableTies(t *testing.T) {
	matches := []ai.EvaluatorMatch{
		{ResumeID: float64(10), FullName: "First", Score: float64(70)},
		{ResumeID: float64(20), FullName: "Second", Score: float64(70)},
		{ResumeID: float64(30), FullName: "Third", Score: float64(70)},
	}
	top, _, err := SelectTop(matches, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top[0].DocumentID != 10 || top[1].DocumentID != 20 || top[2].DocumentID != 30 {
		t.Fatalf("tie order not preserved: %v", []int64{top[0].DocumentID, top[1].DocumentID, top[2].DocumentID})
	}
}

func TestSelectTopDropsInvalidEntries(t *testing.T) {
	matches := []ai.EvaluatorMatch{
		{ResumeID: float64(1), Score: float64(101)},       // out of range
		{ResumeID: float64(2), Score: float64(-1)},        // out of range
		{ResumeID: "not-a-number", Score: float64(50)},    // bad id
		{ResumeID: float64(3), Score: "fifty"},            // bad score
		{ResumeID: "4", Score: "88"},                      // string forms coerce
		{ResumeID: float64(5), Score: float64(100)},       // boundary
		{ResumeID: float64(6), Score: float64(0)},         // boundary
	}
	top, dropped, err := SelectTop(matches, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 4 {
		t.Fatalf("expected 4 dropped, got %d", dropped)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 kept, got %d", len(top))
	}
	if top[0].Score != 100 || top[0].DocumentID != 5 {
		t.Fatalf("unexpected best match: %+v", top[0])
	}
	if top[1].Score != 88 || top[1].DocumentID != 4 {
		t.Fatalf("string coercion failed: %+v", top[1])
	}
}

func TestSelectTopLimitsToN(t *testing.T) {
	matches := make([]ai.EvaluatorMatch, 0, 8)
	for i := 1; i <= 8; i++ {
		matches = append(matches, ai.EvaluatorMatch{ResumeID: float64(i), Score: float64(i * 10)})
	}
	top, _, err := SelectTop(matches, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 5 {
		t.Fatalf("expected 5 results, got %d", len(top))
	}
	if top[0].Score != 80 || top[4].Score != 40 {
		t.Fatalf("unexpected selection: first %d last %d", top[0].Score, top[4].Score)
	}
}

func TestSelectTopNoValidMatches(t *testing.T) {
	matches := []ai.EvaluatorMatch{
		{ResumeID: "x", Score: float64(50)},
		{ResumeID: float64(1), Score: float64(400)},
	}
	_, dropped, err := SelectTop(matches, 5)
	if !errors.Is(err, ErrNoValidMatches) {
		t.Fatalf("expected ErrNoValidMatches, got %v", err)
	}
	if dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", dropped)
	}
}

func TestSelectTopEmptyInput(t *testing.T) {
	if _, _, err := SelectTop(nil, 5); !errors.Is(err, ErrNoValidMatches) {
		t.Fatalf("expected ErrNoValidMatches, got %v", err)
	}
}
