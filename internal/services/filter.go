package services

import (
	"time"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

const (
	MinTopN     = 5
	MaxTopN     = 20
	DefaultTopN = 10
)

// Selection is an immutable snapshot of the global filters. A nil slice
// means "all observed values"; a non-nil empty slice means the user
// deliberately emptied that selector, which matches nothing.
type Selection struct {
	Regions    []string
	Categories []string
	Segments   []string
	SalesReps  []string
	Start      time.Time
	End        time.Time
	TopN       int
}

// Normalize clamps the date range to the observed bounds of the dataset,
// fills zero dates from those bounds and clamps TopN to the slider range.
// A start date after the end date is a validation error.
func (s *Store) Normalize(sel Selection) (Selection, error) {
	minDate, maxDate := s.DateBounds()

	if sel.Start.IsZero() || sel.Start.Before(minDate) {
		sel.Start = minDate
	}
	if sel.End.IsZero() || sel.End.After(maxDate) {
		sel.End = maxDate
	}
	if sel.Start.After(sel.End) {
		return Selection{}, errors.Validation("start date must not be after end date")
	}

	switch {
	case sel.TopN == 0:
		sel.TopN = DefaultTopN
	case sel.TopN < MinTopN:
		sel.TopN = MinTopN
	case sel.TopN > MaxTopN:
		sel.TopN = MaxTopN
	}
	return sel, nil
}

// Filter returns the rows matching every active predicate: membership in
// each dimension's selection set and an inclusive date range. The source
// rows are never mutated.
func (s *Store) Filter(sel Selection) []models.Transaction {
	regions := toSet(sel.Regions)
	categories := toSet(sel.Categories)
	segments := toSet(sel.Segments)

	var view []models.Transaction
	for _, tx := range s.Rows() {
		if !member(regions, sel.Regions, tx.Region) {
			continue
		}
		if !member(categories, sel.Categories, tx.Category) {
			continue
		}
		if !member(segments, sel.Segments, tx.Segment) {
			continue
		}
		if tx.OrderDate.Before(sel.Start) || tx.OrderDate.After(sel.End) {
			continue
		}
		view = append(view, tx)
	}
	return view
}

// FilterReps applies the secondary sales-rep selection on top of an
// already filtered view.
func FilterReps(view []models.Transaction, reps []string) []models.Transaction {
	if reps == nil {
		return view
	}
	set := toSet(reps)
	var out []models.Transaction
	for _, tx := range view {
		if _, ok := set[tx.SalesRep]; ok {
			out = append(out, tx)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if values == nil {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// member treats a nil selection as "all". An empty non-nil selection
// matches nothing: emptying a selector yields an empty view.
func member(set map[string]struct{}, selection []string, value string) bool {
	if selection == nil {
		return true
	}
	_, ok := set[value]
	return ok
}
