package domain

import "time"

// DateRange bounds transaction creation time, both ends inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range. A zero bound is open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// GraphFilter declares which parts of a graph stay visible.
type GraphFilter struct {
	ShowUsers         bool               `json:"showUsers"`
	ShowTransactions  bool               `json:"showTransactions"`
	RelationshipKinds []RelationshipKind `json:"relationshipTypes"`
	MinAmount         *float64           `json:"minAmount,omitempty"`
	MaxAmount         *float64           `json:"maxAmount,omitempty"`
	DateRange         *DateRange         `json:"dateRange,omitempty"`
}
