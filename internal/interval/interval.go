// Package interval implements half-open time interval conflict checking.
package interval

import "time"

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the span is well formed (End strictly after Start).
func (s Span) Valid() bool {
	return s.End.After(s.Start)
}

// Overlaps reports whether two half-open intervals intersect.
// [a1,a2) and [b1,b2) overlap iff a1 < b2 && b1 < a2, so a span ending
// exactly when another starts is not a conflict.
func (s Span) Overlaps(o Span) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// Checker decides whether a candidate span conflicts with a set of
// existing spans. The linear implementation is sufficient at current
// scale; the interface exists so an interval tree can replace it without
// touching callers.
type Checker interface {
	// FirstConflict returns the index of the first existing span that
	// overlaps candidate, or -1 if none does.
	FirstConflict(candidate Span, existing []Span) int
}

// LinearChecker scans candidates in order, O(n).
type LinearChecker struct{}

// FirstConflict implements Checker.
func (LinearChecker) FirstConflict(candidate Span, existing []Span) int {
	for i, span := range existing {
		if candidate.Overlaps(span) {
			return i
		}
	}
	return -1
}

// Conflicts reports whether candidate overlaps any existing span.
func Conflicts(c Checker, candidate Span, existing []Span) bool {
	return c.FirstConflict(candidate, existing) >= 0
}
