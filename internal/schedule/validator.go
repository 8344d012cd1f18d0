package schedule

import "errors"

// ConflictMessage is the user-facing rejection text.
const ConflictMessage = "This event overlaps with an existing event. Please change another time"

// ErrScheduleConflict is the error kind returned when a candidate window
// overlaps a booked one. Use errors.Is to detect it and errors.As with
// *ConflictError to read the offending windows.
var ErrScheduleConflict = errors.New(ConflictMessage)

// ConflictError carries the candidate and every booked window it overlaps.
type ConflictError struct {
	Candidate Interval
	Conflicts []Interval
}

func (e *ConflictError) Error() string { return ConflictMessage }

// Is lets errors.Is(err, ErrScheduleConflict) match.
func (e *ConflictError) Is(target error) bool { return target == ErrScheduleConflict }

// Validate checks candidate against the booked windows. existing must not
// contain the record being edited; self is that record's stored window, or
// nil for a new record. Re-saving an unchanged window always succeeds.
//
// Status is not considered: every booked window blocks, whatever its review
// state.
func Validate(candidate Interval, existing []Interval, self *Interval) error {
	if self != nil && self.Equal(candidate) {
		return nil
	}
	var conflicts []Interval
	for _, iv := range existing {
		if Overlaps(candidate, iv) {
			conflicts = append(conflicts, iv)
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Candidate: candidate, Conflicts: conflicts}
	}
	return nil
}
