package attendance

import "time"

// DateLayout is the calendar-date key format. ISO dates compare
// lexicographically, which the resolver relies on.
const DateLayout = "2006-01-02"

// Stored statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Derived statuses, never persisted. The sweep promotes StatusNotResponded
// for past window-closed days into stored StatusAbsent rows.
const (
	StatusPending      = "pending"
	StatusNotResponded = "not_responded_absent"
)

// Marking window, hours in the configured local zone. The upper bound is
// exclusive: 21:59 is in, 22:00 is out.
const (
	WindowOpenHour  = 19
	WindowCloseHour = 22
)

// Record is one attendance ledger row. At most one exists per
// (student, date) pair.
type Record struct {
	StudentID string    `json:"studentId"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resolve computes the displayed status for a date given an optional stored
// record and the current local time. Stored facts win; otherwise past dates
// are missed check-ins, future dates are undetermined, and today flips from
// pending to not_responded_absent when the marking window closes.
func Resolve(stored *Record, date string, now time.Time) string {
	if stored != nil {
		return stored.Status
	}
	today := now.Format(DateLayout)
	switch {
	case date < today:
		return StatusNotResponded
	case date > today:
		return StatusPending
	case now.Hour() >= WindowCloseHour:
		return StatusNotResponded
	default:
		return StatusPending
	}
}

// InWindow reports whether marking is allowed at the given local time.
func InWindow(now time.Time) bool {
	h := now.Hour()
	return h >= WindowOpenHour && h < WindowCloseHour
}
