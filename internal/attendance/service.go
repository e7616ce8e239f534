package attendance

import (
	"context"
	"fmt"
	"time"

	"hosteldesk/internal/apperr"
	"hosteldesk/internal/metrics"
)

// Ledger is the persistence surface the service needs.
type Ledger interface {
	Upsert(ctx context.Context, studentID, date, status string) (Record, error)
	InsertIfMissing(ctx context.Context, studentID, date, status string) (bool, error)
	Get(ctx context.Context, studentID, date string) (*Record, error)
	MapForDate(ctx context.Context, date string) (map[string]Record, error)
}

// Service coordinates marking, status resolution and the auto-absence sweep.
type Service struct {
	ledger Ledger
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a service evaluating the marking window in loc.
func NewService(ledger Ledger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{ledger: ledger, loc: loc, now: time.Now}
}

// WithNow overrides the service's time source.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the current time in the service's zone.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// Today returns the current calendar date in the service's zone.
func (s *Service) Today() string { return s.Now().Format(DateLayout) }

// Mark records attendance for the calling student on today's date. Only
// allowed while the marking window is open; repeated marks in the same
// window overwrite. Anything other than "absent" is stored as "present".
func (s *Service) Mark(ctx context.Context, studentID, status string) (Record, error) {
	now := s.Now()
	if !InWindow(now) {
		return Record{}, apperr.Validation(fmt.Sprintf(
			"attendance can only be marked between %d:00 and %d:00", WindowOpenHour, WindowCloseHour))
	}
	if status != StatusAbsent {
		status = StatusPresent
	}
	rec, err := s.ledger.Upsert(ctx, studentID, now.Format(DateLayout), status)
	if err != nil {
		return Record{}, err
	}
	metrics.AttendanceMarks.WithLabelValues(status).Inc()
	return rec, nil
}

// ResolveFor returns the displayed status for a student on a date.
func (s *Service) ResolveFor(ctx context.Context, studentID, date string) (string, error) {
	rec, err := s.ledger.Get(ctx, studentID, date)
	if err != nil {
		return "", err
	}
	return Resolve(rec, date, s.Now()), nil
}

// RecordsFor returns the stored records for a date keyed by student id.
func (s *Service) RecordsFor(ctx context.Context, date string) (map[string]Record, error) {
	return s.ledger.MapForDate(ctx, date)
}

// Locker serializes a sweep date across instances.
type Locker interface {
	AcquireDailyLock(ctx context.Context, key string, ttl time.Duration) bool
	ReleaseDailyLock(ctx context.Context, key string)
}

// GuardedSweep runs Sweep under a per-date lock. The lock is released when
// the pass fails, keeping the date re-runnable; a successful pass keeps it
// so other instances skip the date. ran is false when another instance
// already holds the lock.
func (s *Service) GuardedSweep(ctx context.Context, lock Locker, date string, studentIDs []string) (inserted int, ran bool, err error) {
	key := "hosteldesk:sweep:" + date
	if !lock.AcquireDailyLock(ctx, key, 24*time.Hour) {
		return 0, false, nil
	}
	inserted, err = s.Sweep(ctx, date, studentIDs)
	if err != nil {
		lock.ReleaseDailyLock(ctx, key)
	}
	return inserted, true, err
}

// Sweep backfills an absent record for every listed student without a
// record on date. Safe to re-run: existing rows, including genuine marks,
// are never touched. Returns the number of rows inserted.
func (s *Service) Sweep(ctx context.Context, date string, studentIDs []string) (int, error) {
	existing, err := s.ledger.MapForDate(ctx, date)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, id := range studentIDs {
		if _, ok := existing[id]; ok {
			continue
		}
		ok, err := s.ledger.InsertIfMissing(ctx, id, date, StatusAbsent)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
			metrics.SweepBackfills.Inc()
		}
	}
	return inserted, nil
}
