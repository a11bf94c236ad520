// Package policy holds the calendar rules of the booking desk: how far in
// advance a room must be booked, which weekday is closed, and how much lead
// time a cancellation needs.  All dates are calendar dates expressed as
// midnight UTC (see model.DateOf); time of day never matters.
package policy

import (
	"time"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

const (
	DefaultAdvanceDays          = 2
	DefaultCancellationLeadDays = 2
)

// DisplayLayout is the mm-dd-yyyy form used in messages and by the
// interactive client.
const DisplayLayout = "01-02-2006"

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.  Used by tests and by
// tooling that replays a given day.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Policy carries the tunable booking rules.
type Policy struct {
	AdvanceDays          int            // minimum days between today and the booked date
	CancellationLeadDays int            // minimum days left before the date to cancel
	Location             *time.Location // zone that decides what "today" is
}

// Default returns the standard rules: two days advance notice, two days of
// cancellation lead time, today taken in the local zone.
func Default() Policy {
	return Policy{
		AdvanceDays:          DefaultAdvanceDays,
		CancellationLeadDays: DefaultCancellationLeadDays,
		Location:             time.Local,
	}
}

// Today returns the current calendar date according to clock.
func (p Policy) Today(clock Clock) time.Time {
	now := clock.Now()
	if p.Location != nil {
		now = now.In(p.Location)
	}
	return model.DateOf(now)
}

// DaysUntil counts whole calendar days from today to date.  It is negative
// for dates in the past.
func DaysUntil(date, today time.Time) int {
	return int(model.DateOf(date).Sub(model.DateOf(today)).Hours() / 24)
}

// MinBookableDate is the earliest date a reservation may be created for.
func (p Policy) MinBookableDate(today time.Time) time.Time {
	return model.DateOf(today).AddDate(0, 0, p.AdvanceDays)
}

// CheckAdvance rejects dates closer than the advance notice.  The boundary
// is inclusive: exactly AdvanceDays ahead is accepted.
func (p Policy) CheckAdvance(date, today time.Time) error {
	min := p.MinBookableDate(today)
	if model.DateOf(date).Before(min) {
		return apperror.Validation("reservation date must be at least %d days after today; earliest date is %s",
			p.AdvanceDays, min.Format(DisplayLayout))
	}
	return nil
}

// IsSunday reports whether date falls on a Sunday, the closed day.
func IsSunday(date time.Time) bool {
	return date.Weekday() == time.Sunday
}

// CheckOpenDay rejects Sundays.
func CheckOpenDay(date time.Time) error {
	if IsSunday(date) {
		return apperror.Validation("reservations are not accepted on Sundays; next available date is %s",
			NextMonday(date).Format(DisplayLayout))
	}
	return nil
}

// NextMonday returns the first Monday strictly after date.  A Sunday
// advances one day; a Monday advances a full week.
func NextMonday(date time.Time) time.Time {
	d := model.DateOf(date)
	days := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return d.AddDate(0, 0, days)
}

// ProposeDate returns the date a booking desk should offer for date: the
// next Monday when date is a Sunday, date itself otherwise.  The boolean
// reports whether the date was moved.
func ProposeDate(date time.Time) (time.Time, bool) {
	if IsSunday(date) {
		return NextMonday(date), true
	}
	return model.DateOf(date), false
}

// CheckCancellation enforces the cancellation lead time, evaluated against
// the current date rather than the creation date.
func (p Policy) CheckCancellation(date, today time.Time) error {
	days := DaysUntil(date, today)
	if days < p.CancellationLeadDays {
		return apperror.Validation("cancellation requires at least %d days before the reservation date; days remaining: %d",
			p.CancellationLeadDays, days)
	}
	return nil
}
