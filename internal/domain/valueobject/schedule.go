package valueobject

import "time"

// Schedule carries the credit and expiration instants derived for an
// earned-cashback record. Both are stored as UTC instants, but the day
// boundaries they encode are taken on the campaign's local calendar:
// the stored UTC verification instant is first reinterpreted as a local
// calendar day, and the resulting day boundary is re-encoded back to UTC.
type Schedule struct {
	CreditDate time.Time
	ExpireDate time.Time
}

// NewSchedule computes the credit and expiration instants for a sale verified
// at the given instant. The credit date is local midnight of the verification
// day plus daysToCredit; the expiration is the local end of day daysToRescue
// days after the credit date.
func NewSchedule(verifiedAt time.Time, loc *time.Location, daysToCredit, daysToRescue int) Schedule {
	credit := StartOfDay(verifiedAt, loc).AddDate(0, 0, daysToCredit)
	expire := EndOfDay(credit.AddDate(0, 0, daysToRescue), loc)
	return Schedule{
		CreditDate: credit.UTC(),
		ExpireDate: expire.UTC(),
	}
}

// StartOfDay returns midnight of t's calendar day in the given location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last nanosecond of t's calendar day in the given location.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}
