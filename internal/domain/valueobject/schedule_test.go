package valueobject

import (
	"testing"
	"time"
)

func TestNewSchedule(t *testing.T) {
	saoPaulo := time.FixedZone("America/Sao_Paulo", -3*60*60)

	t.Run("anchors the credit date at local midnight", func(t *testing.T) {
		// 01:30 UTC on June 15 is still June 14 in UTC-3.
		verifiedAt := time.Date(2024, 6, 15, 1, 30, 0, 0, time.UTC)

		schedule := NewSchedule(verifiedAt, saoPaulo, 5, 90)

		wantCredit := time.Date(2024, 6, 19, 0, 0, 0, 0, saoPaulo).UTC()
		if !schedule.CreditDate.Equal(wantCredit) {
			t.Errorf("expected credit %v, got %v", wantCredit, schedule.CreditDate)
		}
		if schedule.CreditDate.Location() != time.UTC {
			t.Errorf("expected UTC storage, got %v", schedule.CreditDate.Location())
		}
	})

	t.Run("expires at local end of day after the rescue window", func(t *testing.T) {
		verifiedAt := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

		schedule := NewSchedule(verifiedAt, saoPaulo, 5, 90)

		wantExpire := time.Date(2024, 9, 18, 23, 59, 59, int(time.Second-time.Nanosecond), saoPaulo).UTC()
		if !schedule.ExpireDate.Equal(wantExpire) {
			t.Errorf("expected expire %v, got %v", wantExpire, schedule.ExpireDate)
		}
	})

	t.Run("zero credit days releases on the verification day", func(t *testing.T) {
		verifiedAt := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

		schedule := NewSchedule(verifiedAt, saoPaulo, 0, 30)

		wantCredit := time.Date(2024, 6, 15, 0, 0, 0, 0, saoPaulo).UTC()
		if !schedule.CreditDate.Equal(wantCredit) {
			t.Errorf("expected credit %v, got %v", wantCredit, schedule.CreditDate)
		}
	})
}

func TestDayBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	instant := time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC) // June 14, 23:00 in UTC-3

	start := StartOfDay(instant, loc)
	if start.Day() != 14 || start.Hour() != 0 {
		t.Errorf("expected local midnight of June 14, got %v", start)
	}

	end := EndOfDay(instant, loc)
	if end.Day() != 14 || end.Hour() != 23 || end.Nanosecond() != int(time.Second-time.Nanosecond) {
		t.Errorf("expected local end of June 14, got %v", end)
	}
}
