package invoice

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func intPtr(n int) *int { return &n }

// Stay checked in 2025-01-01 at 14:00, planned checkout 2025-01-06.
func nightsStay() *StaySnapshot {
	return &StaySnapshot{
		CheckinAt:       time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC),
		PlannedCheckout: date(2025, 1, 6),
	}
}

func TestCalcNights_CandidateEqualsPlanned(t *testing.T) {
	res, err := calcNights(nightsStay(), datePtr(2025, 1, 6), date(2025, 1, 4), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PlannedNights != 5 {
		t.Errorf("planned = %d, want 5", res.PlannedNights)
	}
	if res.CalculatedNights != 5 {
		t.Errorf("calculated = %d, want 5", res.CalculatedNights)
	}
	if res.SuggestedToCharge != 5 {
		t.Errorf("suggested = %d, want 5", res.SuggestedToCharge)
	}
	if res.ToCharge != 5 {
		t.Errorf("to charge = %d, want 5", res.ToCharge)
	}

	for _, w := range nightsWarnings(res) {
		if w.Code == CodeNightsDiffer {
			t.Error("NIGHTS_DIFFER must not fire when calculated matches planned")
		}
	}
}

func TestCalcNights_SameDayCheckoutBillsOneNight(t *testing.T) {
	res, err := calcNights(nightsStay(), datePtr(2025, 1, 1), date(2025, 1, 1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.CalculatedNights != 0 {
		t.Errorf("calculated = %d, want 0", res.CalculatedNights)
	}
	if res.SuggestedToCharge != 1 {
		t.Errorf("suggested = %d, want 1 (minimum one night)", res.SuggestedToCharge)
	}

	warnings := nightsWarnings(res)
	codes := warningCodes(warnings)
	if !codes[CodeNightsDiffer] {
		t.Error("expected NIGHTS_DIFFER when planned is 5 and one night is billed")
	}
	if !codes[CodeSameDayCheckout] {
		t.Error("expected SAME_DAY_CHECKOUT info")
	}
}

func TestCalcNights_SameDayOnOneNightBookingDoesNotDiffer(t *testing.T) {
	stay := nightsStay()
	stay.PlannedCheckout = date(2025, 1, 2) // one planned night

	res, err := calcNights(stay, datePtr(2025, 1, 1), date(2025, 1, 1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SuggestedToCharge != 1 {
		t.Fatalf("suggested = %d, want 1", res.SuggestedToCharge)
	}

	if warningCodes(nightsWarnings(res))[CodeNightsDiffer] {
		t.Error("NIGHTS_DIFFER must not fire: floored nights equal planned nights")
	}
}

func TestCalcNights_CandidateDefaults(t *testing.T) {
	t.Run("actual checkout wins", func(t *testing.T) {
		stay := nightsStay()
		stay.ActualCheckout = datePtr(2025, 1, 4)

		res, err := calcNights(stay, nil, date(2025, 1, 10), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Candidate.Equal(date(2025, 1, 4)) {
			t.Errorf("candidate = %s, want 2025-01-04", res.Candidate.Format(time.DateOnly))
		}
	})

	t.Run("falls back to today", func(t *testing.T) {
		res, err := calcNights(nightsStay(), nil, date(2025, 1, 3), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Candidate.Equal(date(2025, 1, 3)) {
			t.Errorf("candidate = %s, want 2025-01-03", res.Candidate.Format(time.DateOnly))
		}
	})
}

func TestCalcNights_Override(t *testing.T) {
	res, err := calcNights(nightsStay(), datePtr(2025, 1, 6), date(2025, 1, 6), intPtr(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ToCharge != 7 {
		t.Errorf("to charge = %d, want 7", res.ToCharge)
	}
	if !res.OverrideApplied {
		t.Error("override_applied must be true")
	}
	if !warningCodes(nightsWarnings(res))[CodeNightsOverride] {
		t.Error("expected NIGHTS_OVERRIDE info")
	}
}

func TestCalcNights_OverrideBelowMinimumRejected(t *testing.T) {
	_, err := calcNights(nightsStay(), datePtr(2025, 1, 6), date(2025, 1, 6), intPtr(0))
	if err == nil {
		t.Fatal("expected validation error for nights override < 1")
	}
}

func TestCalcNights_CheckoutBeforeCheckinRejected(t *testing.T) {
	_, err := calcNights(nightsStay(), datePtr(2024, 12, 31), date(2025, 1, 2), nil)
	if err == nil {
		t.Fatal("expected hard error for candidate before check-in")
	}
}

func warningCodes(ws []Warning) map[string]bool {
	out := make(map[string]bool, len(ws))
	for _, w := range ws {
		out[w.Code] = true
	}
	return out
}
