package invoice

import (
	"fmt"
	"time"

	"posada/internal/core/apperror"
)

// MinimumNights is the billing floor: a same-day checkout still bills one
// night. Hard-coded hotel policy; a configurability candidate.
const MinimumNights = 1

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from a to b (date precision).
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

// nightsResult carries every intermediate of the nights derivation.
type nightsResult struct {
	Checkin           time.Time
	Candidate         time.Time
	Planned           time.Time
	PlannedNights     int
	CalculatedNights  int
	SuggestedToCharge int
	ToCharge          int
	OverrideApplied   bool
	OverrideValue     *int
}

// calcNights derives billable nights from planned vs. actual dates.
//
// The candidate checkout defaults to the actual checkout when recorded,
// else today, else the planned checkout. A candidate before the check-in
// date is a hard error; everything else degrades to warnings.
func calcNights(stay *StaySnapshot, candidate *time.Time, now time.Time, override *int) (nightsResult, error) {
	res := nightsResult{
		Checkin: dateOf(stay.CheckinAt),
		Planned: dateOf(stay.PlannedCheckout),
	}

	switch {
	case candidate != nil:
		res.Candidate = dateOf(*candidate)
	case stay.ActualCheckout != nil:
		res.Candidate = dateOf(*stay.ActualCheckout)
	case !now.IsZero():
		res.Candidate = dateOf(now)
	default:
		res.Candidate = res.Planned
	}

	if res.Candidate.Before(res.Checkin) {
		return res, apperror.NewCheckoutBeforeCheckin(
			res.Checkin.Format(time.DateOnly),
			res.Candidate.Format(time.DateOnly),
		)
	}

	res.PlannedNights = max(0, daysBetween(res.Checkin, res.Planned))
	res.CalculatedNights = daysBetween(res.Checkin, res.Candidate)
	res.SuggestedToCharge = max(MinimumNights, res.CalculatedNights)

	if override != nil {
		if *override < MinimumNights {
			return res, apperror.NewValidation("nights override must be >= 1").
				WithDetail("nights_override", *override)
		}
		res.ToCharge = *override
		res.OverrideApplied = true
		res.OverrideValue = override
	} else {
		res.ToCharge = res.SuggestedToCharge
	}

	return res, nil
}

// nightsWarnings emits diagnostics for the nights derivation.
func nightsWarnings(res nightsResult) []Warning {
	var out []Warning

	if res.OverrideApplied {
		out = append(out, Warning{
			Code:     CodeNightsOverride,
			Message:  fmt.Sprintf("Nights override applied: %d (calculated: %d)", res.ToCharge, res.CalculatedNights),
			Severity: SeverityInfo,
		})
	}

	// Compared after the one-night floor so that a same-day checkout on a
	// one-night booking does not flag.
	if res.SuggestedToCharge != res.PlannedNights {
		out = append(out, Warning{
			Code:     CodeNightsDiffer,
			Message:  fmt.Sprintf("Calculated nights (%d) differ from planned (%d)", res.CalculatedNights, res.PlannedNights),
			Severity: SeverityWarning,
		})
	}

	if res.CalculatedNights == 0 {
		out = append(out, Warning{
			Code:     CodeSameDayCheckout,
			Message:  "Checkout on the check-in day; minimum one night is billed",
			Severity: SeverityInfo,
		})
	}

	return out
}
