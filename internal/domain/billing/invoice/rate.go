package invoice

import (
	"fmt"

	"posada/internal/core/apperror"
	"posada/internal/core/types"
)

// rateResolution is the outcome of the rate priority chain.
type rateResolution struct {
	Rate            types.Money
	Source          RateSource
	OverrideApplied bool
}

// resolveRate picks the nightly rate from the priority chain:
// explicit override, stay-level negotiated rate, room-type base rate,
// then "missing" with a zero rate.
func resolveRate(stay *StaySnapshot, override *types.Money) (rateResolution, error) {
	if override != nil {
		if override.IsNegative() {
			return rateResolution{}, apperror.NewValidation("rate override must be >= 0").
				WithDetail("rate_override", override.String())
		}
		return rateResolution{Rate: *override, Source: RateFromOverride, OverrideApplied: true}, nil
	}

	if stay.NegotiatedRate != nil {
		return rateResolution{Rate: *stay.NegotiatedRate, Source: RateFromStay}, nil
	}

	if stay.Room.BaseRate != nil {
		return rateResolution{Rate: *stay.Room.BaseRate, Source: RateFromRoomType}, nil
	}

	return rateResolution{Rate: types.Zero(), Source: RateMissing}, nil
}

// rateWarnings emits diagnostics for the resolved rate.
func rateWarnings(res rateResolution, roomTypeName string) []Warning {
	var out []Warning

	if res.Source == RateMissing {
		out = append(out, Warning{
			Code:     CodeMissingRate,
			Message:  fmt.Sprintf("No nightly rate configured for %s", roomTypeName),
			Severity: SeverityError,
		})
	}

	if res.OverrideApplied {
		out = append(out, Warning{
			Code:     CodeRateOverride,
			Message:  fmt.Sprintf("Nightly rate overridden: %s per night", res.Rate.StringFixed(2)),
			Severity: SeverityInfo,
		})
	}

	return out
}
