package invoice

import (
	"testing"

	"posada/internal/core/types"
)

func moneyPtr(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func TestResolveRate_PriorityChain(t *testing.T) {
	tests := []struct {
		name       string
		override   *types.Money
		stayRate   *types.Money
		baseRate   *types.Money
		wantRate   string
		wantSource RateSource
	}{
		{
			name:       "override wins over everything",
			override:   moneyPtr("18000"),
			stayRate:   moneyPtr("15000"),
			baseRate:   moneyPtr("12000"),
			wantRate:   "18000",
			wantSource: RateFromOverride,
		},
		{
			name:       "override zero is still an override",
			override:   moneyPtr("0"),
			stayRate:   moneyPtr("15000"),
			wantRate:   "0",
			wantSource: RateFromOverride,
		},
		{
			name:       "stay negotiated rate beats room type",
			stayRate:   moneyPtr("15000"),
			baseRate:   moneyPtr("12000"),
			wantRate:   "15000",
			wantSource: RateFromStay,
		},
		{
			name:       "room type base rate as fallback",
			baseRate:   moneyPtr("12000"),
			wantRate:   "12000",
			wantSource: RateFromRoomType,
		},
		{
			name:       "nothing configured",
			wantRate:   "0",
			wantSource: RateMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stay := &StaySnapshot{
				NegotiatedRate: tt.stayRate,
				Room:           &Room{RoomTypeName: "Double", BaseRate: tt.baseRate},
			}

			res, err := resolveRate(stay, tt.override)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Source != tt.wantSource {
				t.Errorf("source = %s, want %s", res.Source, tt.wantSource)
			}
			if res.Rate.String() != tt.wantRate {
				t.Errorf("rate = %s, want %s", res.Rate.String(), tt.wantRate)
			}
		})
	}
}

func TestResolveRate_NegativeOverrideRejected(t *testing.T) {
	stay := &StaySnapshot{Room: &Room{}}

	_, err := resolveRate(stay, moneyPtr("-1"))
	if err == nil {
		t.Fatal("expected validation error for negative rate override")
	}
}

func TestRateWarnings_MissingRate(t *testing.T) {
	warnings := rateWarnings(rateResolution{Source: RateMissing}, "Suite")

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Code != CodeMissingRate {
		t.Errorf("code = %s, want %s", warnings[0].Code, CodeMissingRate)
	}
	if warnings[0].Severity != SeverityError {
		t.Errorf("severity = %s, want error", warnings[0].Severity)
	}
}
