package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.004", "10"},
		{"10.005", "10.01"},
		{"-10.005", "-10.01"},
		{"10.00", "10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundCents(MustMoney(tt.in)).String(), "round %s", tt.in)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		amount string
		pct    string
		want   string
	}{
		{"126000", "15", "18900"},
		{"10000", "10", "1000"},
		{"100", "0", "0"},
		{"33.33", "50", "16.67"},
	}
	for _, tt := range tests {
		got := Percent(MustMoney(tt.amount), MustMoney(tt.pct))
		assert.Equal(t, tt.want, got.String(), "%s%% of %s", tt.pct, tt.amount)
	}
}
