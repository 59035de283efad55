package engine

import (
	"math"
	"testing"
)

func TestProportionalShare(t *testing.T) {
	cases := []struct {
		name                            string
		amount, totalPool, totalWinning uint64
		want                            uint64
	}{
		{"spec scenario", 100, 1000, 700, 142},
		{"whole pool to sole winner", 300, 400, 300, 400},
		{"zero amount", 0, 1000, 700, 0},
		{"zero winning side", 0, 500, 0, 0},
		{"no losers", 500, 500, 500, 500},
		{"wide intermediate", math.MaxUint64 / 2, math.MaxUint64, math.MaxUint64 / 2, math.MaxUint64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := proportionalShare(tc.amount, tc.totalPool, tc.totalWinning); got != tc.want {
				t.Errorf("proportionalShare(%d, %d, %d) = %d, want %d",
					tc.amount, tc.totalPool, tc.totalWinning, got, tc.want)
			}
		})
	}
}

func TestFeeCut(t *testing.T) {
	cases := []struct {
		name       string
		share, bps uint64
		want       uint64
	}{
		{"spec scenario", 142, 200, 2},
		{"end to end scenario", 400, 200, 8},
		{"zero fee", 400, 0, 0},
		{"max fee", 10000, 1000, 1000},
		{"truncates", 49, 200, 0},
		{"wide intermediate", math.MaxUint64, 1000, math.MaxUint64 / 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := feeCut(tc.share, tc.bps); got != tc.want {
				t.Errorf("feeCut(%d, %d) = %d, want %d", tc.share, tc.bps, got, tc.want)
			}
		})
	}
}
