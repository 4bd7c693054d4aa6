package main

import "testing"

func TestTierMarkerBoundary(t *testing.T) {
	tests := []struct {
		comment string
		tier    Tier
	}{
		{"philoassets-optimized", TierOptimized},
		{"philoassets-aggressive", TierAggressive},
		{"", TierNone},
		{"holiday in lisbon", TierNone},
		{"PHILOASSETS-OPTIMIZED", TierNone},
	}

	for _, tt := range tests {
		if got := ParseTier(tt.comment); got != tt.tier {
			t.Errorf("ParseTier(%q) = %v, want %v", tt.comment, got, tt.tier)
		}
	}

	for _, tier := range []Tier{TierOptimized, TierAggressive} {
		if got := ParseTier(tier.Marker()); got != tier {
			t.Errorf("Marker for %v does not parse back, got %v", tier, got)
		}
	}
	if TierNone.Marker() != "" {
		t.Errorf("TierNone must serialize to an empty comment")
	}
}

func TestTierOrdering(t *testing.T) {
	if !(TierNone < TierOptimized && TierOptimized < TierAggressive) {
		t.Error("Tiers must form the ordered chain none < optimized < aggressive")
	}
}

func TestParseSizeThreshold(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"500KB", 500 * 1000, false},
		{"2MB", 2 * 1000 * 1000, false},
		{"1024", 1024, false},
		{"", 0, true},
		{"tenMB", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSizeThreshold(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSizeThreshold(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSizeThreshold(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSizeThreshold(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
