package pricing

import (
	"testing"
	"time"
)

func TestQualityMultiplier(t *testing.T) {
	tests := []struct {
		in   Quality
		want float64
	}{
		{QualityStandard, 1.0},
		{QualityPremium, 1.5},
		{QualityUrgent, 2.0},
	}
	for _, tt := range tests {
		got, err := QualityMultiplier(tt.in)
		if err != nil {
			t.Fatalf("QualityMultiplier(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("QualityMultiplier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := QualityMultiplier("deluxe"); err == nil {
		t.Fatalf("expected error for unknown quality level")
	}
}

func TestDeadlineMultiplier(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		hours float64
		want  float64
	}{
		{"20h away", 20, 1.5},
		{"exactly 24h", 24, 1.5},
		{"36h away", 36, 1.25},
		{"60h away", 60, 1.15},
		{"5 days away", 120, 1.05},
		{"two weeks away", 336, 1.0},
		{"already past", -10, 1.5},
	}
	for _, tt := range tests {
		deadline := now.Add(time.Duration(tt.hours * float64(time.Hour)))
		if got := DeadlineMultiplier(deadline, now); got != tt.want {
			t.Fatalf("%s: DeadlineMultiplier = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPrice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// base=10, pages=3, premium (1.5), deadline 20h away (1.5) => 67.50
	got, err := Price(10, 3, QualityPremium, now.Add(20*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 67.50 {
		t.Fatalf("Price = %v, want 67.50", got)
	}

	// rounding: base=9.99, pages=7, standard, far deadline => round2(69.93)
	got, err = Price(9.99, 7, QualityStandard, now.Add(500*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 69.93 {
		t.Fatalf("Price = %v, want 69.93", got)
	}

	if _, err := Price(10, 0, QualityStandard, now, now); err == nil {
		t.Fatalf("expected error for zero page count")
	}
	if _, err := Price(0, 3, QualityStandard, now, now); err == nil {
		t.Fatalf("expected error for zero base price")
	}
}

func TestSiteFee(t *testing.T) {
	tests := []struct {
		budget float64
		want   float64
	}{
		{100, 20}, // ceil(20.0)
		{101, 21}, // ceil(20.2)
		{5, 1},
		{0.5, 1}, // ceil(0.1)
	}
	for _, tt := range tests {
		if got := SiteFee(tt.budget); got != tt.want {
			t.Fatalf("SiteFee(%v) = %v, want %v", tt.budget, got, tt.want)
		}
	}
}

func TestBreakdowns(t *testing.T) {
	b := PayNowBreakdown(101)
	if b.SiteFee != 21 || b.Amount != 122 || b.FreelancerAmount != 101 {
		t.Fatalf("unexpected pay_now breakdown: %+v", b)
	}

	b = PayLaterBreakdown(101)
	if b.SiteFee != 21 || b.Amount != 21 || b.FreelancerAmount != 0 {
		t.Fatalf("unexpected pay_later breakdown: %+v", b)
	}
}
