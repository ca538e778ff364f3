package onboarding

import (
	"strings"
	"testing"
	"time"

	"github.com/example/masterybot/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func newProfile() *models.AdaptiveProfile {
	return &models.AdaptiveProfile{LearnerID: "u1", OnboardingStartedAt: t0}
}

func TestStateAtWindow(t *testing.T) {
	p := newProfile()
	tests := []struct {
		at   time.Duration
		want State
	}{
		{0, Calibrating},
		{3 * day, Calibrating},
		{7*day - time.Second, Calibrating},
		{7 * day, Stable},
		{30 * day, Stable},
	}
	for _, tt := range tests {
		if got := StateAt(p, t0.Add(tt.at)); got != tt.want {
			t.Errorf("StateAt(+%v) = %s, want %s", tt.at, got, tt.want)
		}
	}
}

func TestAdvanceIsOneWay(t *testing.T) {
	p := newProfile()
	if Advance(p, t0.Add(2*day)) {
		t.Fatal("Advance latched during calibration")
	}
	if !Advance(p, t0.Add(8*day)) {
		t.Fatal("Advance did not latch after window")
	}
	if want := t0.Add(7 * day); !p.OnboardingCompletedAt.Equal(want) {
		t.Errorf("completed at %v, want %v", p.OnboardingCompletedAt, want)
	}
	if Advance(p, t0.Add(9*day)) {
		t.Error("Advance changed an already stable profile")
	}
	// A clock that runs backwards must not revert the state.
	if StateAt(p, t0.Add(day)) != Stable {
		t.Error("latched profile reverted to calibrating")
	}
}

func TestDescribe(t *testing.T) {
	p := newProfile()
	for i, c := range []float64{40, 90, 70, 90} {
		p.Insights.Append(models.Insight{Statement: string(rune('a' + i)), Confidence: c, DiscoveredAt: t0.Add(time.Duration(i) * time.Hour)})
	}
	s := Describe(p, 4, t0.Add(2*day+time.Hour), 3)
	if s.State != Calibrating || s.ElapsedDays != 2 || s.SessionCount != 4 {
		t.Errorf("status = %+v", s)
	}
	if !strings.Contains(s.Message, "5 more days") {
		t.Errorf("message = %q", s.Message)
	}
	if len(s.TopInsights) != 3 {
		t.Fatalf("top insights = %d", len(s.TopInsights))
	}
	// Equal confidence: newest first.
	if s.TopInsights[0].Statement != "d" || s.TopInsights[1].Statement != "b" || s.TopInsights[2].Statement != "c" {
		t.Errorf("order = %v", s.TopInsights)
	}
	if p.Insights.Items()[0].Statement != "a" {
		t.Error("Describe reordered the profile's insight log")
	}
}

