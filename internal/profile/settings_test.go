package profile

import (
	"testing"

	"github.com/example/masterybot/pkg/models"
)

func TestOptimalSettings(t *testing.T) {
	p := DefaultProfile("l", nil, t0)
	p.DiscoveredPreferences.PreferredContentTypes = []models.ContentTypeScore{
		{Type: "video", EffectivenessScore: 90},
		{Type: "text", EffectivenessScore: 60},
		{Type: "interactive", EffectivenessScore: 55},
		{Type: "quiz", EffectivenessScore: 40},
	}

	tests := []struct {
		name       string
		conditions []string
		device     string
		chunk      string
		session    int
		breaks     int
		priority0  string
		animation  string
	}{
		{"defaults", nil, "desktop", "medium", 25, 25, "video", models.ToleranceModerate},
		{"adhd", []string{"adhd"}, "desktop", "small", 25, 15, "video", models.ToleranceModerate},
		{"adhd mobile", []string{"adhd"}, "mobile", "tiny", 15, 15, "video", models.ToleranceModerate},
		{"autism", []string{"autism"}, "desktop", "medium", 25, 25, "video", models.ToleranceMinimal},
		{"dyslexia", []string{"Dyslexia"}, "desktop", "medium", 25, 25, "audio", models.ToleranceModerate},
		{"mobile", nil, "mobile", "small", 15, 25, "video", models.ToleranceModerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := OptimalSettings(&p, tt.conditions, tt.device)
			if s.ChunkSize != tt.chunk || s.SessionDuration != tt.session || s.BreakFrequency != tt.breaks {
				t.Fatalf("settings = %+v", s)
			}
			if s.ContentPriority[0] != tt.priority0 || s.AnimationLevel != tt.animation {
				t.Fatalf("settings = %+v", s)
			}
		})
	}

	if s := OptimalSettings(&p, nil, "desktop"); len(s.ContentPriority) != 3 {
		t.Fatalf("priority = %v", s.ContentPriority)
	}
}

func TestFrustrationIntervention(t *testing.T) {
	if iv := FrustrationIntervention(50, nil, "text"); iv.Needed || len(iv.Suggestions) != 0 || iv.Severity != "low" {
		t.Fatalf("low frustration = %+v", iv)
	}

	iv := FrustrationIntervention(70, nil, "text")
	if !iv.Needed || iv.Severity != "medium" || len(iv.Suggestions) != 2 {
		t.Fatalf("medium = %+v", iv)
	}
	if alt := iv.Suggestions[1].Alternatives; alt[0] != "video" || alt[1] != "interactive" {
		t.Fatalf("alternatives = %v", alt)
	}

	iv = FrustrationIntervention(90, []string{"dyslexia"}, "video")
	if iv.Severity != "high" || len(iv.Suggestions) != 3 || iv.Suggestions[2].Action != "simplify_content" {
		t.Fatalf("high = %+v", iv)
	}
	if alt := iv.Suggestions[1].Alternatives; alt[0] != "text" || alt[1] != "audio" {
		t.Fatalf("alternatives = %v", alt)
	}
	if len(iv.Suggestions[0].Activities) == 0 {
		t.Fatal("no calming activities")
	}
}

func TestAdapt(t *testing.T) {
	p := DefaultProfile("l", nil, t0)
	p.DiscoveredPreferences.PreferredContentTypes = []models.ContentTypeScore{{Type: "video", EffectivenessScore: 80}}
	s := models.LearningSession{AvgTimeOnContent: 1000, FrustrationScore: 75, EngagementScore: 20}

	a := Adapt(&s, &p)
	if !a.SuggestBreak || !a.CalmingNeeded || !a.EncouragementNeeded || a.SuggestedFormat != "video" {
		t.Fatalf("adaptation = %+v", a)
	}
	if len(a.Messages) != 4 {
		t.Fatalf("messages = %v", a.Messages)
	}

	calm := models.LearningSession{AvgTimeOnContent: 100, FrustrationScore: 10, EngagementScore: 80}
	if a := Adapt(&calm, &p); len(a.Messages) != 0 {
		t.Fatalf("calm session adapted: %+v", a)
	}
}
