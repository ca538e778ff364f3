package personalization

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/logger"
)

func newServer(t *testing.T, path string, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID header")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second, logger.Nop())
}

const validProfile = `{
  "discovered_preferences": {"optimal_session_duration": 20, "optimal_chunk_size": "small"},
  "attention_profile": {"average_focus_duration": 300, "distraction_sensitivity": "medium"},
  "emotional_thresholds": {"frustration_trigger_point": 60, "disengagement_trigger_point": 25, "optimal_challenge_level": 55},
  "confidence_scores": {"overall": 40, "content_preference": 30, "timing_preference": 20, "attention_pattern": 50},
  "insights": [{"statement": "Mornings work well", "confidence": 70, "based_on_sessions": 4}]
}`

func TestBuildProfileSuccess(t *testing.T) {
	c := newServer(t, buildProfilePath, http.StatusOK, validProfile)
	resp, err := c.BuildProfile(context.Background(), ProfileRequest{LearnerID: "l1"})
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}
	if resp.DiscoveredPreferences.OptimalSessionDuration != 20 {
		t.Fatalf("session duration = %d", resp.DiscoveredPreferences.OptimalSessionDuration)
	}
	if len(*resp.Insights) != 1 {
		t.Fatalf("insights = %d", len(*resp.Insights))
	}
}

func TestBuildProfileMalformed(t *testing.T) {
	var full map[string]json.RawMessage
	if err := json.Unmarshal([]byte(validProfile), &full); err != nil {
		t.Fatal(err)
	}
	for key := range full {
		partial := make(map[string]json.RawMessage)
		for k, v := range full {
			if k != key {
				partial[k] = v
			}
		}
		body, _ := json.Marshal(partial)
		c := newServer(t, buildProfilePath, http.StatusOK, string(body))
		_, err := c.BuildProfile(context.Background(), ProfileRequest{})
		if !errors.Is(err, apperr.ErrDependencyUnavailable) {
			t.Errorf("missing %s: got %v, want dependency unavailable", key, err)
		}
	}

	outOfRange := `{"discovered_preferences":{},"attention_profile":{},"emotional_thresholds":{},
	  "confidence_scores":{"overall":140},"insights":[]}`
	c := newServer(t, buildProfilePath, http.StatusOK, outOfRange)
	if _, err := c.BuildProfile(context.Background(), ProfileRequest{}); !errors.Is(err, apperr.ErrDependencyUnavailable) {
		t.Errorf("out of range confidence: got %v", err)
	}
}

func TestNonSuccessStatus(t *testing.T) {
	c := newServer(t, prioritizePath, http.StatusInternalServerError, `{}`)
	_, err := c.PrioritizeReviews(context.Background(), PrioritizeRequest{})
	if !errors.Is(err, apperr.ErrDependencyUnavailable) {
		t.Fatalf("got %v", err)
	}
}

func TestPrioritizeReviews(t *testing.T) {
	c := newServer(t, prioritizePath, http.StatusOK, `{"ordered_concept_ids":["b","a"]}`)
	ids, err := c.PrioritizeReviews(context.Background(), PrioritizeRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Fatalf("ids = %v", ids)
	}

	c = newServer(t, prioritizePath, http.StatusOK, `{"concepts":[]}`)
	if _, err := c.PrioritizeReviews(context.Background(), PrioritizeRequest{}); !errors.Is(err, apperr.ErrDependencyUnavailable) {
		t.Fatalf("missing ids: got %v", err)
	}
}

func TestTuneParameters(t *testing.T) {
	c := newServer(t, tunePath, http.StatusOK, `{"p_init":0.2,"p_transit":0.1,"p_guess":0.3,"p_slip":0.1}`)
	p, err := c.TuneParameters(context.Background(), []string{"adhd"})
	if err != nil {
		t.Fatal(err)
	}
	if p.PInit != 0.2 || p.PGuess != 0.3 {
		t.Fatalf("params = %+v", p)
	}

	c = newServer(t, tunePath, http.StatusOK, `{"p_init":0.2,"p_transit":0.1,"p_guess":1.3,"p_slip":0.1}`)
	if _, err := c.TuneParameters(context.Background(), nil); !errors.Is(err, apperr.ErrDependencyUnavailable) {
		t.Fatalf("out of range: got %v", err)
	}
}

func TestContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.TuneParameters(ctx, nil); !errors.Is(err, apperr.ErrDependencyUnavailable) {
		t.Fatalf("got %v", err)
	}
}
