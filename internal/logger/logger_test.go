package logger

import (
	"strings"
	"testing"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	l := Nop()
	got := l.sanitizeKVs([]interface{}{"bot_token", "abc", "count", 3})
	if got[1] != "[REDACTED]" {
		t.Errorf("token value = %v, want redacted", got[1])
	}
	if got[3] != 3 {
		t.Errorf("count value = %v, want 3", got[3])
	}
}

func TestSanitizeHashesLearnerIDs(t *testing.T) {
	l := &Logger{SugaredLogger: Nop().SugaredLogger, hashSalt: "salt"}
	got := l.sanitizeKVs([]interface{}{"learner_id", "u-42"})
	s, ok := got[1].(string)
	if !ok || !strings.HasPrefix(s, "hash:") || len(s) != len("hash:")+12 {
		t.Fatalf("learner_id value = %v, want 12-char hash", got[1])
	}
	again := l.sanitizeKVs([]interface{}{"learner_id", "u-42"})
	if again[1] != got[1] {
		t.Error("hash is not stable")
	}
}

func TestSanitizeOddKeyCount(t *testing.T) {
	got := Nop().sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Errorf("got %v", got)
	}
}
