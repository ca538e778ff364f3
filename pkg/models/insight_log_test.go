package models

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestInsightLogEvictsOldest(t *testing.T) {
	var l InsightLog
	for i := 0; i < MaxInsights+5; i++ {
		l.Append(Insight{Statement: fmt.Sprintf("s%d", i), BasedOnSessions: i})
	}
	if l.Len() != MaxInsights {
		t.Fatalf("Len = %d, want %d", l.Len(), MaxInsights)
	}
	items := l.Items()
	if items[0].Statement != "s5" || items[MaxInsights-1].Statement != fmt.Sprintf("s%d", MaxInsights+4) {
		t.Errorf("items run %s..%s", items[0].Statement, items[MaxInsights-1].Statement)
	}
	if l.Contains(Insight{Statement: "s0", BasedOnSessions: 0}) {
		t.Error("evicted insight still reported")
	}
	if !l.Contains(Insight{Statement: "s7", BasedOnSessions: 7}) || l.Contains(Insight{Statement: "s7", BasedOnSessions: 8}) {
		t.Error("Contains must match statement and session basis")
	}
}

func TestInsightLogJSON(t *testing.T) {
	var l InsightLog
	l.Append(Insight{Statement: "a", Confidence: 90, BasedOnSessions: 1})
	l.Append(Insight{Statement: "b", Confidence: 80, BasedOnSessions: 2})

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	var got InsightLog
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 || got.Items()[1].Statement != "b" {
		t.Errorf("round trip = %+v", got.Items())
	}
}

func TestInsightLogCloneIsIndependent(t *testing.T) {
	var l InsightLog
	l.Append(Insight{Statement: "a"})
	c := l.Clone()
	c.Append(Insight{Statement: "b"})
	if l.Len() != 1 || c.Len() != 2 {
		t.Errorf("Len = %d/%d, want 1/2", l.Len(), c.Len())
	}
}
