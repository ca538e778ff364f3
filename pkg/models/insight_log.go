package models

import "encoding/json"

// MaxInsights is the capacity of an InsightLog.
const MaxInsights = 20

// InsightLog is a fixed-capacity ring of insights. Appending beyond capacity
// evicts the oldest entry. The zero value is an empty log.
type InsightLog struct {
	buf   [MaxInsights]Insight
	start int
	n     int
}

// Append adds ins as the newest entry.
func (l *InsightLog) Append(ins Insight) {
	if l.n < MaxInsights {
		l.buf[(l.start+l.n)%MaxInsights] = ins
		l.n++
		return
	}
	l.buf[l.start] = ins
	l.start = (l.start + 1) % MaxInsights
}

// Len returns the number of stored insights.
func (l *InsightLog) Len() int { return l.n }

// Items returns the insights oldest first.
func (l *InsightLog) Items() []Insight {
	out := make([]Insight, l.n)
	for i := 0; i < l.n; i++ {
		out[i] = l.buf[(l.start+i)%MaxInsights]
	}
	return out
}

// Contains reports whether an insight with the same statement and session basis exists.
func (l *InsightLog) Contains(ins Insight) bool {
	for i := 0; i < l.n; i++ {
		got := l.buf[(l.start+i)%MaxInsights]
		if got.Statement == ins.Statement && got.BasedOnSessions == ins.BasedOnSessions {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (l InsightLog) Clone() InsightLog { return l }

func (l InsightLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Items())
}

func (l *InsightLog) UnmarshalJSON(data []byte) error {
	var items []Insight
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = InsightLog{}
	for _, ins := range items {
		l.Append(ins)
	}
	return nil
}
