package knowledge

import (
	"sort"
	"strings"

	"github.com/example/masterybot/pkg/models"
)

// NormalizeConditions lower-cases, trims, de-duplicates and sorts conditions.
func NormalizeConditions(conditions []string) []string {
	seen := make(map[string]bool, len(conditions))
	out := make([]string, 0, len(conditions))
	for _, c := range conditions {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ConditionKey is a stable key for a condition set, used for caching tuned parameters.
func ConditionKey(conditions []string) string {
	norm := NormalizeConditions(conditions)
	if len(norm) == 0 {
		return "default"
	}
	return strings.Join(norm, ",")
}

// ParamsFor returns parameters for a learner's declared conditions. Presets of
// every known condition are averaged; unknown conditions are ignored.
func (t *Tracer) ParamsFor(conditions []string) models.BKTParams {
	var sum models.BKTParams
	count := 0
	for _, c := range NormalizeConditions(conditions) {
		p, ok := t.ConditionParams[c]
		if !ok {
			continue
		}
		sum.PInit += p.PInit
		sum.PTransit += p.PTransit
		sum.PGuess += p.PGuess
		sum.PSlip += p.PSlip
		count++
	}
	if count == 0 {
		return t.Default
	}
	n := float64(count)
	return models.BKTParams{
		PInit:    sum.PInit / n,
		PTransit: sum.PTransit / n,
		PGuess:   sum.PGuess / n,
		PSlip:    sum.PSlip / n,
	}
}
