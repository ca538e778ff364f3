package knowledge

import "github.com/example/masterybot/pkg/models"

const (
	maxOptimisticSteps = 100
	maxExpectedSteps   = 200
)

// missPattern marks which answers of every ten are wrong in the expected
// projection, giving a fixed 70% accuracy.
var missPattern = [10]bool{2: true, 5: true, 8: true}

// Forecast estimates how many more attempts a concept needs to reach mastery.
type Forecast struct {
	CurrentMastery     float64 `json:"current_mastery"`
	TargetMastery      float64 `json:"target_mastery"`
	AlreadyMastered    bool    `json:"already_mastered"`
	OptimisticAttempts int     `json:"optimistic_attempts"` // every answer correct
	ExpectedAttempts   int     `json:"expected_attempts"`   // 7 of every 10 answers correct
	Reachable          bool    `json:"reachable"`           // expected projection hit the target within bounds
}

// ForecastMastery projects state forward without modifying it.
func ForecastMastery(state models.ConceptState) Forecast {
	f := Forecast{CurrentMastery: state.PMastery, TargetMastery: models.MasteryThreshold}
	if state.PMastery >= models.MasteryThreshold {
		f.AlreadyMastered = true
		f.Reachable = true
		return f
	}

	p := state.PMastery
	for p < models.MasteryThreshold && f.OptimisticAttempts < maxOptimisticSteps {
		p = Step(p, state.BKTParams, true)
		f.OptimisticAttempts++
	}

	p = state.PMastery
	for p < models.MasteryThreshold && f.ExpectedAttempts < maxExpectedSteps {
		p = Step(p, state.BKTParams, !missPattern[f.ExpectedAttempts%len(missPattern)])
		f.ExpectedAttempts++
	}
	f.Reachable = p >= models.MasteryThreshold
	return f
}
