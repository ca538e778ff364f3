// Package knowledge implements Bayesian Knowledge Tracing over concept states.
package knowledge

import (
	"math"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/pkg/models"
)

// minDenominator keeps the posterior finite when the observation had zero predicted probability.
const minDenominator = 1e-10

// Tracer applies BKT updates. It holds no mutable state; every method is a
// function of its arguments and the condition table fixed at construction.
type Tracer struct {
	// Per-condition parameter presets, keyed by lower-case condition name
	ConditionParams map[string]models.BKTParams
	// Used when no declared condition has a preset
	Default models.BKTParams
}

// NewTracer creates a Tracer with the built-in condition presets.
func NewTracer() *Tracer {
	return &Tracer{
		ConditionParams: map[string]models.BKTParams{
			"adhd":        {PInit: 0.10, PTransit: 0.12, PGuess: 0.30, PSlip: 0.15}, // impulsive guesses, attention lapses
			"autism":      {PInit: 0.10, PTransit: 0.20, PGuess: 0.15, PSlip: 0.08},
			"dyslexia":    {PInit: 0.08, PTransit: 0.12, PGuess: 0.20, PSlip: 0.12},
			"dyscalculia": {PInit: 0.05, PTransit: 0.10, PGuess: 0.25, PSlip: 0.15},
		},
		Default: models.DefaultBKTParams(),
	}
}

// ValidateParams rejects parameters outside [0,1].
func ValidateParams(p models.BKTParams) error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"p_init", p.PInit},
		{"p_transit", p.PTransit},
		{"p_guess", p.PGuess},
		{"p_slip", p.PSlip},
	} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return apperr.Validationf("bkt: %s %v out of range [0,1]", f.name, f.v)
		}
	}
	return nil
}

// Step returns p(mastery) after observing one answer: the evidence-conditioned
// posterior followed by the learning transition. A correct answer never lowers
// the estimate and an incorrect one never raises it. On a miss at low mastery
// the transition can outweigh the evidence (default params at p=0.10 would give
// 0.162), so the estimate stays where it was.
func Step(pMastery float64, p models.BKTParams, isCorrect bool) float64 {
	pCorrect := pMastery*(1-p.PSlip) + (1-pMastery)*p.PGuess

	var posterior float64
	if isCorrect {
		posterior = pMastery * (1 - p.PSlip) / math.Max(pCorrect, minDenominator)
	} else {
		posterior = pMastery * p.PSlip / math.Max(1-pCorrect, minDenominator)
	}
	next := clamp01(posterior + (1-posterior)*p.PTransit)

	if isCorrect && next < pMastery {
		next = pMastery
	}
	if !isCorrect && next > pMastery {
		next = pMastery
	}
	return next
}

// RecordAttempt returns state updated for one answered item. The input is not
// modified. Leitner scheduling is separate; see spaced_repetition.Leitner.
func (t *Tracer) RecordAttempt(state models.ConceptState, isCorrect bool, responseTimeMs float64, at time.Time) (models.ConceptState, error) {
	if err := ValidateParams(state.BKTParams); err != nil {
		return state, err
	}
	if math.IsNaN(state.PMastery) || state.PMastery < 0 || state.PMastery > 1 {
		return state, apperr.Validationf("bkt: p_mastery %v out of range [0,1]", state.PMastery)
	}
	if math.IsNaN(responseTimeMs) || responseTimeMs < 0 {
		return state, apperr.Validationf("bkt: response time %v must be non-negative", responseTimeMs)
	}

	next := state.Clone()
	next.SetMastery(Step(state.PMastery, state.BKTParams, isCorrect))
	next.Attempts++
	if isCorrect {
		next.CorrectAttempts++
	}
	if responseTimeMs > 0 {
		next.ResponseTimes = append(next.ResponseTimes, responseTimeMs)
	}
	at = at.UTC()
	next.LastAttempt = &at
	return next, nil
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
