package engine

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/example/masterybot/internal/cache"
	"github.com/example/masterybot/internal/knowledge"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/pkg/models"
)

type paramService interface {
	TuneParameters(ctx context.Context, conditions []string) (models.BKTParams, error)
}

// paramTuner resolves BKT parameters for a condition set. Remote results are
// cached per condition key; concurrent lookups for one key share a single call.
type paramTuner struct {
	remote  paramService
	cache   cache.ParamCache
	local   *knowledge.Tracer
	timeout time.Duration
	group   singleflight.Group
	log     *logger.Logger
}

func newParamTuner(remote Personalization, c cache.ParamCache, local *knowledge.Tracer, timeout time.Duration, log *logger.Logger) *paramTuner {
	t := &paramTuner{cache: c, local: local, timeout: timeout, log: log}
	if remote != nil {
		t.remote = remote
	}
	return t
}

func (t *paramTuner) ParamsFor(ctx context.Context, conditions []string) models.BKTParams {
	if t.remote == nil {
		return t.local.ParamsFor(conditions)
	}

	key := knowledge.ConditionKey(conditions)
	p, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		t.log.Warn("param cache read failed", "key", key, "error", err)
	} else if ok {
		return p
	}

	v, _, _ := t.group.Do(key, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		defer cancel()

		p, err := t.remote.TuneParameters(rctx, knowledge.NormalizeConditions(conditions))
		if err == nil {
			err = knowledge.ValidateParams(p)
		}
		if err != nil {
			t.log.Warn("remote parameter tuning failed, using condition presets", "key", key, "error", err)
			return t.local.ParamsFor(conditions), nil
		}
		if err := t.cache.Set(rctx, key, p); err != nil {
			t.log.Warn("param cache write failed", "key", key, "error", err)
		}
		return p, nil
	})
	return v.(models.BKTParams)
}
