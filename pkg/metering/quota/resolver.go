// Package quota resolves the token budget that applies to a (plan, model) pair.
package quota

import (
	"context"
	"fmt"
	"time"

	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/unitofwork"

	"github.com/patrickmn/go-cache"
)

// Resolver reads session_config. An absent row resolves to 0, which no session can be
// admitted under. Store failures are returned as errors and never cached.
type Resolver struct {
	cache  *cache.Cache
	logger logger.ILogger
}

// NewResolver caches resolved budgets for ttl. A ttl <= 0 disables caching.
func NewResolver(ttl time.Duration, logger logger.ILogger) *Resolver {
	r := &Resolver{logger: logger}
	if ttl > 0 {
		r.cache = cache.New(ttl, 2*ttl)
	}
	return r
}

func cacheKey(planId, modelName string) string {
	return planId + "|" + modelName
}

func (r *Resolver) Resolve(ctx context.Context, uow unitofwork.UnitOfWork, planId, modelName string) (int64, error) {
	key := cacheKey(planId, modelName)
	if r.cache != nil {
		if v, found := r.cache.Get(key); found {
			return v.(int64), nil
		}
	}

	cfg, err := uow.SessionConfigRepository().FindByPlanModel(ctx, planId, modelName)
	if err != nil {
		return 0, fmt.Errorf("resolve quota for %s/%s: %w", planId, modelName, err)
	}

	var budget int64
	if cfg == nil {
		r.logger.Warn("QUOTA", "No quota policy configured, failing closed", map[string]interface{}{
			"plan_id":    planId,
			"model_name": modelName,
		})
	} else if cfg.TokenLimitPerHour > 0 {
		budget = cfg.TokenLimitPerHour
	}

	if r.cache != nil {
		r.cache.Set(key, budget, cache.DefaultExpiration)
	}
	return budget, nil
}

// Invalidate drops a cached budget so the next Resolve reads the store.
func (r *Resolver) Invalidate(planId, modelName string) {
	if r.cache != nil {
		r.cache.Delete(cacheKey(planId, modelName))
	}
}
