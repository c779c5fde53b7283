package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
	"news-site-backend/internal/infra/metrics"
	red "news-site-backend/internal/infra/redis"
)

var _ repository.SubscriptionPlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads (plans change rarely, every
// checkout reads one) and invalidates on write.
type planRepoCacheDecorator struct {
	inner repository.SubscriptionPlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.SubscriptionPlanRepository, cache red.RedisClient) repository.SubscriptionPlanRepository {
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	key := fmt.Sprintf("plan:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var plan model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	} else if err != redis.Nil {
		// Redis being down degrades to a plain DB read.
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		bytes, _ := json.Marshal(plan)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	d.cache.Del(ctx, fmt.Sprintf("plan:%s", plan.ID))
	d.cache.Del(ctx, "plans:active")
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const key = "plans:active"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var plans []*model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		bytes, _ := json.Marshal(plans)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plans, nil
}
