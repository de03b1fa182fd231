package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-frenzy/internal/domain"
	"trivia-frenzy/internal/infra/memory"
)

const categoriesKey = "trivia:categories"

// CategoryRepository caches the category catalog in Redis as a JSON string and falls back to
// the loader on cache miss. Cache write failures are ignored; the loaded catalog is still returned.
type CategoryRepository struct {
	client *redis.Client
	loader memory.CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCategoryRepository(client *redis.Client, loader memory.CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CategoryRepository) GetCategories(ctx context.Context) ([]domain.Category, error) {
	if categories, ok := r.cached(ctx); ok {
		return categories, nil
	}

	result, err, _ := r.sf.Do(categoriesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if categories, ok := r.cached(ctx); ok {
			return categories, nil
		}

		categories, err := r.loader.FetchCategories(ctx)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(categories); err == nil {
			_ = r.client.Set(ctx, categoriesKey, raw, r.ttlWithJitter()).Err()
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight hands the same slice to every waiter
	shared := result.([]domain.Category)
	return append([]domain.Category(nil), shared...), nil
}

func (r *CategoryRepository) cached(ctx context.Context) ([]domain.Category, bool) {
	raw, err := r.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var categories []domain.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false
	}
	return categories, true
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
