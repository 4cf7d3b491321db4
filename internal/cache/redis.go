package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/emrgen/legaldoc/internal/model"
)

// currentTTL bounds staleness of the per-type current document entry between
// invalidations.
const currentTTL = 5 * time.Minute

// CurrentKey is the cache key of the version in legal effect for a type.
func CurrentKey(typ model.DocumentType) string {
	return fmt.Sprintf("legaldoc:%s@current", typ)
}

type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
		Protocol: 2,  // Connection protocol
	})

	return &Redis{client: client}
}

// GetDocument returns the cached version under key, or nil on a miss.
func (r *Redis) GetDocument(ctx context.Context, key string) (*model.DocumentVersion, error) {
	res := r.client.Get(ctx, key)
	if err := res.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	doc := &model.DocumentVersion{}
	if err := json.Unmarshal(buf, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// SetDocument caches a version under key for a short period.
func (r *Redis) SetDocument(ctx context.Context, key string, doc *model.DocumentVersion) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, key, data, currentTTL).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
