package definition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// redisKeyPrefix namespaces definition keys in a shared Redis instance.
const redisKeyPrefix = "wake:definition:"

// RedisRepository persists definitions as JSON values in Redis, one key per
// definition. It suits setups where the wellness application already runs a
// Redis instance for other state.
type RedisRepository struct {
	// client is the shared Redis connection.
	client *redis.Client
}

// NewRedisRepository creates a repository on top of an existing client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

// List returns every stored definition.
func (r *RedisRepository) List(ctx context.Context) ([]*alarm.Definition, error) {
	keys, err := r.client.Keys(ctx, redisKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("list definition keys: %w", err)
	}

	definitions := make([]*alarm.Definition, 0, len(keys))

	for _, key := range keys {
		value, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Deleted between Keys and Get.
				continue
			}

			return nil, fmt.Errorf("get definition %s: %w", key, err)
		}

		def, err := decodeDefinition(value)
		if err != nil {
			return nil, err
		}

		definitions = append(definitions, def)
	}

	return definitions, nil
}

// Get returns one definition or ErrNotFound.
func (r *RedisRepository) Get(ctx context.Context, id string) (*alarm.Definition, error) {
	value, err := r.client.Get(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get definition %s: %w", id, err)
	}

	return decodeDefinition(value)
}

// Upsert stores or replaces a definition.
func (r *RedisRepository) Upsert(ctx context.Context, def *alarm.Definition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode definition %s: %w", def.ID, err)
	}

	if err := r.client.Set(ctx, redisKeyPrefix+def.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("set definition %s: %w", def.ID, err)
	}

	return nil
}

// Delete removes a definition. Deleting an absent id is ErrNotFound.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	removed, err := r.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("delete definition %s: %w", id, err)
	}

	if removed == 0 {
		return ErrNotFound
	}

	return nil
}

// decodeDefinition parses one stored JSON value.
func decodeDefinition(value string) (*alarm.Definition, error) {
	var def alarm.Definition
	if err := json.Unmarshal([]byte(value), &def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	return &def, nil
}
