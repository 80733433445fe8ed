package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OrcaBus/service-filemanager/config"
)

type RedisClient struct {
	Client *redis.Client
}

func InitRedisClient(cfg *config.EnvConfig) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}

	log.Println("Connected to Redis:", cfg.Redis.Host+":"+cfg.Redis.Port)

	return &RedisClient{Client: client}
}

func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.New("key not found in cache")
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	return r.Client.SetNX(ctx, key, data, expiration).Result()
}

func (r *RedisClient) Increment(ctx context.Context, key string) (int64, error) {
	return r.Client.Incr(ctx, key).Result()
}

// ClaimDailyPermissionLogSlot implements the §7 policy "log once per day
// per bucket" for permission errors: a SETNX latch keyed by bucket and
// day, with a 24h TTL. Returns true only for the caller that wins the race
// and should actually emit the log line.
func (r *RedisClient) ClaimDailyPermissionLogSlot(ctx context.Context, bucket string) (bool, error) {
	key := fmt.Sprintf("permission-log:%s:%s", bucket, time.Now().UTC().Format("2006-01-02"))
	return r.SetNX(ctx, key, true, 24*time.Hour)
}

// ClaimDedupFastPath sets a 10-minute SETNX latch on a dedup key and
// reports whether this call set it. The Sequencer/Deduplicator does not
// consult it; duplicate detection always goes through the database dedup
// key.
func (r *RedisClient) ClaimDedupFastPath(ctx context.Context, dedupKey string) (bool, error) {
	return r.SetNX(ctx, "dedup:"+dedupKey, true, 10*time.Minute)
}
