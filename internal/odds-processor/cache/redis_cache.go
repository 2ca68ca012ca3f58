package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/odds-tracker/internal/odds"
)

// prefixos das chaves gravadas pelo odds-service (ver odds.ListingKey e odds.BetKey)
var responsePatterns = []string{
	"matches_*",
	string(odds.BetSingle) + "_*",
	string(odds.BetAko) + "_*",
}

// RedisCache remove respostas em cache do odds-service depois que o banco muda,
// para que listagens e apostas não fiquem presas no valor antigo até o TTL.
type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(c *redis.Client) *RedisCache {
	return &RedisCache{Client: c}
}

// Invalidate apaga todas as chaves de resposta e devolve quantas foram removidas
func (r *RedisCache) Invalidate(ctx context.Context) (int64, error) {
	var removed int64
	for _, pattern := range responsePatterns {
		iter := r.Client.Scan(ctx, 0, pattern, 200).Iterator()
		batch := make([]string, 0, 200)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == cap(batch) {
				n, err := r.Client.Del(ctx, batch...).Result()
				if err != nil {
					return removed, err
				}
				removed += n
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return removed, err
		}
		if len(batch) > 0 {
			n, err := r.Client.Del(ctx, batch...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
	}
	return removed, nil
}
