package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/trotair/internal/models"
)

type Cache interface {
	Get(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, bool)
	Set(ctx context.Context, criteria models.SearchCriteria, result models.SearchResult) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      5 * time.Minute,
	}
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, bool) {
	key := GenerateKey(criteria)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return models.SearchResult{}, false
	}

	var result models.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return models.SearchResult{}, false
	}

	return result, true
}

func (c *RedisCache) Set(ctx context.Context, criteria models.SearchCriteria, result models.SearchResult) error {
	key := GenerateKey(criteria)

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, bool) {
	return models.SearchResult{}, false
}

func (c *NoOpCache) Set(ctx context.Context, criteria models.SearchCriteria, result models.SearchResult) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// KeyPrefix namespaces cached search results. Bump the version when the
// cached SearchResult shape changes so old entries are never decoded.
const KeyPrefix = "trotair:offers:v1:"

// GenerateKey builds "<prefix><ORIGIN>-<DEST>:<date>:<hash>", so keys for one
// route can be matched with a SCAN pattern. The hash covers the remaining
// fields that change what the search service would return.
func GenerateKey(criteria models.SearchCriteria) string {
	keyData := struct {
		ReturnDate string
		Passengers int
		CabinClass string
		TripType   string
	}{
		Passengers: criteria.Passengers,
		CabinClass: string(criteria.CabinClass),
		TripType:   string(criteria.TripType),
	}

	if criteria.ReturnDate != nil {
		keyData.ReturnDate = *criteria.ReturnDate
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s%s-%s:%s:%s", KeyPrefix,
		strings.ToUpper(criteria.Origin), strings.ToUpper(criteria.Destination),
		criteria.DepartureDate, hex.EncodeToString(hash[:8]))
}
