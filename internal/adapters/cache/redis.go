package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisCooldownStore implements rejected-build resubmission cooldowns as
// TTL-expiring keys. Expiry is the lifecycle; nothing ever deletes keys.
type RedisCooldownStore struct {
	client *redis.Client
}

func NewRedisCooldownStore(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

func cooldownKey(ideaID, builderID string) string {
	return "pool:cooldown:" + ideaID + ":" + builderID
}

func (s *RedisCooldownStore) Activate(ctx context.Context, ideaID, builderID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, cooldownKey(ideaID, builderID), "1", ttl).Err()
}

func (s *RedisCooldownStore) Active(ctx context.Context, ideaID, builderID string) (bool, error) {
	n, err := s.client.Exists(ctx, cooldownKey(ideaID, builderID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RedisClaimAuthorizationCache keeps the live authorization per scope until its
// deadline, so a retried sign request returns the already-issued signature
// instead of minting a competing one.
type RedisClaimAuthorizationCache struct {
	client *redis.Client
}

func NewRedisClaimAuthorizationCache(client *redis.Client) *RedisClaimAuthorizationCache {
	return &RedisClaimAuthorizationCache{client: client}
}

func authKey(project, principalID string, claimType domain.ClaimType) string {
	return "pool:claimauth:" + project + ":" + string(claimType) + ":" + principalID
}

func (s *RedisClaimAuthorizationCache) Put(ctx context.Context, auth domain.ClaimAuthorization) error {
	ttl := time.Until(auth.Deadline)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(auth)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, authKey(auth.Project, auth.PrincipalID, auth.ClaimType), raw, ttl).Err()
}

func (s *RedisClaimAuthorizationCache) Get(ctx context.Context, project, principalID string, claimType domain.ClaimType) (*domain.ClaimAuthorization, error) {
	raw, err := s.client.Get(ctx, authKey(project, principalID, claimType)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.ClaimAuthorization
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
