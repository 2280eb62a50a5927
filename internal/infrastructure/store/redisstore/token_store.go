// Package redisstore persists the bearer token under a fixed Redis key, for
// fleet deployments where agent state must survive host replacement.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "loyalty:auth_token"

type TokenStore struct {
	client *redis.Client
}

func New(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Load returns the persisted token, or empty when the key is absent.
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, tokenKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("token load: %w", err)
	}
	return token, nil
}

// Save writes the token. No TTL: the slot lives until logout clears it.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, tokenKey, token, 0).Err(); err != nil {
		return fmt.Errorf("token save: %w", err)
	}
	return nil
}

// Clear deletes the token key; absence is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, tokenKey).Err(); err != nil {
		return fmt.Errorf("token clear: %w", err)
	}
	return nil
}
