package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	stateKeyPrefix = "oauth:state:"
	stateTTL       = 10 * time.Minute
)

// StateStore ties OAuth state tokens to the user who started the connect
// flow, so the callback knows whose account to link.
type StateStore struct {
	rdb *redis.Client
}

func NewStateStore(rdb *redis.Client) *StateStore {
	return &StateStore{rdb: rdb}
}

// GenerateState creates a cryptographically secure state token bound to the
// user for the TTL window.
func (s *StateStore) GenerateState(ctx context.Context, userID int64) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	state := hex.EncodeToString(bytes)

	key := stateKeyPrefix + state
	if err := s.rdb.Set(ctx, key, userID, stateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return state, nil
}

// ValidateState checks the state and returns the bound user id. The state is
// consumed on validation to prevent replay.
func (s *StateStore) ValidateState(ctx context.Context, state string) (int64, error) {
	if state == "" {
		return 0, fmt.Errorf("empty state parameter")
	}

	key := stateKeyPrefix + state

	var userID int64
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return fmt.Errorf("invalid or expired state")
		}
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}
		userID, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt state value: %w", err)
		}

		_, err = tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return 0, err
	}

	return userID, nil
}
