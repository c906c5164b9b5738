// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sistema-fontes/fontes/internal/platform/constants"
)

// # Lockout Repository (Redis)

// RedisLockoutRepository implements [LockoutRepository] on Redis.
//
// Each ban is one key holding the unix end time. The key expires with the
// ban, so a missing key means the account is not locked.
type RedisLockoutRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisLockoutRepository creates a Redis-backed LockoutRepository.
func NewRedisLockoutRepository(client *redis.Client, now func() time.Time) *RedisLockoutRepository {
	if now == nil {
		now = time.Now
	}
	return &RedisLockoutRepository{client: client, now: now}
}

func lockoutKey(userID int64) string {
	return constants.RedisPrefixLockout + strconv.FormatInt(userID, 10)
}

/*
LockedUntil returns the end of the ban on userID.

Returns:
  - time.Time: zero when no ban is stored
  - error: connectivity failures
*/
func (repository *RedisLockoutRepository) LockedUntil(context context.Context, userID int64) (time.Time, error) {
	raw, err := repository.client.Get(context, lockoutKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis_lockout_get_failed: %w", err)
	}

	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis_lockout_corrupt_value: %w", err)
	}

	return time.Unix(unix, 0).UTC(), nil
}

// Lock stores the ban with a TTL matching its remaining duration. A ban that
// has already ended is not stored.
func (repository *RedisLockoutRepository) Lock(context context.Context, userID int64, until time.Time) error {
	ttl := until.Sub(repository.now())
	if ttl <= 0 {
		return nil
	}

	if err := repository.client.Set(context, lockoutKey(userID), until.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redis_lockout_set_failed: %w", err)
	}
	return nil
}

// Clear lifts any ban on userID.
func (repository *RedisLockoutRepository) Clear(context context.Context, userID int64) error {
	if err := repository.client.Del(context, lockoutKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis_lockout_delete_failed: %w", err)
	}
	return nil
}
