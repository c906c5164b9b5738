// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sistema-fontes/fontes/internal/platform/redis"
)

/*
TestNewClient_InvalidURL fails fast before any network call.
*/
func TestNewClient_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := redis.NewClient(context.Background(), "http://not-redis", logger)
	assert.ErrorContains(t, err, "invalid URL")
}
