// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared limits for list endpoints.
//
// # Overview
//
// Audit history is read newest first and cut at a bounded size. Both the HTTP
// handlers and the service layer clamp through this package so a caller can
// never ask for an unbounded result set.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the number of entries returned if not specified.
	DefaultLimit = 100
	// MaxLimit is the upper bound for a single read.
	MaxLimit = 1000
)

// Clamp maps a requested limit onto (0, MaxLimit]. Non-positive values fall
// back to DefaultLimit.
func Clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// FromRequest parses and clamps the "limit" query parameter.
func FromRequest(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}

	return Clamp(n)
}
