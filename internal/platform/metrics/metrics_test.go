// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sistema-fontes/fontes/internal/platform/metrics"
)

/*
TestMiddleware_UsesRoutePattern labels requests by pattern, not raw path.
*/
func TestMiddleware_UsesRoutePattern(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/api/v1/admin/users/{id}/logs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/"+id+"/logs", nil))
	}

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/admin/users/{id}/logs", "418")
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
}

/*
TestHandler_Exposition serves the auth collectors in text format.
*/
func TestHandler_Exposition(t *testing.T) {
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "fontes_auth_login_attempts_total")
}
