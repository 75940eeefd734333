package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

func newAuth(secret string) *AuthService {
	return NewAuthService(zap.NewNop(), AuthConfig{AccessTokenSecret: secret, AccessTokenExpiry: time.Hour, Issuer: "training-center"})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	auth := newAuth("secret")
	admin := &models.Admin{ID: "admin-1", Name: "Root", Email: "root@example.com"}

	token, expiresAt, err := auth.IssueToken(admin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "training-center", claims.Issuer)
}

func TestAuthServiceRejectsForeignToken(t *testing.T) {
	token, _, err := newAuth("other").IssueToken(&models.Admin{ID: "admin-1"})
	require.NoError(t, err)

	_, err = newAuth("secret").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	_, err = newAuth("secret").ValidateToken("not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServicePasswords(t *testing.T) {
	auth := newAuth("secret")
	hash, err := auth.HashPassword("s3cretpass")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, "s3cretpass"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}

func TestMetricsServiceExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/trainees", http.StatusOK, 20*time.Millisecond)
	metrics.RecordBinding("bind", "bound")
	metrics.RecordImport("trainee", 3, 1)
	metrics.RecordCacheOperation(true, time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `device_binding_operations_total{operation="bind",outcome="bound"} 1`))
	assert.True(t, strings.Contains(body, `bulk_import_rows_total{entity="trainee",outcome="rejected"} 1`))
	assert.True(t, strings.Contains(body, `cache_lookups_total{result="hit"} 1`))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordBinding("bind", "failed")
	metrics.ObserveDBQuery("q", time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCacheServiceDisabledAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := &memoryCache{}
	disabled := NewCacheService(store, nil, 0, nil, false)
	assert.False(t, disabled.Enabled())
	disabled.Set(ctx, "k", &models.DashboardOverview{}, 0)
	assert.Empty(t, store.entries)

	enabled := NewCacheService(store, nil, 0, nil, true)
	enabled.Set(ctx, "dashboard:overview", &models.DashboardOverview{TotalTrainees: 1}, 0)
	var out models.DashboardOverview
	assert.True(t, enabled.Get(ctx, "dashboard:overview", &out))
	assert.Equal(t, 1, out.TotalTrainees)

	enabled.Invalidate(ctx, dashboardCachePattern)
	assert.Equal(t, []string{dashboardCachePattern}, store.deleted)
	assert.False(t, enabled.Get(ctx, "dashboard:overview", &out))

	var nilCache *CacheService
	assert.False(t, nilCache.Get(ctx, "k", &out))
	nilCache.Invalidate(ctx, "*")
}
