package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func protectedRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", JWT(stubValidator{claims: claims}), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		current, ok := Claims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, current.UserID)
	})
	return r
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRejectsMissingOrInvalidTokens(t *testing.T) {
	r := protectedRouter(&models.JWTClaims{UserID: "a-1", Role: models.RoleAdmin})

	for _, header := range []string{"", "Token good", "Bearer ", "Bearer bad"} {
		rec := serve(r, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestJWTAcceptsAdminCaseInsensitively(t *testing.T) {
	r := protectedRouter(&models.JWTClaims{UserID: "a-1", Role: "admin"})

	rec := serve(r, "bearer good")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a-1", rec.Body.String())
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	r := protectedRouter(&models.JWTClaims{UserID: "t-1", Role: "TRAINEE"})

	rec := serve(r, "Bearer good")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type recordedRequest struct {
	method string
	path   string
	status int
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, recordedRequest{method: method, path: path, status: status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/trainees/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, target := range []string{"/trainees/42", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	require.Len(t, observer.requests, 2)
	assert.Equal(t, recordedRequest{method: http.MethodGet, path: "/trainees/:id", status: http.StatusNoContent}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].path)
	assert.Equal(t, http.StatusNotFound, observer.requests[1].status)
}

func TestResponseMetaAddsProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ResponseMeta())
	r.GET("/meta", func(c *gin.Context) {
		SetCacheHit(c, false)
		c.JSON(http.StatusOK, Meta(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta", nil))

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, false, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
	assert.NotContains(t, meta, "started_at")
}
