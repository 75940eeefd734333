package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestErrorUsesDomainStatus(t *testing.T) {
	c, rec := testContext()
	Error(c, appErrors.Clone(appErrors.ErrConflict, "phone already used"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "phone already used", body.Error.Message)

	c, rec = testContext()
	Error(c, errors.New("driver: bad connection"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJSONOmitsEmptyMeta(t *testing.T) {
	c, rec := testContext()
	JSON(c, http.StatusOK, map[string]int{"n": 1}, nil, map[string]interface{}{})

	assert.JSONEq(t, `{"data":{"n":1}}`, rec.Body.String())
}

func TestFileSetsAttachment(t *testing.T) {
	c, rec := testContext()
	File(c, "trainees.csv", "text/csv", []byte("a,b\n"))

	assert.Equal(t, `attachment; filename="trainees.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}
