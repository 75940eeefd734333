package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/middleware"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type pageParams struct {
	Page    int
	PerPage int
	SortBy  string
}

// readPage parses page, perPage (alias limit) and sortBy; malformed numbers fall back to defaults.
func readPage(c *gin.Context) pageParams {
	params := pageParams{SortBy: strings.TrimSpace(c.Query("sortBy"))}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		params.Page = page
	}
	size := c.Query("perPage")
	if size == "" {
		size = c.Query("limit")
	}
	if perPage, err := strconv.Atoi(size); err == nil {
		params.PerPage = perPage
	}
	return params
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// upload opens the multipart "file" field, enforcing maxBytes when positive.
func upload(c *gin.Context, maxBytes int64) (string, io.ReadCloser, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return "", nil, false
	}
	if maxBytes > 0 && header.Size > maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file too large"))
		return "", nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read file"))
		return "", nil, false
	}
	return header.Filename, file, true
}

func adminID(c *gin.Context) string {
	if claims, ok := middleware.Claims(c); ok {
		return claims.UserID
	}
	return ""
}
