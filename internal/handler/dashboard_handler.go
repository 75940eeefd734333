package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type analyticsService interface {
	Overview(ctx context.Context) (*models.DashboardOverview, bool, error)
	Users(ctx context.Context, groupID string) (*models.UsersSummary, error)
	Catalog(ctx context.Context, groupID string) (*models.CatalogSummary, error)
	Vision(ctx context.Context, groupID string) (*models.VisionSummary, error)
	TimeSpent(ctx context.Context, groupID string) (*models.TimeSpentSummary, error)
	Outcomes(ctx context.Context, groupID string) (*models.OutcomeSummary, error)
	TopTrainees(ctx context.Context, groupID string) ([]models.TopTrainee, error)
	Search(ctx context.Context, term string) (*models.SearchResult, error)
}

// DashboardHandler wires analytics aggregates to HTTP endpoints.
type DashboardHandler struct {
	service analyticsService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service analyticsService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Dashboard overview
// @Description Whole-population totals, per-course stats and result categories. Served from cache when warm.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	overview, cacheHit, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, overview, nil, middleware.Meta(c))
}

// Users godoc
// @Summary User counts
// @Tags Dashboard
// @Produce json
// @Param group query string false "Group ID or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/users [get]
func (h *DashboardHandler) Users(c *gin.Context) {
	h.grouped(c, func(ctx context.Context, group string) (interface{}, error) {
		return h.service.Users(ctx, group)
	})
}

// Catalog godoc
// @Summary Course and group counts
// @Tags Dashboard
// @Produce json
// @Param group query string false "Group ID or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/catalog [get]
func (h *DashboardHandler) Catalog(c *gin.Context) {
	h.grouped(c, func(ctx context.Context, group string) (interface{}, error) {
		return h.service.Catalog(ctx, group)
	})
}

// Vision godoc
// @Summary Catalog usage and success rates
// @Tags Dashboard
// @Produce json
// @Param group query string false "Group ID or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/vision [get]
func (h *DashboardHandler) Vision(c *gin.Context) {
	h.grouped(c, func(ctx context.Context, group string) (interface{}, error) {
		return h.service.Vision(ctx, group)
	})
}

// TimeSpent godoc
// @Summary Training time and busiest courses
// @Tags Dashboard
// @Produce json
// @Param group query string false "Group ID or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/time-spent [get]
func (h *DashboardHandler) TimeSpent(c *gin.Context) {
	h.grouped(c, func(ctx context.Context, group string) (interface{}, error) {
		return h.service.TimeSpent(ctx, group)
	})
}

// Outcomes godoc
// @Summary Enrollment outcomes
// @Tags Dashboard
// @Produce json
// @Param group query string false "Group ID or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/outcomes [get]
func (h *DashboardHandler) Outcomes(c *gin.Context) {
	h.grouped(c, func(ctx context.Context, group string) (interface{}, error) {
		return h.service.Outcomes(ctx, group)
	})
}

// TopTrainees godoc
// @Summary Top trainees by points
// @Tags Dashboard
// @Produce json
// @Param group query string false "Group ID or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/top-trainees [get]
func (h *DashboardHandler) TopTrainees(c *gin.Context) {
	h.grouped(c, func(ctx context.Context, group string) (interface{}, error) {
		return h.service.TopTrainees(ctx, group)
	})
}

// Search godoc
// @Summary Search trainees, courses, groups and admins
// @Tags Dashboard
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /dashboard/search [get]
func (h *DashboardHandler) Search(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	result, err := h.service.Search(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.Meta(c))
}

func (h *DashboardHandler) grouped(c *gin.Context, fetch func(ctx context.Context, group string) (interface{}, error)) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	data, err := fetch(c.Request.Context(), strings.TrimSpace(c.Query("group")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil, middleware.Meta(c))
}
