package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/listing"
	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/service"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) (listing.Page[enrichment.CourseRecord], error)
	ListAll(ctx context.Context, filter models.CourseFilter) ([]enrichment.CourseRecord, error)
}

type groupService interface {
	List(ctx context.Context, filter models.GroupFilter) (listing.Page[models.GroupSummary], error)
	ListAll(ctx context.Context, filter models.GroupFilter) ([]models.GroupSummary, error)
	ListByCategory(ctx context.Context, category models.GroupCategory, sortBy string) ([]models.GroupSummary, error)
	Create(ctx context.Context, req service.CreateGroupRequest) (*models.Group, error)
}

type deviceService interface {
	Register(ctx context.Context, req service.RegisterDeviceRequest) (*models.Device, error)
}

// CourseHandler lists enriched courses.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

func courseFilter(c *gin.Context) models.CourseFilter {
	page := readPage(c)
	return models.CourseFilter{
		ID:      strings.TrimSpace(c.Query("id")),
		Name:    strings.TrimSpace(c.Query("name")),
		SortBy:  page.SortBy,
		Page:    page.Page,
		PerPage: page.PerPage,
	}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param id query string false "Course ID"
// @Param name query string false "Arabic or English name contains"
// @Param sortBy query string false "arabicName|englishName|entranceCount|meanScore|totalTimeSpent|trainedCount|passedCount|grade"
// @Param page query int false "Page"
// @Param perPage query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), courseFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Data, &page.Pagination, middleware.Meta(c))
}

// ListAll godoc
// @Summary List all courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/all [get]
func (h *CourseHandler) ListAll(c *gin.Context) {
	records, err := h.service.ListAll(c.Request.Context(), courseFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil, middleware.Meta(c))
}

// GroupHandler manages trainee and admin groups.
type GroupHandler struct {
	service groupService
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(service groupService) *GroupHandler {
	return &GroupHandler{service: service}
}

func groupFilter(c *gin.Context) models.GroupFilter {
	page := readPage(c)
	return models.GroupFilter{
		ID:       strings.TrimSpace(c.Query("id")),
		Name:     strings.TrimSpace(c.Query("name")),
		Category: strings.TrimSpace(c.Query("category")),
		SortBy:   page.SortBy,
		Page:     page.Page,
		PerPage:  page.PerPage,
	}
}

// List godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Param name query string false "Name contains"
// @Param category query string false "admin|trainee"
// @Param sortBy query string false "name|usersCount"
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), groupFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Data, &page.Pagination, middleware.Meta(c))
}

// ListAll godoc
// @Summary List all groups
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups/all [get]
func (h *GroupHandler) ListAll(c *gin.Context) {
	groups, err := h.service.ListAll(c.Request.Context(), groupFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil, middleware.Meta(c))
}

// ListByCategory godoc
// @Summary List groups of one category
// @Tags Groups
// @Produce json
// @Param category path string true "admin|trainee"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /groups/category/{category} [get]
func (h *GroupHandler) ListByCategory(c *gin.Context) {
	category := models.GroupCategory(strings.ToLower(strings.TrimSpace(c.Param("category"))))
	groups, err := h.service.ListByCategory(c.Request.Context(), category, c.Query("sortBy"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil, middleware.Meta(c))
}

// Create godoc
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body service.CreateGroupRequest true "Group"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req service.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, group, nil, middleware.Meta(c))
}

// DeviceHandler registers training devices.
type DeviceHandler struct {
	service deviceService
}

// NewDeviceHandler constructs the handler.
func NewDeviceHandler(service deviceService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

// Register godoc
// @Summary Register device
// @Tags Devices
// @Accept json
// @Produce json
// @Param payload body service.RegisterDeviceRequest true "Device"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /devices [post]
func (h *DeviceHandler) Register(c *gin.Context) {
	var req service.RegisterDeviceRequest
	if !bindJSON(c, &req) {
		return
	}
	device, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, device, nil, middleware.Meta(c))
}
