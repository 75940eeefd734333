package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/listing"
	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/service"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type adminService interface {
	List(ctx context.Context, filter models.AdminFilter) (listing.Page[models.Admin], error)
	ListAll(ctx context.Context, filter models.AdminFilter) ([]models.Admin, error)
	Create(ctx context.Context, req service.CreateAdminRequest) (*models.Admin, error)
	Login(ctx context.Context, req service.AdminLoginRequest) (*models.AdminLoginResponse, error)
	BulkImport(ctx context.Context, filename string, src io.Reader) (*models.ImportResult, error)
}

// AdminHandler manages admin accounts and admin login.
type AdminHandler struct {
	service   adminService
	maxUpload int64
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(service adminService, maxUpload int64) *AdminHandler {
	return &AdminHandler{service: service, maxUpload: maxUpload}
}

func adminFilter(c *gin.Context) models.AdminFilter {
	page := readPage(c)
	return models.AdminFilter{
		ID:      strings.TrimSpace(c.Query("id")),
		Name:    strings.TrimSpace(c.Query("name")),
		Email:   strings.TrimSpace(c.Query("email")),
		Group:   strings.TrimSpace(c.Query("group")),
		SortBy:  page.SortBy,
		Page:    page.Page,
		PerPage: page.PerPage,
	}
}

// Login godoc
// @Summary Admin login
// @Description Issues an access token. An unknown macAddress is registered when deviceName is given.
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body service.AdminLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admins/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req service.AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.Meta(c))
}

// List godoc
// @Summary List admins
// @Tags Admins
// @Produce json
// @Param name query string false "Name contains"
// @Param email query string false "Email contains"
// @Param group query string false "Group ID"
// @Param sortBy query string false "name|email"
// @Success 200 {object} response.Envelope
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), adminFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Data, &page.Pagination, middleware.Meta(c))
}

// ListAll godoc
// @Summary List all admins
// @Tags Admins
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admins/all [get]
func (h *AdminHandler) ListAll(c *gin.Context) {
	admins, err := h.service.ListAll(c.Request.Context(), adminFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, nil, middleware.Meta(c))
}

// Create godoc
// @Summary Create admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body service.CreateAdminRequest true "Admin"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admins [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req service.CreateAdminRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, admin, nil, middleware.Meta(c))
}

// Import godoc
// @Summary Bulk import admins
// @Tags Admins
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} response.Envelope
// @Router /admins/import [post]
func (h *AdminHandler) Import(c *gin.Context) {
	filename, file, ok := upload(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.service.BulkImport(c.Request.Context(), filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.Meta(c))
}
