package handler

import (
	"context"
	"io"
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

type traineeService interface {
	List(ctx context.Context, filter models.TraineeFilter) (listing.Page[enrichment.TraineeRecord], error)
	ListAll(ctx context.Context, filter models.TraineeFilter) ([]enrichment.TraineeRecord, error)
	Create(ctx context.Context, req service.CreateTraineeRequest) (*models.Trainee, error)
	Update(ctx context.Context, id string, req service.UpdateTraineeRequest) (*models.Trainee, error)
	BulkImport(ctx context.Context, adminID, filename string, src io.Reader) (*models.ImportResult, error)
}

type traineeExporter interface {
	Trainees(ctx context.Context, format string, filter models.TraineeFilter) (*service.ExportFile, error)
}

// TraineeHandler manages trainee records.
type TraineeHandler struct {
	service   traineeService
	exporter  traineeExporter
	maxUpload int64
}

// NewTraineeHandler constructs the handler. maxUpload caps import files in bytes; zero disables the cap.
func NewTraineeHandler(service traineeService, exporter traineeExporter, maxUpload int64) *TraineeHandler {
	return &TraineeHandler{service: service, exporter: exporter, maxUpload: maxUpload}
}

func traineeFilter(c *gin.Context) models.TraineeFilter {
	page := readPage(c)
	return models.TraineeFilter{
		ID:      strings.TrimSpace(c.Query("id")),
		Name:    strings.TrimSpace(c.Query("name")),
		Group:   strings.TrimSpace(c.Query("group")),
		Stage:   strings.TrimSpace(c.Query("stage")),
		Grade:   strings.TrimSpace(c.Query("grade")),
		SortBy:  page.SortBy,
		Page:    page.Page,
		PerPage: page.PerPage,
	}
}

// List godoc
// @Summary List trainees
// @Description Enriched trainees filtered, ranked by sortBy (descending) and paginated.
// @Tags Trainees
// @Produce json
// @Param id query string false "Trainee ID"
// @Param name query string false "Name contains"
// @Param group query string false "Group ID"
// @Param stage query string false "Stage"
// @Param grade query string false "Grade label"
// @Param sortBy query string false "name|totalAttempts|meanScore|totalTimeSpent|lastAttempt|grade"
// @Param page query int false "Page"
// @Param perPage query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /trainees [get]
func (h *TraineeHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), traineeFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Data, &page.Pagination, middleware.Meta(c))
}

// ListAll godoc
// @Summary List all trainees without pagination
// @Tags Trainees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /trainees/all [get]
func (h *TraineeHandler) ListAll(c *gin.Context) {
	records, err := h.service.ListAll(c.Request.Context(), traineeFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil, middleware.Meta(c))
}

// Export godoc
// @Summary Export trainees
// @Tags Trainees
// @Produce octet-stream
// @Param format query string false "csv|pdf|xlsx" default(csv)
// @Success 200 {file} binary
// @Router /trainees/export [get]
func (h *TraineeHandler) Export(c *gin.Context) {
	file, err := h.exporter.Trainees(c.Request.Context(), c.DefaultQuery("format", "csv"), traineeFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

// Create godoc
// @Summary Create trainee
// @Tags Trainees
// @Accept json
// @Produce json
// @Param payload body service.CreateTraineeRequest true "Trainee"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /trainees [post]
func (h *TraineeHandler) Create(c *gin.Context) {
	var req service.CreateTraineeRequest
	if !bindJSON(c, &req) {
		return
	}
	req.AdminID = adminID(c)
	trainee, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, trainee, nil, middleware.Meta(c))
}

// Update godoc
// @Summary Update trainee
// @Tags Trainees
// @Accept json
// @Produce json
// @Param id path string true "Trainee ID"
// @Param payload body service.UpdateTraineeRequest true "Trainee"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainees/{id} [put]
func (h *TraineeHandler) Update(c *gin.Context) {
	var req service.UpdateTraineeRequest
	if !bindJSON(c, &req) {
		return
	}
	trainee, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainee, nil, middleware.Meta(c))
}

// Import godoc
// @Summary Bulk import trainees
// @Description Accepts a CSV or XLSX file; failed rows are reported with their row number.
// @Tags Trainees
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} response.Envelope
// @Router /trainees/import [post]
func (h *TraineeHandler) Import(c *gin.Context) {
	filename, file, ok := upload(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.service.BulkImport(c.Request.Context(), adminID(c), filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.Meta(c))
}
