package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/service"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type enrollmentService interface {
	ReportProgress(ctx context.Context, req service.ReportProgressRequest) (*models.Enrollment, error)
	UpdateProgress(ctx context.Context, id string, values service.ProgressValues) (*models.Enrollment, error)
}

// EnrollmentHandler records training progress.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Report godoc
// @Summary Report training progress
// @Description Upserts the latest enrollment of the trainee on the course and touches the trainee's last attempt.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.ReportProgressRequest true "Progress"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainees/progress [post]
func (h *EnrollmentHandler) Report(c *gin.Context) {
	var req service.ReportProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.service.ReportProgress(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil, middleware.Meta(c))
}

// Update godoc
// @Summary Update an enrollment record
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.ProgressValues true "Progress"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	var values service.ProgressValues
	if !bindJSON(c, &values) {
		return
	}
	enrollment, err := h.service.UpdateProgress(c.Request.Context(), c.Param("id"), values)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil, middleware.Meta(c))
}
