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

type bindingService interface {
	Login(ctx context.Context, req service.TraineeLoginRequest) (*models.TraineeProfile, error)
	LoginWithPhone(ctx context.Context, req service.PhoneLoginRequest) (*models.TraineeProfile, error)
	Logout(ctx context.Context, req service.LogoutRequest) (*models.TraineeProfile, error)
}

// BindingHandler exposes trainee login and logout, which bind and release devices.
type BindingHandler struct {
	service bindingService
}

// NewBindingHandler constructs the handler.
func NewBindingHandler(service bindingService) *BindingHandler {
	return &BindingHandler{service: service}
}

// Login godoc
// @Summary Trainee login by faculty id
// @Description Verifies credentials and binds the trainee to the device identified by macAddress.
// @Tags Trainees
// @Accept json
// @Produce json
// @Param payload body service.TraineeLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /trainees/login [post]
func (h *BindingHandler) Login(c *gin.Context) {
	var req service.TraineeLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil, middleware.Meta(c))
}

// LoginWithPhone godoc
// @Summary Trainee login by phone
// @Tags Trainees
// @Accept json
// @Produce json
// @Param payload body service.PhoneLoginRequest true "Phone and device"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainees/login/phone [post]
func (h *BindingHandler) LoginWithPhone(c *gin.Context) {
	var req service.PhoneLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.LoginWithPhone(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil, middleware.Meta(c))
}

// Logout godoc
// @Summary Trainee logout
// @Description Releases the trainee's device binding.
// @Tags Trainees
// @Accept json
// @Produce json
// @Param payload body service.LogoutRequest true "Trainee"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainees/logout [post]
func (h *BindingHandler) Logout(c *gin.Context) {
	var req service.LogoutRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.Logout(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil, middleware.Meta(c))
}
