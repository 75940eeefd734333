package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type deviceRepository interface {
	ExistsByMacAddress(ctx context.Context, mac string) (bool, error)
	Create(ctx context.Context, device *models.Device) error
}

// RegisterDeviceRequest holds payload for registering devices.
type RegisterDeviceRequest struct {
	Name       string `json:"name" validate:"required"`
	MacAddress string `json:"macAddress" validate:"required"`
}

// DeviceService registers physical devices.
type DeviceService struct {
	repo      deviceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDeviceService constructs the device service.
func NewDeviceService(repo deviceRepository, validate *validator.Validate, logger *zap.Logger) *DeviceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceService{repo: repo, validator: validate, logger: logger}
}

// Register stores a new unbound device; MAC addresses are unique.
func (s *DeviceService) Register(ctx context.Context, req RegisterDeviceRequest) (*models.Device, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid device payload")
	}
	exists, err := s.repo.ExistsByMacAddress(ctx, req.MacAddress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate mac address")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "mac address already registered")
	}
	device := &models.Device{Name: req.Name, MacAddress: req.MacAddress}
	if err := s.repo.Create(ctx, device); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register device")
	}
	s.logger.Info("device registered", zap.String("device_id", device.ID))
	return device, nil
}
