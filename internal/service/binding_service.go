package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type bindingTraineeRepository interface {
	FindByFacultyID(ctx context.Context, facultyID string) (*models.Trainee, error)
	FindByPhone(ctx context.Context, phone string) (*models.Trainee, error)
	Profile(ctx context.Context, id string) (*models.TraineeProfile, error)
}

type bindingDeviceRepository interface {
	FindByMacAddress(ctx context.Context, mac string) (*models.Device, error)
}

// Transactor runs a unit of work against the relational store.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repository.TxStore) error) error
}

// TraineeLoginRequest authenticates a trainee by faculty id and optionally binds a device.
type TraineeLoginRequest struct {
	FacultyID  string `json:"facultyId" validate:"required"`
	Password   string `json:"password" validate:"required"`
	MacAddress string `json:"macAddress"`
}

// PhoneLoginRequest authenticates a trainee by phone number.
type PhoneLoginRequest struct {
	Phone      string `json:"phone" validate:"required"`
	MacAddress string `json:"macAddress"`
}

// LogoutRequest releases the device held by a trainee.
type LogoutRequest struct {
	FacultyID string `json:"facultyId" validate:"required"`
}

// BindingService keeps the trainee/device association exclusive: a trainee holds at most one
// device, a device is held by at most one trainee, and both sides always agree.
type BindingService struct {
	trainees  bindingTraineeRepository
	devices   bindingDeviceRepository
	tx        Transactor
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBindingService constructs the binding service.
func NewBindingService(trainees bindingTraineeRepository, devices bindingDeviceRepository, tx Transactor, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BindingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BindingService{trainees: trainees, devices: devices, tx: tx, metrics: metrics, validator: validate, logger: logger}
}

// Login checks the trainee credentials and binds the device when a MAC address is given.
func (s *BindingService) Login(ctx context.Context, req TraineeLoginRequest) (*models.TraineeProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	trainee, err := s.trainees.FindByFacultyID(ctx, req.FacultyID)
	if err != nil {
		return nil, traineeLookupError(err)
	}
	if trainee.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*trainee.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid faculty id or password")
	}
	return s.completeLogin(ctx, trainee, req.MacAddress)
}

// LoginWithPhone authenticates by phone number alone.
func (s *BindingService) LoginWithPhone(ctx context.Context, req PhoneLoginRequest) (*models.TraineeProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	trainee, err := s.trainees.FindByPhone(ctx, req.Phone)
	if err != nil {
		return nil, traineeLookupError(err)
	}
	return s.completeLogin(ctx, trainee, req.MacAddress)
}

func (s *BindingService) completeLogin(ctx context.Context, trainee *models.Trainee, mac string) (*models.TraineeProfile, error) {
	if mac != "" {
		if err := s.bindByMacAddress(ctx, trainee, mac); err != nil {
			return nil, err
		}
	}
	return s.profile(ctx, trainee.ID)
}

// bindByMacAddress makes the device identified by mac the trainee's only device.
func (s *BindingService) bindByMacAddress(ctx context.Context, trainee *models.Trainee, mac string) error {
	device, err := s.devices.FindByMacAddress(ctx, mac)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Device not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device")
	}
	if trainee.BoundTo(device.ID) {
		s.metrics.RecordBinding("bind", "unchanged")
		return nil
	}

	err = s.tx.WithinTx(ctx, func(store repository.TxStore) error {
		current, err := store.LockTrainee(ctx, trainee.ID)
		if err != nil {
			return lockError(err, "trainee not found")
		}
		target, err := store.LockDevice(ctx, device.ID)
		if err != nil {
			return lockError(err, "Device not found")
		}
		if current.BoundTo(target.ID) && target.TraineeID != nil && *target.TraineeID == current.ID {
			return nil
		}

		if current.DeviceID != nil && *current.DeviceID != target.ID {
			if err := releaseDevice(ctx, store, *current.DeviceID, current.ID); err != nil {
				return err
			}
		}
		if target.TraineeID != nil && *target.TraineeID != current.ID {
			if err := detachTrainee(ctx, store, *target.TraineeID, target.ID); err != nil {
				return err
			}
		}
		if err := store.SetTraineeDevice(ctx, current.ID, &target.ID); err != nil {
			return err
		}
		return store.SetDeviceTrainee(ctx, target.ID, &current.ID)
	})
	if err != nil {
		s.metrics.RecordBinding("bind", "failed")
		if appErrors.IsDomain(err) {
			return err
		}
		s.logger.Error("device binding failed", zap.String("trainee_id", trainee.ID), zap.String("device_id", device.ID), zap.Error(err))
		return appErrors.Transient(err, "failed to bind device, retry")
	}

	s.metrics.RecordBinding("bind", "bound")
	s.logger.Info("device bound", zap.String("trainee_id", trainee.ID), zap.String("device_id", device.ID))
	return nil
}

// Logout clears the trainee's device on both sides. An unbound trainee is returned as is.
func (s *BindingService) Logout(ctx context.Context, req LogoutRequest) (*models.TraineeProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid logout payload")
	}
	trainee, err := s.trainees.FindByFacultyID(ctx, req.FacultyID)
	if err != nil {
		return nil, traineeLookupError(err)
	}
	if trainee.DeviceID == nil {
		s.metrics.RecordBinding("logout", "unchanged")
		return s.profile(ctx, trainee.ID)
	}

	err = s.tx.WithinTx(ctx, func(store repository.TxStore) error {
		current, err := store.LockTrainee(ctx, trainee.ID)
		if err != nil {
			return lockError(err, "trainee not found")
		}
		if current.DeviceID == nil {
			return nil
		}
		if err := releaseDevice(ctx, store, *current.DeviceID, current.ID); err != nil {
			return err
		}
		return store.SetTraineeDevice(ctx, current.ID, nil)
	})
	if err != nil {
		s.metrics.RecordBinding("logout", "failed")
		if appErrors.IsDomain(err) {
			return nil, err
		}
		s.logger.Error("device release failed", zap.String("trainee_id", trainee.ID), zap.Error(err))
		return nil, appErrors.Transient(err, "failed to logout, retry")
	}

	s.metrics.RecordBinding("logout", "released")
	s.logger.Info("device released", zap.String("trainee_id", trainee.ID), zap.String("device_id", *trainee.DeviceID))
	return s.profile(ctx, trainee.ID)
}

func (s *BindingService) profile(ctx context.Context, traineeID string) (*models.TraineeProfile, error) {
	profile, err := s.trainees.Profile(ctx, traineeID)
	if err != nil {
		return nil, traineeLookupError(err)
	}
	return profile, nil
}

// releaseDevice clears the device's back-reference when it still points at traineeID.
// A dangling device id is ignored.
func releaseDevice(ctx context.Context, store repository.TxStore, deviceID, traineeID string) error {
	previous, err := store.LockDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if previous.TraineeID == nil || *previous.TraineeID != traineeID {
		return nil
	}
	return store.SetDeviceTrainee(ctx, deviceID, nil)
}

func lockError(err error, notFound string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return err
}

func traineeLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
}

// detachTrainee clears the trainee's device when it still points at deviceID.
func detachTrainee(ctx context.Context, store repository.TxStore, traineeID, deviceID string) error {
	holder, err := store.LockTrainee(ctx, traineeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if !holder.BoundTo(deviceID) {
		return nil
	}
	return store.SetTraineeDevice(ctx, traineeID, nil)
}
