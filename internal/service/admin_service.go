package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/listing"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/tabular"
)

type adminRepository interface {
	List(ctx context.Context) ([]models.Admin, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, admin *models.Admin) error
}

type adminGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type adminDeviceRepository interface {
	FindByMacAddress(ctx context.Context, mac string) (*models.Device, error)
	Create(ctx context.Context, device *models.Device) error
}

// CreateAdminRequest holds payload for creating administrators.
type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	GroupID  string `json:"groupId"`
}

// AdminLoginRequest authenticates an administrator; a MAC address and device name register
// the device on first use.
type AdminLoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	MacAddress string `json:"macAddress"`
	DeviceName string `json:"deviceName"`
}

// AdminService manages administrators and their sessions.
type AdminService struct {
	repo      adminRepository
	groups    adminGroupRepository
	devices   adminDeviceRepository
	auth      *AuthService
	paging    ListingConfig
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs the admin service.
func NewAdminService(repo adminRepository, groups adminGroupRepository, devices adminDeviceRepository, auth *AuthService, paging ListingConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, groups: groups, devices: devices, auth: auth, paging: paging, metrics: metrics, validator: validate, logger: logger}
}

// List returns one page of administrators.
func (s *AdminService) List(ctx context.Context, filter models.AdminFilter) (listing.Page[models.Admin], error) {
	admins, err := s.all(ctx)
	if err != nil {
		return listing.Page[models.Admin]{}, err
	}
	q := s.paging.query(filter.Page, filter.PerPage, filter.SortBy)
	return listing.Run(admins, q, listing.AdminKeys, adminPredicates(filter)...), nil
}

// ListAll returns every matching administrator without pagination.
func (s *AdminService) ListAll(ctx context.Context, filter models.AdminFilter) ([]models.Admin, error) {
	admins, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return listing.RunAll(admins, filter.SortBy, listing.AdminKeys, adminPredicates(filter)...), nil
}

func (s *AdminService) all(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	return admins, nil
}

func adminPredicates(filter models.AdminFilter) []listing.Predicate[models.Admin] {
	return []listing.Predicate[models.Admin]{
		listing.Exact(filter.ID, func(a models.Admin) *string { return &a.ID }),
		listing.Text(filter.Name, func(a models.Admin) []string { return []string{a.Name} }),
		listing.Text(filter.Email, func(a models.Admin) []string { return []string{a.Email} }),
		listing.Exact(filter.Group, func(a models.Admin) *string { return a.GroupID }),
	}
}

// Create adds an administrator with a unique, lower-cased email.
func (s *AdminService) Create(ctx context.Context, req CreateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	if !strongPassword(req.Password) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must contain letters and digits")
	}
	if req.GroupID != "" {
		if err := s.checkAdminGroup(ctx, req.GroupID); err != nil {
			return nil, err
		}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	admin := &models.Admin{Name: strings.TrimSpace(req.Name), Email: email, PasswordHash: hash, GroupID: optional(req.GroupID)}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
	return admin, nil
}

func (s *AdminService) checkAdminGroup(ctx context.Context, groupID string) error {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if group.Category != models.GroupCategoryAdmin {
		return appErrors.Clone(appErrors.ErrValidation, "group is not an admin group")
	}
	return nil
}

// Login authenticates an administrator and issues an access token.
func (s *AdminService) Login(ctx context.Context, req AdminLoginRequest) (*models.AdminLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	admin, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	if !s.auth.CheckPassword(admin.PasswordHash, req.Password) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	device, err := s.adminDevice(ctx, admin, req.MacAddress, req.DeviceName)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.auth.IssueToken(admin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	issuedAt := time.Now().UTC()
	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID))
	return &models.AdminLoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		IssuedAt:    issuedAt,
		Admin:       *admin,
		Device:      device,
	}, nil
}

// adminDevice resolves the login device. Admin devices are shared, so no binding happens;
// an unknown address is registered only when a device name accompanies it.
func (s *AdminService) adminDevice(ctx context.Context, admin *models.Admin, mac, name string) (*models.Device, error) {
	if strings.TrimSpace(mac) == "" {
		return nil, nil
	}
	device, err := s.devices.FindByMacAddress(ctx, mac)
	if err == nil {
		return device, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device")
	}
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	device = &models.Device{Name: strings.TrimSpace(name), MacAddress: mac, AdminID: &admin.ID}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register device")
	}
	s.logger.Info("admin device registered", zap.String("admin_id", admin.ID), zap.String("device_id", device.ID))
	return device, nil
}

// BulkImport creates administrators from a CSV or XLSX upload, reporting rejected rows.
func (s *AdminService) BulkImport(ctx context.Context, filename string, src io.Reader) (*models.ImportResult, error) {
	rows, err := tabular.Read(filename, src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import file")
	}

	result := &models.ImportResult{Failed: []models.ImportFailure{}}
	seen := map[string]map[string]bool{}
	for _, row := range rows {
		req := CreateAdminRequest{
			Name:     row.Get("name"),
			Email:    row.Get("email"),
			Password: row.Get("password"),
			GroupID:  row.Get("groupId"),
		}
		fail := func(reason string) {
			result.Failed = append(result.Failed, models.ImportFailure{Row: row.Number, Reason: reason, Name: req.Name, Email: req.Email})
		}

		if missing := missingFields(map[string]string{"name": req.Name, "email": req.Email, "password": req.Password}); missing != "" {
			fail("missing required fields: " + missing)
			continue
		}
		if err := s.validator.Var(req.Email, "email"); err != nil {
			fail("invalid email format")
			continue
		}
		if len(req.Password) < 8 || !strongPassword(req.Password) {
			fail("password must be at least 8 characters with letters and digits")
			continue
		}
		if dup := duplicateInFile(seen, map[string]string{"email": req.Email}); dup != "" {
			fail("duplicate " + dup + " in file")
			continue
		}
		if _, err := s.Create(ctx, req); err != nil {
			fail(appErrors.FromError(err).Message)
			continue
		}
		result.SuccessCount++
	}

	s.metrics.RecordImport("admin", result.SuccessCount, len(result.Failed))
	s.logger.Info("admin import finished", zap.Int("created", result.SuccessCount), zap.Int("failed", len(result.Failed)))
	return result, nil
}

func strongPassword(password string) bool {
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
