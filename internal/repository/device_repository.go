package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/models"
)

// DeviceRepository manages registered devices.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository constructs a DeviceRepository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// NormalizeMac canonicalises a hardware address for storage and lookup.
func NormalizeMac(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

// FindByMacAddress returns sql.ErrNoRows when no device has the address.
func (r *DeviceRepository) FindByMacAddress(ctx context.Context, mac string) (*models.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM devices d WHERE d.mac_address = $1", deviceColumns)
	var device models.Device
	if err := r.db.GetContext(ctx, &device, query, NormalizeMac(mac)); err != nil {
		return nil, err
	}
	return &device, nil
}

// ExistsByMacAddress reports whether the address is already registered.
func (r *DeviceRepository) ExistsByMacAddress(ctx context.Context, mac string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM devices WHERE mac_address = $1 LIMIT 1", NormalizeMac(mac)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check device mac: %w", err)
	}
	return true, nil
}

// Create registers a device. Binding columns start empty unless an admin is supplied.
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	device.MacAddress = NormalizeMac(device.MacAddress)
	now := time.Now().UTC()
	device.CreatedAt = now
	device.UpdatedAt = now
	const query = `INSERT INTO devices (id, name, mac_address, trainee_id, admin_id, created_at, updated_at)
        VALUES (:id, :name, :mac_address, :trainee_id, :admin_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, device); err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}
