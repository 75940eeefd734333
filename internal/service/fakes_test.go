package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
)

// memoryStore is an in-memory relational store: trainee, device and enrollment tables plus a
// transactor that applies writes only on commit.
type memoryStore struct {
	mu          sync.Mutex
	trainees    map[string]models.Trainee
	devices     map[string]models.Device
	enrollments map[string]models.Enrollment
	txCount     int
	commitErr   error
	seq         int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		trainees:    map[string]models.Trainee{},
		devices:     map[string]models.Device{},
		enrollments: map[string]models.Enrollment{},
	}
}

func strPtr(s string) *string { return &s }

func hashPassword(t *testing.T, password string) *string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return strPtr(string(hash))
}

func (m *memoryStore) addTrainee(t models.Trainee) {
	m.trainees[t.ID] = t
}

func (m *memoryStore) addDevice(d models.Device) {
	m.devices[d.ID] = d
}

// bind writes a consistent binding directly, bypassing transactions.
func (m *memoryStore) bind(traineeID, deviceID string) {
	t := m.trainees[traineeID]
	t.DeviceID = strPtr(deviceID)
	m.trainees[traineeID] = t
	d := m.devices[deviceID]
	d.TraineeID = strPtr(traineeID)
	m.devices[deviceID] = d
}

func (m *memoryStore) trainee(id string) models.Trainee {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainees[id]
}

func (m *memoryStore) device(id string) models.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.devices[id]
}

// consistent reports whether every binding is mutual and exclusive.
func (m *memoryStore) consistent() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	holders := map[string]string{}
	for _, t := range m.trainees {
		if t.DeviceID == nil {
			continue
		}
		if other, ok := holders[*t.DeviceID]; ok {
			return fmt.Errorf("device %s held by %s and %s", *t.DeviceID, other, t.ID)
		}
		holders[*t.DeviceID] = t.ID
		d := m.devices[*t.DeviceID]
		if d.TraineeID == nil || *d.TraineeID != t.ID {
			return fmt.Errorf("device %s does not point back at %s", d.ID, t.ID)
		}
	}
	for _, d := range m.devices {
		if d.TraineeID == nil {
			continue
		}
		t := m.trainees[*d.TraineeID]
		if t.DeviceID == nil || *t.DeviceID != d.ID {
			return fmt.Errorf("trainee %s does not point back at %s", *d.TraineeID, d.ID)
		}
	}
	return nil
}

func (m *memoryStore) FindByFacultyID(ctx context.Context, facultyID string) (*models.Trainee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trainees {
		if t.FacultyID == facultyID {
			out := t
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) FindByPhone(ctx context.Context, phone string) (*models.Trainee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trainees {
		if t.Phone == phone {
			out := t
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) Profile(ctx context.Context, id string) (*models.TraineeProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trainees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	profile := &models.TraineeProfile{Trainee: t, Enrollments: []models.EnrollmentDetail{}}
	if t.DeviceID != nil {
		if d, ok := m.devices[*t.DeviceID]; ok {
			profile.Device = &d
		}
	}
	return profile, nil
}

func (m *memoryStore) FindByMacAddress(ctx context.Context, mac string) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.MacAddress == repository.NormalizeMac(mac) {
			out := d
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) WithinTx(ctx context.Context, fn func(repository.TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	tx := &memoryTx{store: m, trainees: map[string]models.Trainee{}, devices: map[string]models.Device{}, enrollments: map[string]models.Enrollment{}}
	for k, v := range m.trainees {
		tx.trainees[k] = v
	}
	for k, v := range m.devices {
		tx.devices[k] = v
	}
	for k, v := range m.enrollments {
		tx.enrollments[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	if m.commitErr != nil {
		return fmt.Errorf("commit transaction: %w", m.commitErr)
	}
	m.trainees, m.devices, m.enrollments = tx.trainees, tx.devices, tx.enrollments
	return nil
}

type memoryTx struct {
	store       *memoryStore
	trainees    map[string]models.Trainee
	devices     map[string]models.Device
	enrollments map[string]models.Enrollment
}

func (tx *memoryTx) LockTrainee(ctx context.Context, id string) (*models.Trainee, error) {
	t, ok := tx.trainees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (tx *memoryTx) LockDevice(ctx context.Context, id string) (*models.Device, error) {
	d, ok := tx.devices[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (tx *memoryTx) SetTraineeDevice(ctx context.Context, traineeID string, deviceID *string) error {
	t, ok := tx.trainees[traineeID]
	if !ok {
		return errors.New("trainee row missing")
	}
	t.DeviceID = deviceID
	tx.trainees[traineeID] = t
	return nil
}

func (tx *memoryTx) SetDeviceTrainee(ctx context.Context, deviceID string, traineeID *string) error {
	d, ok := tx.devices[deviceID]
	if !ok {
		return errors.New("device row missing")
	}
	d.TraineeID = traineeID
	tx.devices[deviceID] = d
	return nil
}

func (tx *memoryTx) LatestEnrollment(ctx context.Context, traineeID, courseID string) (*models.Enrollment, error) {
	var latest *models.Enrollment
	for _, e := range tx.enrollments {
		if e.TraineeID != traineeID || e.CourseID != courseID {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			found := e
			latest = &found
		}
	}
	return latest, nil
}

func (tx *memoryTx) LockEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	e, ok := tx.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (tx *memoryTx) InsertEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	tx.store.seq++
	enrollment.ID = fmt.Sprintf("enr-%d", tx.store.seq)
	enrollment.CreatedAt = time.Now()
	enrollment.UpdatedAt = enrollment.CreatedAt
	tx.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (tx *memoryTx) UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if _, ok := tx.enrollments[enrollment.ID]; !ok {
		return sql.ErrNoRows
	}
	tx.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (tx *memoryTx) TouchLastAttempt(ctx context.Context, traineeID string, at time.Time) error {
	t, ok := tx.trainees[traineeID]
	if !ok {
		return sql.ErrNoRows
	}
	t.LastAttempt = &at
	tx.trainees[traineeID] = t
	return nil
}
