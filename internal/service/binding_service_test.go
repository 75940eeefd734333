package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

func newBindingFixture(t *testing.T) (*memoryStore, *BindingService) {
	t.Helper()
	store := newMemoryStore()
	password := hashPassword(t, "secret")
	store.addTrainee(models.Trainee{ID: "t1", Name: "Ali", FacultyID: "F-1", Phone: "0100", PasswordHash: password})
	store.addTrainee(models.Trainee{ID: "t2", Name: "Sara", FacultyID: "F-2", Phone: "0200", PasswordHash: password})
	store.addDevice(models.Device{ID: "d1", Name: "Tablet 1", MacAddress: "AA:BB:CC:00:00:01"})
	store.addDevice(models.Device{ID: "d2", Name: "Tablet 2", MacAddress: "AA:BB:CC:00:00:02"})
	svc := NewBindingService(store, store, store, nil, validator.New(), zap.NewNop())
	return store, svc
}

func TestBindingLoginBindsFreeDevice(t *testing.T) {
	store, svc := newBindingFixture(t)

	profile, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret", MacAddress: "aa-bb-cc-00-00-01"})
	require.NoError(t, err)
	require.NotNil(t, profile.Device)
	assert.Equal(t, "d1", profile.Device.ID)
	assert.Equal(t, "d1", *store.trainee("t1").DeviceID)
	assert.Equal(t, "t1", *store.device("d1").TraineeID)
	assert.Equal(t, 1, store.txCount)
	require.NoError(t, store.consistent())
}

func TestBindingLoginSameDeviceIsIdempotent(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t1", "d1")

	profile, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret", MacAddress: "AA:BB:CC:00:00:01"})
	require.NoError(t, err)
	assert.Equal(t, "d1", *profile.DeviceID)
	assert.Zero(t, store.txCount)
	require.NoError(t, store.consistent())
}

func TestBindingLoginMovesTraineeToNewDevice(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t1", "d1")

	_, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret", MacAddress: "AA:BB:CC:00:00:02"})
	require.NoError(t, err)
	assert.Nil(t, store.device("d1").TraineeID)
	assert.Equal(t, "t1", *store.device("d2").TraineeID)
	assert.Equal(t, "d2", *store.trainee("t1").DeviceID)
	require.NoError(t, store.consistent())
}

func TestBindingLoginTakesDeviceFromPreviousHolder(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t2", "d1")

	_, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret", MacAddress: "AA:BB:CC:00:00:01"})
	require.NoError(t, err)
	assert.Nil(t, store.trainee("t2").DeviceID)
	assert.Equal(t, "d1", *store.trainee("t1").DeviceID)
	assert.Equal(t, "t1", *store.device("d1").TraineeID)
	require.NoError(t, store.consistent())
}

func TestBindingLoginKeepsHolderBoundElsewhere(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t2", "d2")
	d1 := store.device("d1")
	d1.TraineeID = strPtr("t2")
	store.addDevice(d1)

	_, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret", MacAddress: "AA:BB:CC:00:00:01"})
	require.NoError(t, err)
	assert.Equal(t, "d2", *store.trainee("t2").DeviceID)
	assert.Equal(t, "t2", *store.device("d2").TraineeID)
	assert.Equal(t, "t1", *store.device("d1").TraineeID)
	require.NoError(t, store.consistent())
}

func TestBindingLoginWithoutMacLeavesBindingUntouched(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t1", "d1")

	profile, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "d1", profile.Device.ID)
	assert.Zero(t, store.txCount)
}

func TestBindingLoginErrors(t *testing.T) {
	store, svc := newBindingFixture(t)

	_, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret", MacAddress: "FF:FF:FF:FF:FF:FF"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, "Device not found", appErrors.FromError(err).Message)

	_, err = svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-9", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, "trainee not found", appErrors.FromError(err).Message)

	_, err = svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "wrong", MacAddress: "AA:BB:CC:00:00:01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Zero(t, store.txCount)
	assert.Nil(t, store.trainee("t1").DeviceID)
}

func TestBindingLoginCommitFailureIsTransient(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t2", "d1")
	store.commitErr = errors.New("connection reset")

	_, err := svc.Login(context.Background(), TraineeLoginRequest{FacultyID: "F-1", Password: "secret", MacAddress: "AA:BB:CC:00:00:01"})
	require.Error(t, err)
	assert.True(t, appErrors.IsTransient(err))
	assert.Equal(t, "failed to bind device, retry", appErrors.FromError(err).Message)

	assert.Nil(t, store.trainee("t1").DeviceID)
	assert.Equal(t, "d1", *store.trainee("t2").DeviceID)
	require.NoError(t, store.consistent())
}

func TestBindingLoginWithPhone(t *testing.T) {
	store, svc := newBindingFixture(t)

	profile, err := svc.LoginWithPhone(context.Background(), PhoneLoginRequest{Phone: "0200", MacAddress: "AA:BB:CC:00:00:02"})
	require.NoError(t, err)
	assert.Equal(t, "t2", profile.ID)
	assert.Equal(t, "t2", *store.device("d2").TraineeID)

	_, err = svc.LoginWithPhone(context.Background(), PhoneLoginRequest{Phone: "0999"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestBindingLogout(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t1", "d1")

	profile, err := svc.Logout(context.Background(), LogoutRequest{FacultyID: "F-1"})
	require.NoError(t, err)
	assert.Nil(t, profile.DeviceID)
	assert.Nil(t, profile.Device)
	assert.Nil(t, store.device("d1").TraineeID)
	assert.Equal(t, 1, store.txCount)
	require.NoError(t, store.consistent())
}

func TestBindingLogoutUnboundIsNoop(t *testing.T) {
	store, svc := newBindingFixture(t)

	profile, err := svc.Logout(context.Background(), LogoutRequest{FacultyID: "F-2"})
	require.NoError(t, err)
	assert.Equal(t, "t2", profile.ID)
	assert.Zero(t, store.txCount)

	_, err = svc.Logout(context.Background(), LogoutRequest{FacultyID: "F-9"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestBindingLogoutFailureIsTransient(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.bind("t1", "d1")
	store.commitErr = errors.New("deadlock detected")

	_, err := svc.Logout(context.Background(), LogoutRequest{FacultyID: "F-1"})
	require.Error(t, err)
	assert.True(t, appErrors.IsTransient(err))
	assert.Equal(t, "failed to logout, retry", appErrors.FromError(err).Message)
	assert.Equal(t, "d1", *store.trainee("t1").DeviceID)
}

func TestBindingSequencesStayConsistent(t *testing.T) {
	store, svc := newBindingFixture(t)
	store.addTrainee(models.Trainee{ID: "t3", FacultyID: "F-3", Phone: "0300"})
	store.addDevice(models.Device{ID: "d3", MacAddress: "AA:BB:CC:00:00:03"})

	phones := []string{"0100", "0200", "0300"}
	macs := []string{"AA:BB:CC:00:00:01", "AA:BB:CC:00:00:02", "AA:BB:CC:00:00:03"}
	faculty := []string{"F-1", "F-2", "F-3"}
	ctx := context.Background()

	for step := 0; step < 30; step++ {
		who := (step * 7) % 3
		if step%5 == 4 {
			_, err := svc.Logout(ctx, LogoutRequest{FacultyID: faculty[who]})
			require.NoError(t, err)
		} else {
			_, err := svc.LoginWithPhone(ctx, PhoneLoginRequest{Phone: phones[who], MacAddress: macs[(step*5)%3]})
			require.NoError(t, err)
		}
		require.NoError(t, store.consistent(), "step %d", step)
	}
}
