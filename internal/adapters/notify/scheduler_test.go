package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotificationStore mocks the pending-alert store
type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Upsert(ctx context.Context, db ports.DBTX, n *models.PendingNotification) error {
	args := m.Called(ctx, db, n)
	return args.Error(0)
}

func (m *MockNotificationStore) Delete(ctx context.Context, db ports.DBTX, subscriptionID uuid.UUID) error {
	args := m.Called(ctx, db, subscriptionID)
	return args.Error(0)
}

func (m *MockNotificationStore) GetBySubscriptionID(ctx context.Context, db ports.DBTX, subscriptionID uuid.UUID) (*models.PendingNotification, error) {
	args := m.Called(ctx, db, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingNotification), args.Error(1)
}

func (m *MockNotificationStore) ListDueBefore(ctx context.Context, db ports.DBTX, cutoff time.Time) ([]*models.PendingNotification, error) {
	args := m.Called(ctx, db, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PendingNotification), args.Error(1)
}

// MockSettingsStore mocks the settings store
type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) DefaultCurrencyCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsStore) SetDefaultCurrencyCode(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockSettingsStore) DefaultReminderDays(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSettingsStore) SetDefaultReminderDays(ctx context.Context, days int) error {
	args := m.Called(ctx, days)
	return args.Error(0)
}

func (m *MockSettingsStore) HasSeenNotificationPrompt(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettingsStore) SetHasSeenNotificationPrompt(ctx context.Context, seen bool) error {
	args := m.Called(ctx, seen)
	return args.Error(0)
}

func (m *MockSettingsStore) HasShownFirstAddConfirmation(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettingsStore) SetHasShownFirstAddConfirmation(ctx context.Context, shown bool) error {
	args := m.Called(ctx, shown)
	return args.Error(0)
}

func (m *MockSettingsStore) NotificationAuthorization(ctx context.Context) (ports.AuthorizationStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.AuthorizationStatus), args.Error(1)
}

func (m *MockSettingsStore) SetNotificationAuthorization(ctx context.Context, status ports.AuthorizationStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

// MockLogger mocks the logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Info(msg string, fields ...ports.Field)  { m.Called(msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  { m.Called(msg, fields) }
func (m *MockLogger) Error(msg string, fields ...ports.Field) { m.Called(msg, fields) }
func (m *MockLogger) Debug(msg string, fields ...ports.Field) { m.Called(msg, fields) }

func quietLogger() *MockLogger {
	l := new(MockLogger)
	l.On("Info", mock.Anything, mock.Anything).Return().Maybe()
	l.On("Warn", mock.Anything, mock.Anything).Return().Maybe()
	l.On("Error", mock.Anything, mock.Anything).Return().Maybe()
	l.On("Debug", mock.Anything, mock.Anything).Return().Maybe()
	return l
}

func TestScheduler_ScheduleRenewalNotification(t *testing.T) {
	mockStore := new(MockNotificationStore)
	scheduler := NewScheduler(mockStore, new(MockSettingsStore), quietLogger())

	ctx := context.Background()
	id := uuid.New()
	renewalDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	var stored *models.PendingNotification
	mockStore.On("Upsert", ctx, nil, mock.AnythingOfType("*models.PendingNotification")).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).(*models.PendingNotification)
		}).
		Return(nil)

	err := scheduler.ScheduleRenewalNotification(ctx, id, "Netflix", renewalDate, 3, now)

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id, stored.SubscriptionID)
	assert.Equal(t, "Netflix", stored.Title)
	assert.Equal(t, "Renews on Feb 1, 2024", stored.Body)
	assert.Equal(t, time.Date(2024, 1, 29, 9, 0, 0, 0, time.UTC), stored.FireAt)
}

func TestScheduler_ScheduleRenewalNotification_StoreFailure(t *testing.T) {
	mockStore := new(MockNotificationStore)
	scheduler := NewScheduler(mockStore, new(MockSettingsStore), quietLogger())

	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	mockStore.On("Upsert", ctx, nil, mock.Anything).Return(errors.New("disk full"))

	err := scheduler.ScheduleRenewalNotification(ctx, uuid.New(), "Netflix",
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 3, now)

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeNotificationFailed, domain.GetErrorCode(err))
}

func TestScheduler_CancelNotification_SwallowsFailure(t *testing.T) {
	mockStore := new(MockNotificationStore)
	scheduler := NewScheduler(mockStore, new(MockSettingsStore), quietLogger())

	ctx := context.Background()
	id := uuid.New()

	mockStore.On("Delete", ctx, nil, id).Return(errors.New("gone"))

	// No return value to assert: cancellation must not surface failures.
	scheduler.CancelNotification(ctx, id)

	mockStore.AssertCalled(t, "Delete", ctx, nil, id)
}

func TestScheduler_GetAuthorizationStatus(t *testing.T) {
	mockSettings := new(MockSettingsStore)
	scheduler := NewScheduler(new(MockNotificationStore), mockSettings, quietLogger())

	ctx := context.Background()
	mockSettings.On("NotificationAuthorization", ctx).Return(ports.AuthorizationDenied, nil)

	assert.Equal(t, ports.AuthorizationDenied, scheduler.GetAuthorizationStatus(ctx))
}

func TestScheduler_GetAuthorizationStatus_ReadFailure(t *testing.T) {
	mockSettings := new(MockSettingsStore)
	scheduler := NewScheduler(new(MockNotificationStore), mockSettings, quietLogger())

	ctx := context.Background()
	mockSettings.On("NotificationAuthorization", ctx).
		Return(ports.AuthorizationUnknown, errors.New("read failed"))

	assert.Equal(t, ports.AuthorizationUnknown, scheduler.GetAuthorizationStatus(ctx))
}

func TestScheduler_RequestAuthorizationIfNeeded(t *testing.T) {
	tests := []struct {
		name     string
		current  ports.AuthorizationStatus
		grants   bool
		expected bool
	}{
		{"already authorized", ports.AuthorizationAuthorized, false, true},
		{"denied stays denied", ports.AuthorizationDenied, false, false},
		{"not determined grants", ports.AuthorizationNotDetermined, true, true},
		{"unknown does not grant", ports.AuthorizationUnknown, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSettings := new(MockSettingsStore)
			scheduler := NewScheduler(new(MockNotificationStore), mockSettings, quietLogger())

			ctx := context.Background()
			mockSettings.On("NotificationAuthorization", ctx).Return(tt.current, nil)
			if tt.grants {
				mockSettings.On("SetNotificationAuthorization", ctx, ports.AuthorizationAuthorized).
					Return(nil)
				mockSettings.On("SetHasSeenNotificationPrompt", ctx, true).Return(nil)
			}

			assert.Equal(t, tt.expected, scheduler.RequestAuthorizationIfNeeded(ctx))
			mockSettings.AssertExpectations(t)
		})
	}
}
