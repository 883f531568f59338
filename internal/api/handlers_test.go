package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/domain/ports"
	"github.com/renewo/renewo-server/internal/services/subscription"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSubscriptionService mocks the subscription service port
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Add(ctx context.Context, draft models.SubscriptionDraft, isPro bool) (uuid.UUID, error) {
	args := m.Called(ctx, draft, isPro)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockSubscriptionService) Update(ctx context.Context, id uuid.UUID, changes models.SubscriptionChanges, isPro bool) error {
	args := m.Called(ctx, id, changes, isPro)
	return args.Error(0)
}

func (m *MockSubscriptionService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscriptionService) NormalizeOverdueRenewals(ctx context.Context, now time.Time, opts subscription.SweepOptions) error {
	args := m.Called(ctx, now, opts)
	return args.Error(0)
}

func (m *MockSubscriptionService) Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) List(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionService) MonthlyTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *MockSubscriptionService) YearlyTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *MockSubscriptionService) ExportCSV(ctx context.Context, isPro bool) (string, error) {
	args := m.Called(ctx, isPro)
	return args.String(0), args.Error(1)
}

// MockEntitlementsService mocks the entitlements service port
type MockEntitlementsService struct {
	mock.Mock
}

func (m *MockEntitlementsService) IsPro() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEntitlementsService) Refresh(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntitlementsService) Purchase(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEntitlementsService) Restore(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
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

// MockScheduler mocks the notification scheduler
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) ScheduleRenewalNotification(ctx context.Context, id uuid.UUID, name string, renewalDate time.Time, reminderDays int, now time.Time) error {
	args := m.Called(ctx, id, name, renewalDate, reminderDays, now)
	return args.Error(0)
}

func (m *MockScheduler) CancelNotification(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}

func (m *MockScheduler) GetAuthorizationStatus(ctx context.Context) ports.AuthorizationStatus {
	args := m.Called(ctx)
	return args.Get(0).(ports.AuthorizationStatus)
}

func (m *MockScheduler) RequestAuthorizationIfNeeded(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
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

type testDeps struct {
	subs         *MockSubscriptionService
	entitlements *MockEntitlementsService
	settings     *MockSettingsStore
	scheduler    *MockScheduler
}

func newTestRouter(t *testing.T) (*testDeps, http.Handler) {
	t.Helper()
	deps := &testDeps{
		subs:         new(MockSubscriptionService),
		entitlements: new(MockEntitlementsService),
		settings:     new(MockSettingsStore),
		scheduler:    new(MockScheduler),
	}
	h := NewHandlers(deps.subs, deps.entitlements, deps.settings, deps.scheduler, quietLogger(), nil)
	return deps, SetupRoutes(h, RouterOptions{})
}

func TestCreateSubscription(t *testing.T) {
	deps, router := newTestRouter(t)

	id := uuid.New()
	deps.entitlements.On("IsPro").Return(false)
	deps.subs.On("Add", mock.Anything, mock.AnythingOfType("models.SubscriptionDraft"), false).
		Return(id, nil)

	body := `{"name":"Netflix","amount":"12.99","currencyCode":"EUR","billingCycle":"monthly","renewalDate":"2024-02-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id.String(), resp["id"])
}

func TestCreateSubscription_FreeLimit(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.entitlements.On("IsPro").Return(false)
	deps.subs.On("Add", mock.Anything, mock.Anything, false).
		Return(uuid.Nil, domain.ErrFreeLimitReached)

	body := `{"name":"Netflix","amount":"12.99","currencyCode":"EUR","billingCycle":"monthly","renewalDate":"2024-02-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.ErrorCodeFreeLimitReached), resp["code"])
}

func TestCreateSubscription_InvalidBody(t *testing.T) {
	_, router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"bad amount", `{"name":"A","amount":"abc","currencyCode":"EUR","billingCycle":"monthly","renewalDate":"2024-02-01"}`},
		{"bad date", `{"name":"A","amount":"1","currencyCode":"EUR","billingCycle":"monthly","renewalDate":"02/01/2024"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateSubscription_SchedulingFailureStillReturnsID(t *testing.T) {
	deps, router := newTestRouter(t)

	id := uuid.New()
	deps.entitlements.On("IsPro").Return(true)
	deps.subs.On("Add", mock.Anything, mock.Anything, true).
		Return(id, domain.WrapError(domain.ErrorCodeNotificationFailed, "schedule", assert.AnError))

	body := `{"name":"Netflix","amount":"12.99","currencyCode":"EUR","billingCycle":"monthly","renewalDate":"2024-02-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id.String(), resp["id"])
	assert.NotEmpty(t, resp["warning"])
}

func TestGetSubscription_NotFound(t *testing.T) {
	deps, router := newTestRouter(t)

	id := uuid.New()
	deps.subs.On("Get", mock.Anything, id).Return(nil, domain.ErrSubscriptionNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/"+id.String(), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSubscription_BadID(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSubscription_ClearsCategoryOnNull(t *testing.T) {
	deps, router := newTestRouter(t)

	id := uuid.New()
	deps.entitlements.On("IsPro").Return(true)

	var captured models.SubscriptionChanges
	deps.subs.On("Update", mock.Anything, id, mock.AnythingOfType("models.SubscriptionChanges"), true).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(models.SubscriptionChanges)
		}).
		Return(nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/subscriptions/"+id.String(),
		strings.NewReader(`{"category":null,"name":"Renamed"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	name, ok := captured.Name.Value()
	require.True(t, ok)
	assert.Equal(t, "Renamed", name)

	category, ok := captured.Category.Value()
	require.True(t, ok, "null category must arrive as an explicit clear")
	assert.Nil(t, category)

	assert.False(t, captured.Amount.IsSet(), "absent fields stay unset")
}

func TestDeleteSubscription(t *testing.T) {
	deps, router := newTestRouter(t)

	id := uuid.New()
	deps.subs.On("Delete", mock.Anything, id).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/subscriptions/"+id.String(), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	deps.subs.AssertCalled(t, "Delete", mock.Anything, id)
}

func TestGetTotals(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.subs.On("MonthlyTotals", mock.Anything).
		Return(map[string]decimal.Decimal{"EUR": decimal.NewFromInt(20)}, nil)
	deps.subs.On("YearlyTotals", mock.Anything).
		Return(map[string]decimal.Decimal{"EUR": decimal.NewFromInt(240)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/totals", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp totalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "20", resp.Monthly["EUR"])
	assert.Equal(t, "240", resp.Yearly["EUR"])
}

func TestExportCSV(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.entitlements.On("IsPro").Return(true)
	deps.subs.On("ExportCSV", mock.Anything, true).
		Return("name,amount,currencyCode,billingCycle,renewalDate,reminderDays,category", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/export", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "currencyCode")
}

func TestExportCSV_Locked(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.entitlements.On("IsPro").Return(false)
	deps.subs.On("ExportCSV", mock.Anything, false).Return("", domain.ErrFeatureLocked)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/export", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTriggerSweep(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.subs.On("NormalizeOverdueRenewals", mock.Anything, mock.AnythingOfType("time.Time"), subscription.SweepOptions{}).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/sweep", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSettings(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.settings.On("DefaultCurrencyCode", mock.Anything).Return("EUR", nil)
	deps.settings.On("DefaultReminderDays", mock.Anything).Return(3, nil)
	deps.settings.On("HasSeenNotificationPrompt", mock.Anything).Return(true, nil)
	deps.settings.On("HasShownFirstAddConfirmation", mock.Anything).Return(false, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp settingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "EUR", resp.DefaultCurrencyCode)
	assert.Equal(t, 3, resp.DefaultReminderDays)
	assert.True(t, resp.HasSeenNotificationPrompt)
	assert.False(t, resp.HasShownFirstAddConfirmation)
}

func TestUpdateSettings(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.settings.On("SetDefaultCurrencyCode", mock.Anything, "USD").Return(nil)
	deps.settings.On("SetDefaultReminderDays", mock.Anything, 5).Return(nil)
	deps.settings.On("SetHasShownFirstAddConfirmation", mock.Anything, true).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/settings",
		strings.NewReader(`{"defaultCurrencyCode":"USD","defaultReminderDays":5,"hasShownFirstAddConfirmation":true}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	deps.settings.AssertExpectations(t)
}

func TestUpdateSettings_NegativeReminderDays(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/settings",
		strings.NewReader(`{"defaultReminderDays":-1}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchasePro_Cancelled(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.entitlements.On("Purchase", mock.Anything).Return(domain.ErrUserCancelled)

	req := httptest.NewRequest(http.MethodPost, "/api/entitlements/purchase", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetEntitlements(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.entitlements.On("IsPro").Return(true)

	req := httptest.NewRequest(http.MethodGet, "/api/entitlements", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp entitlementsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsPro)
	assert.Equal(t, "com.renewo.pro.lifetime", resp.ProductID)
}

func TestNotificationAuthorization(t *testing.T) {
	deps, router := newTestRouter(t)

	deps.scheduler.On("GetAuthorizationStatus", mock.Anything).
		Return(ports.AuthorizationAuthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/authorization", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "authorized", resp["status"])
}
