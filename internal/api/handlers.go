package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/renewo/renewo-server/internal/domain"
	"github.com/renewo/renewo-server/internal/domain/models"
	"github.com/renewo/renewo-server/internal/domain/ports"
	"github.com/renewo/renewo-server/internal/services/entitlements"
	serviceports "github.com/renewo/renewo-server/internal/services/ports"
	"github.com/renewo/renewo-server/internal/services/subscription"
	"github.com/renewo/renewo-server/pkg/observability"
	"github.com/renewo/renewo-server/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// Handlers holds the HTTP handlers and their dependencies
type Handlers struct {
	subscriptions serviceports.SubscriptionService
	entitlements  serviceports.EntitlementsService
	settings      ports.SettingsStore
	scheduler     ports.NotificationScheduler
	logger        ports.Logger
	now           func() time.Time
}

// NewHandlers creates the handler set. A nil now falls back to timeutil.Now.
func NewHandlers(
	subscriptions serviceports.SubscriptionService,
	entitlementSvc serviceports.EntitlementsService,
	settings ports.SettingsStore,
	scheduler ports.NotificationScheduler,
	logger ports.Logger,
	now func() time.Time,
) *Handlers {
	if now == nil {
		now = timeutil.Now
	}
	return &Handlers{
		subscriptions: subscriptions,
		entitlements:  entitlementSvc,
		settings:      settings,
		scheduler:     scheduler,
		logger:        logger,
		now:           now,
	}
}

// Request/response shapes

type subscriptionResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Amount       string  `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
	BillingCycle string  `json:"billingCycle"`
	RenewalDate  string  `json:"renewalDate"`
	ReminderDays int     `json:"reminderDays"`
	Category     *string `json:"category,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

type createSubscriptionRequest struct {
	Name         string  `json:"name"`
	Amount       string  `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
	BillingCycle string  `json:"billingCycle"`
	RenewalDate  string  `json:"renewalDate"`
	ReminderDays *int    `json:"reminderDays"`
	Category     *string `json:"category"`
}

// updateSubscriptionRequest distinguishes absent fields from explicit nulls:
// absent leaves the field untouched, a null category clears it.
type updateSubscriptionRequest struct {
	Name         *string         `json:"name"`
	Amount       *string         `json:"amount"`
	CurrencyCode *string         `json:"currencyCode"`
	BillingCycle *string         `json:"billingCycle"`
	RenewalDate  *string         `json:"renewalDate"`
	ReminderDays *int            `json:"reminderDays"`
	Category     json.RawMessage `json:"category"`
}

type totalsResponse struct {
	Monthly map[string]string `json:"monthly"`
	Yearly  map[string]string `json:"yearly"`
}

type settingsResponse struct {
	DefaultCurrencyCode          string `json:"defaultCurrencyCode"`
	DefaultReminderDays          int    `json:"defaultReminderDays"`
	HasSeenNotificationPrompt    bool   `json:"hasSeenNotificationPrompt"`
	HasShownFirstAddConfirmation bool   `json:"hasShownFirstAddConfirmation"`
}

type updateSettingsRequest struct {
	DefaultCurrencyCode          *string `json:"defaultCurrencyCode"`
	DefaultReminderDays          *int    `json:"defaultReminderDays"`
	HasSeenNotificationPrompt    *bool   `json:"hasSeenNotificationPrompt"`
	HasShownFirstAddConfirmation *bool   `json:"hasShownFirstAddConfirmation"`
}

type entitlementsResponse struct {
	IsPro     bool   `json:"isPro"`
	ProductID string `json:"productId"`
}

func toSubscriptionResponse(sub *models.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:           sub.ID.String(),
		Name:         sub.Name,
		Amount:       sub.Amount.String(),
		CurrencyCode: sub.CurrencyCode,
		BillingCycle: string(sub.BillingCycle),
		RenewalDate:  sub.RenewalDate.Format("2006-01-02"),
		ReminderDays: int(sub.ReminderDays),
		Category:     sub.Category,
		CreatedAt:    sub.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    sub.UpdatedAt.Format(time.RFC3339),
	}
}

// Subscription handlers

// ListSubscriptions returns all subscriptions ordered by renewal date
func (h *Handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.List(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	out := make([]subscriptionResponse, len(subs))
	for i, sub := range subs {
		out[i] = toSubscriptionResponse(sub)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetSubscription returns one subscription by id
func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	sub, err := h.subscriptions.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// CreateSubscription adds a subscription
func (h *Handlers) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	renewalDate, err := time.Parse("2006-01-02", req.RenewalDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid renewal date, expected YYYY-MM-DD")
		return
	}

	draft := models.SubscriptionDraft{
		Name:         req.Name,
		Amount:       amount,
		CurrencyCode: req.CurrencyCode,
		BillingCycle: domain.BillingCycle(req.BillingCycle),
		RenewalDate:  renewalDate.UTC(),
		ReminderDays: req.ReminderDays,
		Category:     req.Category,
	}

	isPro := h.entitlements.IsPro()
	id, err := h.subscriptions.Add(r.Context(), draft, isPro)
	if err != nil {
		if domain.GetErrorCode(err) == domain.ErrorCodeFreeLimitReached {
			observability.RecordFreeLimitRejection()
		}
		// A scheduling failure still produced a row; report it with the id.
		if id != uuid.Nil {
			respondJSON(w, http.StatusCreated, map[string]string{
				"id":      id.String(),
				"warning": "subscription saved but reminder scheduling failed",
			})
			return
		}
		h.respondDomainError(w, err)
		return
	}

	observability.RecordSubscriptionAdded(isPro, req.BillingCycle)
	respondJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// UpdateSubscription applies a partial patch to a subscription
func (h *Handlers) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changes, err := toChanges(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.subscriptions.Update(r.Context(), id, changes, h.entitlements.IsPro()); err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toChanges(req updateSubscriptionRequest) (models.SubscriptionChanges, error) {
	var changes models.SubscriptionChanges

	if req.Name != nil {
		changes.Name = models.SetTo(*req.Name)
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return changes, errors.New("invalid amount")
		}
		changes.Amount = models.SetTo(amount)
	}
	if req.CurrencyCode != nil {
		changes.CurrencyCode = models.SetTo(*req.CurrencyCode)
	}
	if req.BillingCycle != nil {
		changes.BillingCycle = models.SetTo(domain.BillingCycle(*req.BillingCycle))
	}
	if req.RenewalDate != nil {
		renewalDate, err := time.Parse("2006-01-02", *req.RenewalDate)
		if err != nil {
			return changes, errors.New("invalid renewal date, expected YYYY-MM-DD")
		}
		changes.RenewalDate = models.SetTo(renewalDate.UTC())
	}
	if req.ReminderDays != nil {
		changes.ReminderDays = models.SetTo(*req.ReminderDays)
	}
	if len(req.Category) > 0 {
		var category *string
		if err := json.Unmarshal(req.Category, &category); err != nil {
			return changes, errors.New("invalid category")
		}
		changes.Category = models.SetTo(category)
	}

	return changes, nil
}

// DeleteSubscription removes a subscription and its pending reminder
func (h *Handlers) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	if err := h.subscriptions.Delete(r.Context(), id); err != nil {
		h.respondDomainError(w, err)
		return
	}

	observability.RecordSubscriptionDeleted()
	w.WriteHeader(http.StatusNoContent)
}

// GetTotals returns per-currency monthly and yearly totals
func (h *Handlers) GetTotals(w http.ResponseWriter, r *http.Request) {
	monthly, err := h.subscriptions.MonthlyTotals(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	yearly, err := h.subscriptions.YearlyTotals(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, totalsResponse{
		Monthly: stringifyTotals(monthly),
		Yearly:  stringifyTotals(yearly),
	})
}

func stringifyTotals(totals map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(totals))
	for code, amount := range totals {
		out[code] = amount.String()
	}
	return out
}

// ExportCSV streams the subscription list as CSV. Pro only.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	csv, err := h.subscriptions.ExportCSV(r.Context(), h.entitlements.IsPro())
	if err != nil {
		if domain.GetErrorCode(err) == domain.ErrorCodeFeatureLocked {
			observability.RecordCSVExport("locked")
		} else {
			observability.RecordCSVExport("failed")
		}
		h.respondDomainError(w, err)
		return
	}

	observability.RecordCSVExport("success")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}

// TriggerSweep runs the overdue-renewal sweep on demand
func (h *Handlers) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := h.subscriptions.NormalizeOverdueRenewals(r.Context(), h.now(), subscription.SweepOptions{})
	observability.RecordSweep("manual", time.Since(start).Seconds(), 0, err)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// Settings handlers

// GetSettings returns the app settings
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	currency, err := h.settings.DefaultCurrencyCode(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	reminderDays, err := h.settings.DefaultReminderDays(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	seenPrompt, err := h.settings.HasSeenNotificationPrompt(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	shownConfirmation, err := h.settings.HasShownFirstAddConfirmation(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, settingsResponse{
		DefaultCurrencyCode:          currency,
		DefaultReminderDays:          reminderDays,
		HasSeenNotificationPrompt:    seenPrompt,
		HasShownFirstAddConfirmation: shownConfirmation,
	})
}

// UpdateSettings stores app settings
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DefaultCurrencyCode != nil {
		if *req.DefaultCurrencyCode == "" {
			respondError(w, http.StatusBadRequest, "currency code must not be empty")
			return
		}
		if err := h.settings.SetDefaultCurrencyCode(r.Context(), *req.DefaultCurrencyCode); err != nil {
			h.respondDomainError(w, err)
			return
		}
	}
	if req.DefaultReminderDays != nil {
		if *req.DefaultReminderDays < 0 {
			respondError(w, http.StatusBadRequest, "reminder days must not be negative")
			return
		}
		if err := h.settings.SetDefaultReminderDays(r.Context(), *req.DefaultReminderDays); err != nil {
			h.respondDomainError(w, err)
			return
		}
	}
	if req.HasSeenNotificationPrompt != nil {
		if err := h.settings.SetHasSeenNotificationPrompt(r.Context(), *req.HasSeenNotificationPrompt); err != nil {
			h.respondDomainError(w, err)
			return
		}
	}
	if req.HasShownFirstAddConfirmation != nil {
		if err := h.settings.SetHasShownFirstAddConfirmation(r.Context(), *req.HasShownFirstAddConfirmation); err != nil {
			h.respondDomainError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Notification handlers

// GetNotificationAuthorization reports the notification permission state
func (h *Handlers) GetNotificationAuthorization(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": string(h.scheduler.GetAuthorizationStatus(r.Context())),
	})
}

// RequestNotificationAuthorization prompts for permission when undetermined
func (h *Handlers) RequestNotificationAuthorization(w http.ResponseWriter, r *http.Request) {
	authorized := h.scheduler.RequestAuthorizationIfNeeded(r.Context())
	respondJSON(w, http.StatusOK, map[string]bool{"authorized": authorized})
}

// Entitlement handlers

// GetEntitlements returns the cached Pro state
func (h *Handlers) GetEntitlements(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, entitlementsResponse{
		IsPro:     h.entitlements.IsPro(),
		ProductID: entitlements.ProProductID,
	})
}

// RefreshEntitlements re-verifies the Pro entitlement
func (h *Handlers) RefreshEntitlements(w http.ResponseWriter, r *http.Request) {
	isPro, err := h.entitlements.Refresh(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entitlementsResponse{
		IsPro:     isPro,
		ProductID: entitlements.ProProductID,
	})
}

// PurchasePro runs the Pro purchase flow
func (h *Handlers) PurchasePro(w http.ResponseWriter, r *http.Request) {
	if err := h.entitlements.Purchase(r.Context()); err != nil {
		switch domain.GetErrorCode(err) {
		case domain.ErrorCodeUserCancelled:
			observability.RecordPurchase("cancelled")
		default:
			observability.RecordPurchase("failed")
		}
		h.respondDomainError(w, err)
		return
	}

	observability.RecordPurchase("success")
	respondJSON(w, http.StatusOK, entitlementsResponse{
		IsPro:     true,
		ProductID: entitlements.ProProductID,
	})
}

// RestorePurchases replays prior purchases
func (h *Handlers) RestorePurchases(w http.ResponseWriter, r *http.Request) {
	if err := h.entitlements.Restore(r.Context()); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entitlementsResponse{
		IsPro:     h.entitlements.IsPro(),
		ProductID: entitlements.ProProductID,
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain error codes to HTTP statuses
func (h *Handlers) respondDomainError(w http.ResponseWriter, err error) {
	code := domain.GetErrorCode(err)

	status := http.StatusInternalServerError
	switch {
	case code == domain.ErrorCodeValidationFailed:
		status = http.StatusBadRequest
	case code == domain.ErrorCodeSubscriptionNotFound:
		status = http.StatusNotFound
	case domain.IsPolicyError(err):
		status = http.StatusForbidden
	case code == domain.ErrorCodeUserCancelled:
		status = http.StatusConflict
	case domain.IsPurchaseError(err):
		status = http.StatusBadGateway
	case code == domain.ErrorCodeNotificationFailed:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", ports.Err(err))
	}

	body := map[string]string{"error": err.Error()}
	if code != "" {
		body["code"] = string(code)
	}
	respondJSON(w, status, body)
}
