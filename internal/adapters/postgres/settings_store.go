package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/renewo/renewo-server/internal/domain/ports"
)

// SettingsStore implements ports.SettingsStore over a key-value table.
// Missing keys read as their documented defaults.
type SettingsStore struct {
	db ports.DBPort
}

// NewSettingsStore creates a new settings store
func NewSettingsStore(db ports.DBPort) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetDB().QueryRow(ctx, `SELECT value FROM app_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.GetDB().Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *SettingsStore) getBool(ctx context.Context, key string) (bool, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("setting %s is not a bool: %w", key, err)
	}
	return value, nil
}

// DefaultCurrencyCode returns the configured currency, "EUR" when unset
func (s *SettingsStore) DefaultCurrencyCode(ctx context.Context) (string, error) {
	raw, ok, err := s.get(ctx, ports.SettingDefaultCurrencyCode)
	if err != nil || !ok {
		return ports.DefaultCurrencyCode, err
	}
	return raw, nil
}

// SetDefaultCurrencyCode stores the default currency code
func (s *SettingsStore) SetDefaultCurrencyCode(ctx context.Context, code string) error {
	return s.set(ctx, ports.SettingDefaultCurrencyCode, code)
}

// DefaultReminderDays returns the configured reminder lead time, 3 when unset
func (s *SettingsStore) DefaultReminderDays(ctx context.Context) (int, error) {
	raw, ok, err := s.get(ctx, ports.SettingDefaultReminderDays)
	if err != nil || !ok {
		return ports.DefaultReminderDays, err
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not an int: %w", ports.SettingDefaultReminderDays, err)
	}
	return days, nil
}

// SetDefaultReminderDays stores the default reminder lead time
func (s *SettingsStore) SetDefaultReminderDays(ctx context.Context, days int) error {
	return s.set(ctx, ports.SettingDefaultReminderDays, strconv.Itoa(days))
}

// HasSeenNotificationPrompt reads the one-shot prompt flag
func (s *SettingsStore) HasSeenNotificationPrompt(ctx context.Context) (bool, error) {
	return s.getBool(ctx, ports.SettingHasSeenNotificationPrompt)
}

// SetHasSeenNotificationPrompt stores the one-shot prompt flag
func (s *SettingsStore) SetHasSeenNotificationPrompt(ctx context.Context, seen bool) error {
	return s.set(ctx, ports.SettingHasSeenNotificationPrompt, strconv.FormatBool(seen))
}

// HasShownFirstAddConfirmation reads the one-shot confirmation flag
func (s *SettingsStore) HasShownFirstAddConfirmation(ctx context.Context) (bool, error) {
	return s.getBool(ctx, ports.SettingHasShownFirstAddConfirmation)
}

// SetHasShownFirstAddConfirmation stores the one-shot confirmation flag
func (s *SettingsStore) SetHasShownFirstAddConfirmation(ctx context.Context, shown bool) error {
	return s.set(ctx, ports.SettingHasShownFirstAddConfirmation, strconv.FormatBool(shown))
}

// NotificationAuthorization reads the stored permission state, notDetermined when unset
func (s *SettingsStore) NotificationAuthorization(ctx context.Context) (ports.AuthorizationStatus, error) {
	raw, ok, err := s.get(ctx, ports.SettingNotificationAuthorization)
	if err != nil {
		return ports.AuthorizationUnknown, err
	}
	if !ok {
		return ports.AuthorizationNotDetermined, nil
	}
	switch status := ports.AuthorizationStatus(raw); status {
	case ports.AuthorizationAuthorized, ports.AuthorizationDenied, ports.AuthorizationNotDetermined:
		return status, nil
	default:
		return ports.AuthorizationUnknown, nil
	}
}

// SetNotificationAuthorization stores the permission state
func (s *SettingsStore) SetNotificationAuthorization(ctx context.Context, status ports.AuthorizationStatus) error {
	return s.set(ctx, ports.SettingNotificationAuthorization, string(status))
}
