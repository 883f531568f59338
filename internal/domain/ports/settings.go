package ports

import "context"

// Setting keys and defaults
const (
	SettingDefaultCurrencyCode          = "defaultCurrencyCode"
	SettingDefaultReminderDays          = "defaultReminderDays"
	SettingHasSeenNotificationPrompt    = "hasSeenNotificationPrompt"
	SettingHasShownFirstAddConfirmation = "hasShownFirstAddConfirmation"
	SettingNotificationAuthorization    = "notificationAuthorization"

	DefaultCurrencyCode = "EUR"
	DefaultReminderDays = 3
)

// SettingsStore is plain key-value app settings, no business logic
type SettingsStore interface {
	DefaultCurrencyCode(ctx context.Context) (string, error)
	SetDefaultCurrencyCode(ctx context.Context, code string) error

	DefaultReminderDays(ctx context.Context) (int, error)
	SetDefaultReminderDays(ctx context.Context, days int) error

	HasSeenNotificationPrompt(ctx context.Context) (bool, error)
	SetHasSeenNotificationPrompt(ctx context.Context, seen bool) error

	HasShownFirstAddConfirmation(ctx context.Context) (bool, error)
	SetHasShownFirstAddConfirmation(ctx context.Context, shown bool) error

	NotificationAuthorization(ctx context.Context) (AuthorizationStatus, error)
	SetNotificationAuthorization(ctx context.Context, status AuthorizationStatus) error
}
