package domain

// Free-tier policy constants. Call sites must not hard-code these values.
const (
	// FreeSubscriptionLimit is the maximum number of subscriptions on the free tier
	FreeSubscriptionLimit = 3

	// FreeReminderDays is the fixed reminder lead time enforced on the free tier
	FreeReminderDays = 3
)

// CanAddSubscription reports whether another subscription may be created.
// isPro is always passed explicitly; gating never reads shared entitlement state.
func CanAddSubscription(currentCount int, isPro bool) bool {
	return isPro || currentCount < FreeSubscriptionLimit
}

// EnforcedReminderDays returns the reminder lead days that will actually be stored
func EnforcedReminderDays(input int, isPro bool) int {
	if isPro {
		return input
	}
	return FreeReminderDays
}

// CanUseCategories reports whether the category attribute is available
func CanUseCategories(isPro bool) bool {
	return isPro
}

// CanUseCustomReminders reports whether custom reminder windows are available
func CanUseCustomReminders(isPro bool) bool {
	return isPro
}

// CanExportCSV reports whether CSV export is available
func CanExportCSV(isPro bool) bool {
	return isPro
}
