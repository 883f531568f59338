package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCanAddSubscription tests the free tier cap
func TestCanAddSubscription(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		isPro    bool
		expected bool
	}{
		{"free with none", 0, false, true},
		{"free under limit", 2, false, true},
		{"free at limit", 3, false, false},
		{"free over limit", 7, false, false},
		{"pro at limit", 3, true, true},
		{"pro far past limit", 100, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanAddSubscription(tt.count, tt.isPro))
		})
	}
}

// TestEnforcedReminderDays tests the reminder override for non-pro users
func TestEnforcedReminderDays(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		isPro    bool
		expected int
	}{
		{"free forces default", 14, false, FreeReminderDays},
		{"free forces default even when matching", 3, false, FreeReminderDays},
		{"free forces default from zero", 0, false, FreeReminderDays},
		{"pro keeps custom value", 14, true, 14},
		{"pro keeps zero", 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnforcedReminderDays(tt.input, tt.isPro))
		})
	}
}

// TestFeatureGates tests the pro-only feature switches
func TestFeatureGates(t *testing.T) {
	assert.False(t, CanUseCategories(false))
	assert.True(t, CanUseCategories(true))

	assert.False(t, CanUseCustomReminders(false))
	assert.True(t, CanUseCustomReminders(true))

	assert.False(t, CanExportCSV(false))
	assert.True(t, CanExportCSV(true))
}
