package driving

import "github.com/custodia-labs/updatesync/internal/core/domain"

// SettingsService manages synchronisation settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset keys.
	Get() (*domain.SyncSettings, error)

	// Save persists settings.
	Save(settings *domain.SyncSettings) error

	// Validate checks the stored settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.SyncSettings

	// GetSchedulerConfig returns the scheduler configuration.
	GetSchedulerConfig() domain.SchedulerConfig
}
