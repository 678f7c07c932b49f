package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyBucket            = "remote.bucket"
	keyRegion            = "remote.region"
	keyEndpoint          = "remote.endpoint"
	keyUsePathStyle      = "remote.use_path_style"
	keyRequestsPerSecond = "remote.requests_per_second"
	keyRequestBurst      = "remote.request_burst"
	keyAppID             = "namespace.app_id"
	keyDataSet           = "namespace.dataset"
	keyWriteArea         = "namespace.write_area"
	keyReadAreas         = "namespace.read_areas"
	keyPollInterval      = "sync.poll_interval"
	keyDataDir           = "sync.data_dir"
	keyCredentialsSource = "credentials.source"
	keyCredentialsFile   = "credentials.file"
	keyUserID            = "credentials.user_id"
)

// SettingsService manages synchronisation settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current settings.
func (s *SettingsService) Get() (*domain.SyncSettings, error) {
	defaults := domain.DefaultSyncSettings()

	readAreas := s.configStore.GetStringSlice(keyReadAreas)
	if len(readAreas) == 0 {
		readAreas = defaults.Namespace.ReadAreas
	}

	settings := &domain.SyncSettings{
		Remote: domain.RemoteSettings{
			Bucket:            s.configStore.GetString(keyBucket),
			Region:            s.getString(keyRegion, defaults.Remote.Region),
			Endpoint:          s.configStore.GetString(keyEndpoint),
			UsePathStyle:      s.getBool(keyUsePathStyle, defaults.Remote.UsePathStyle),
			RequestsPerSecond: s.getFloat(keyRequestsPerSecond, defaults.Remote.RequestsPerSecond),
			RequestBurst:      s.getInt(keyRequestBurst, defaults.Remote.RequestBurst),
		},
		Namespace: domain.Namespace{
			AppID:     s.configStore.GetString(keyAppID),
			DataSet:   s.configStore.GetString(keyDataSet),
			WriteArea: s.getString(keyWriteArea, defaults.Namespace.WriteArea),
			ReadAreas: readAreas,
		},
		PollInterval:      s.getDuration(keyPollInterval, defaults.PollInterval),
		DataDir:           s.configStore.GetString(keyDataDir),
		CredentialsSource: s.getString(keyCredentialsSource, defaults.CredentialsSource),
		CredentialsFile:   s.configStore.GetString(keyCredentialsFile),
		UserID:            s.configStore.GetString(keyUserID),
	}

	return settings, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings *domain.SyncSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}

	values := []struct {
		key   string
		value any
	}{
		{keyBucket, settings.Remote.Bucket},
		{keyRegion, settings.Remote.Region},
		{keyEndpoint, settings.Remote.Endpoint},
		{keyUsePathStyle, settings.Remote.UsePathStyle},
		{keyRequestsPerSecond, settings.Remote.RequestsPerSecond},
		{keyRequestBurst, settings.Remote.RequestBurst},
		{keyAppID, settings.Namespace.AppID},
		{keyDataSet, settings.Namespace.DataSet},
		{keyWriteArea, settings.Namespace.WriteArea},
		{keyReadAreas, settings.Namespace.ReadAreas},
		{keyPollInterval, settings.PollInterval.String()},
		{keyDataDir, settings.DataDir},
		{keyCredentialsSource, settings.CredentialsSource},
		{keyCredentialsFile, settings.CredentialsFile},
		{keyUserID, settings.UserID},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the stored settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.SyncSettings {
	return domain.DefaultSyncSettings()
}

// GetSchedulerConfig returns the scheduler configuration.
// The poll task follows sync.poll_interval unless overridden under scheduler.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	settings, _ := s.Get()
	cfg := domain.SchedulerConfigFor(*settings)

	// Master switch
	if _, exists := s.configStore.Get("scheduler.enabled"); exists {
		cfg.Enabled = s.configStore.GetBool("scheduler.enabled")
	}

	prefix := "scheduler.update_poll."
	taskCfg := cfg.TaskConfigs[domain.TaskIDUpdatePoll]
	if _, exists := s.configStore.Get(prefix + "enabled"); exists {
		taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
	}
	if interval := s.configStore.GetString(prefix + "interval"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			taskCfg.Interval = d
		}
	}
	cfg.TaskConfigs[domain.TaskIDUpdatePoll] = taskCfg

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getFloat accepts TOML floats, integers and environment strings.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return defaultVal
		}
		return f
	default:
		return defaultVal
	}
}

// getDuration parses duration strings like "30s" or "5m".
// A literal "0" or "0s" disables the setting.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}
