package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/updatesync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage synchronisation settings",
	Long: `View and change where updates are stored and how often they are polled.

Settings live in ~/.updatesync/config.toml. Any key can be overridden with an
UPDATESYNC_ environment variable, for example UPDATESYNC_REMOTE_BUCKET.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting and save it.

Keys:
` + settingKeysHelp(),
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingField names a settings key and how to change it.
type settingField struct {
	help string
	set  func(s *domain.SyncSettings, value string) error
}

var settingFields = map[string]settingField{
	"remote.bucket": {"bucket holding update objects", func(s *domain.SyncSettings, v string) error {
		s.Remote.Bucket = v
		return nil
	}},
	"remote.region": {"object store region", func(s *domain.SyncSettings, v string) error {
		s.Remote.Region = v
		return nil
	}},
	"remote.endpoint": {"S3-compatible endpoint URL", func(s *domain.SyncSettings, v string) error {
		s.Remote.Endpoint = v
		return nil
	}},
	"remote.use_path_style": {"path-style bucket addressing (true/false)", func(s *domain.SyncSettings, v string) error {
		b, err := strconv.ParseBool(v)
		s.Remote.UsePathStyle = b
		return err
	}},
	"remote.requests_per_second": {"object store rate limit, 0 disables", func(s *domain.SyncSettings, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		s.Remote.RequestsPerSecond = f
		return err
	}},
	"remote.request_burst": {"rate limiter burst", func(s *domain.SyncSettings, v string) error {
		n, err := strconv.Atoi(v)
		s.Remote.RequestBurst = n
		return err
	}},
	"namespace.app_id": {"application identifier", func(s *domain.SyncSettings, v string) error {
		s.Namespace.AppID = v
		return nil
	}},
	"namespace.dataset": {"dataset within the application", func(s *domain.SyncSettings, v string) error {
		s.Namespace.DataSet = v
		return nil
	}},
	"namespace.write_area": {"area this client writes to", func(s *domain.SyncSettings, v string) error {
		s.Namespace.WriteArea = v
		return nil
	}},
	"namespace.read_areas": {"comma-separated areas read in order", func(s *domain.SyncSettings, v string) error {
		s.Namespace.ReadAreas = splitList(v)
		return nil
	}},
	"sync.poll_interval": {"background poll interval, 0 disables", func(s *domain.SyncSettings, v string) error {
		d, err := time.ParseDuration(v)
		s.PollInterval = d
		return err
	}},
	"sync.data_dir": {"local log directory", func(s *domain.SyncSettings, v string) error {
		s.DataDir = v
		return nil
	}},
	"credentials.source": {"file or aws", func(s *domain.SyncSettings, v string) error {
		s.CredentialsSource = v
		return nil
	}},
	"credentials.file": {"credentials file watched for sign-in", func(s *domain.SyncSettings, v string) error {
		s.CredentialsFile = v
		return nil
	}},
	"credentials.user_id": {"user id for AWS chain credentials", func(s *domain.SyncSettings, v string) error {
		s.UserID = v
		return nil
	}},
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingFields))
	for k := range settingFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func settingKeysHelp() string {
	var b strings.Builder
	for _, k := range settingKeys() {
		fmt.Fprintf(&b, "  %-28s %s\n", k, settingFields[k].help)
	}
	return b.String()
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Remote]")
	cmd.Printf("  Bucket: %s\n", orNotSet(settings.Remote.Bucket))
	cmd.Printf("  Region: %s\n", settings.Remote.Region)
	if settings.Remote.Endpoint != "" {
		cmd.Printf("  Endpoint: %s\n", settings.Remote.Endpoint)
		cmd.Printf("  Path style: %t\n", settings.Remote.UsePathStyle)
	}
	if settings.Remote.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %g/s (burst %d)\n", settings.Remote.RequestsPerSecond, settings.Remote.RequestBurst)
	} else {
		cmd.Println("  Rate limit: off")
	}
	cmd.Println()

	cmd.Println("[Namespace]")
	cmd.Printf("  App: %s\n", orNotSet(settings.Namespace.AppID))
	cmd.Printf("  Dataset: %s\n", orNotSet(settings.Namespace.DataSet))
	cmd.Printf("  Write area: %s\n", settings.Namespace.WriteArea)
	cmd.Printf("  Read areas: %s\n", strings.Join(settings.Namespace.ReadAreas, ", "))
	cmd.Println()

	cmd.Println("[Sync]")
	if settings.PollInterval > 0 {
		cmd.Printf("  Poll interval: %s\n", settings.PollInterval)
	} else {
		cmd.Println("  Poll interval: off")
	}
	cmd.Printf("  Data dir: %s\n", orDefault(settings.DataDir, "~/.updatesync/data"))
	cmd.Println()

	cmd.Println("[Credentials]")
	cmd.Printf("  Source: %s\n", settings.CredentialsSource)
	if settings.CredentialsSource == domain.CredentialsFromAWS {
		cmd.Printf("  User: %s\n", orNotSet(settings.UserID))
	} else {
		cmd.Printf("  File: %s\n", orDefault(settings.CredentialsFile, "~/.updatesync/credentials.toml"))
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'updatesync settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], strings.TrimSpace(args[1])
	field, ok := settingFields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(settingKeys(), ", "))
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := field.set(settings, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	if err := settings.Validate(); err != nil {
		cmd.Printf("Note: %v\n", err)
	}
	return nil
}

// Helper functions.

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orNotSet(value string) string {
	return orDefault(value, "(not set)")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads without echo when in is a terminal.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
