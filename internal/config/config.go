package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"seatwatch/internal/domain"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultCheckIntervalSec = 600
	defaultFetchTimeoutSec  = 30
	defaultDateParam        = "ynj"
	defaultTableIndex       = 3
	defaultStatePath        = "seatwatch_state.json"
	defaultNATSURL          = "nats://127.0.0.1:4222"
	defaultNATSBucket       = "seatwatch"
	defaultHTTPListen       = ":8080"
	defaultHealthPath       = "/healthz"
	defaultReadyPath        = "/readyz"
	defaultUserAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// StateBackendFile keeps the snapshot in one local JSON file.
	StateBackendFile = "file"
	// StateBackendMemory keeps the snapshot in process memory only.
	StateBackendMemory = "memory"
	// StateBackendNATS keeps the snapshot in a JetStream KV bucket.
	StateBackendNATS = "nats"

	// NotifyChannelSlack identifies the Slack incoming-webhook transport.
	NotifyChannelSlack = "slack"
	// NotifyChannelTelegram identifies the Telegram Bot API transport.
	NotifyChannelTelegram = "telegram"
	// NotifyChannelHTTP identifies the generic HTTP transport.
	NotifyChannelHTTP = "http"
)

var notifyChannelOrder = []string{
	NotifyChannelSlack,
	NotifyChannelTelegram,
	NotifyChannelHTTP,
}

// Config holds the full monitor runtime configuration.
// Params: TOML sections from file or merged directory snapshot.
// Returns: validated runtime configuration.
type Config struct {
	Service ServiceConfig `toml:"service"`
	Watch   WatchConfig   `toml:"watch"`
	State   StateConfig   `toml:"state"`
	Log     LogConfig     `toml:"log"`
	Notify  NotifyConfig  `toml:"notify"`
}

// ServiceConfig contains process-level settings.
// Params: service name, cycle cadence, and optional health endpoints.
// Returns: service behavior defaults.
type ServiceConfig struct {
	Name             string           `toml:"name"`
	CheckIntervalSec int              `toml:"check_interval_sec"`
	HTTP             HealthHTTPConfig `toml:"http"`
}

// HealthHTTPConfig configures the optional health/readiness endpoint.
// Params: enable flag, listen address, and probe paths.
// Returns: health server behavior.
type HealthHTTPConfig struct {
	Enabled    bool   `toml:"enabled"`
	Listen     string `toml:"listen"`
	HealthPath string `toml:"health_path"`
	ReadyPath  string `toml:"ready_path"`
}

// WatchConfig describes the watched reservation page.
// Params: target URL, month, markup contract knobs, and fetch settings.
// Returns: extraction and transport options.
type WatchConfig struct {
	URL                string `toml:"url"`
	Month              string `toml:"month"`
	DateParam          string `toml:"date_param"`
	CalendarTableIndex int    `toml:"calendar_table_index"`
	MinDayLinks        int    `toml:"min_day_links"`
	TimeoutSec         int    `toml:"timeout_sec"`
	UserAgent          string `toml:"user_agent"`
}

// TargetMonth parses the configured month.
// Params: none.
// Returns: watched month; validity is guaranteed after LoadSnapshot.
func (w WatchConfig) TargetMonth() (domain.Month, error) {
	return domain.ParseMonth(w.Month)
}

// FetchTimeout returns the fetch timeout as a duration.
// Params: none.
// Returns: configured timeout.
func (w WatchConfig) FetchTimeout() time.Duration {
	return time.Duration(w.TimeoutSec) * time.Second
}

// StateConfig selects and configures the snapshot backend.
// Params: backend name with file path or NATS settings.
// Returns: state persistence options.
type StateConfig struct {
	Backend string          `toml:"backend"`
	Path    string          `toml:"path"`
	NATS    NATSStateConfig `toml:"nats"`
}

// NATSStateConfig contains JetStream KV settings for the NATS backend.
// Params: server URLs, bucket name, and bucket-creation opt-in.
// Returns: NATS state backend options.
type NATSStateConfig struct {
	URL               []string `toml:"url"`
	Bucket            string   `toml:"bucket"`
	AllowCreateBucket bool     `toml:"allow_create_bucket"`
}

// LogConfig contains console/file logging sinks.
// Params: sink settings for each output target.
// Returns: logger setup options.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogSinkConfig `toml:"file"`
}

// LogSinkConfig defines one logging sink.
// Params: sink enable flag, level, format, and path.
// Returns: sink-specific behavior.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// NotifyConfig defines outbound notification channels.
// Params: per-channel transport settings.
// Returns: notification controls.
type NotifyConfig struct {
	Slack    SlackNotifier    `toml:"slack"`
	Telegram TelegramNotifier `toml:"telegram"`
	HTTP     HTTPNotifier     `toml:"http"`
}

// SlackNotifier defines Slack incoming-webhook settings.
// Params: enable flag, webhook URL, bot identity, timeout, and retry policy.
// Returns: Slack sender configuration.
type SlackNotifier struct {
	Enabled    bool        `toml:"enabled"`
	WebhookURL string      `toml:"webhook_url"`
	Username   string      `toml:"username"`
	IconEmoji  string      `toml:"icon_emoji"`
	TimeoutSec int         `toml:"timeout_sec"`
	Retry      NotifyRetry `toml:"retry"`
}

// TelegramNotifier defines Telegram Bot API settings.
// Params: enable flag, bot token, chat ID, API base URL, and retry policy.
// Returns: Telegram sender configuration.
type TelegramNotifier struct {
	Enabled  bool        `toml:"enabled"`
	BotToken string      `toml:"bot_token"`
	ChatID   string      `toml:"chat_id"`
	APIBase  string      `toml:"api_base"`
	Retry    NotifyRetry `toml:"retry"`
}

// HTTPNotifier defines a generic outbound HTTP endpoint.
// Params: URL, method, timeout, optional static headers, and retry policy.
// Returns: HTTP sender configuration.
type HTTPNotifier struct {
	Enabled    bool              `toml:"enabled"`
	URL        string            `toml:"url"`
	Method     string            `toml:"method"`
	TimeoutSec int               `toml:"timeout_sec"`
	Headers    map[string]string `toml:"headers"`
	Retry      NotifyRetry       `toml:"retry"`
}

// NotifyRetry configures outbound delivery retries.
// Params: retry toggle, backoff strategy, attempt limits, and logging.
// Returns: retry policy for one channel.
type NotifyRetry struct {
	Enabled        bool   `toml:"enabled"`
	Backoff        string `toml:"backoff"`
	InitialMS      int    `toml:"initial_ms"`
	MaxMS          int    `toml:"max_ms"`
	MaxAttempts    int    `toml:"max_attempts"`
	LogEachAttempt bool   `toml:"log_each_attempt"`
}

// NotifyChannelNames returns the supported channels in deterministic order.
// Params: none.
// Returns: ordered channel key list.
func NotifyChannelNames() []string {
	return notifyChannelOrder
}

// NotifyChannelEnabled reports whether one channel is switched on.
// Params: notify config snapshot and channel key.
// Returns: enabled flag for the channel, false for unknown keys.
func NotifyChannelEnabled(cfg NotifyConfig, channel string) bool {
	switch channel {
	case NotifyChannelSlack:
		return cfg.Slack.Enabled
	case NotifyChannelTelegram:
		return cfg.Telegram.Enabled
	case NotifyChannelHTTP:
		return cfg.HTTP.Enabled
	default:
		return false
	}
}

// NotifyChannelRetry returns one channel's retry policy.
// Params: notify config snapshot and channel key.
// Returns: retry policy, zero value for unknown keys.
func NotifyChannelRetry(cfg NotifyConfig, channel string) NotifyRetry {
	switch channel {
	case NotifyChannelSlack:
		return cfg.Slack.Retry
	case NotifyChannelTelegram:
		return cfg.Telegram.Retry
	case NotifyChannelHTTP:
		return cfg.HTTP.Retry
	default:
		return NotifyRetry{}
	}
}

// ConfigSource describes a file or directory config source.
// Params: exactly one of file path or directory path.
// Returns: normalized source descriptor.
type ConfigSource struct {
	File string
	Dir  string
}

// FromCLI builds a normalized source from CLI arguments.
// Params: optional file and directory arguments.
// Returns: source descriptor or validation error.
func FromCLI(filePath, dirPath string) (ConfigSource, error) {
	filePath = strings.TrimSpace(filePath)
	dirPath = strings.TrimSpace(dirPath)

	if filePath == "" && dirPath == "" {
		return ConfigSource{}, errors.New("either --config-file or --config-dir must be provided")
	}
	if filePath != "" && dirPath != "" {
		return ConfigSource{}, errors.New("config source must be either file or dir")
	}

	if filePath != "" {
		return ConfigSource{File: filePath}, nil
	}
	return ConfigSource{Dir: dirPath}, nil
}

// LoadSnapshot loads and validates configuration from one source.
// Params: source selects file or directory mode.
// Returns: validated config or load/validation error.
func LoadSnapshot(src ConfigSource) (Config, error) {
	var cfg Config
	var err error
	if src.File != "" {
		cfg, err = loadFile(src.File)
	} else {
		cfg, err = loadDir(src.Dir)
	}
	if err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CheckInterval returns the cycle cadence as a duration.
// Params: none.
// Returns: configured interval.
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.Service.CheckIntervalSec) * time.Second
}

// mergeHints carries explicit bool-presence markers for directory overlays.
// Params: sparse bool fields decoded from one TOML fragment.
// Returns: merge behavior hints, since a decoded false is ambiguous.
type mergeHints struct {
	Notify notifyMergeHints `toml:"notify"`
}

// notifyMergeHints tracks explicit channel enable flags.
// Params: sparse notify values decoded from one TOML fragment.
// Returns: bool-presence markers for merge logic.
type notifyMergeHints struct {
	Slack    channelMergeHints `toml:"slack"`
	Telegram channelMergeHints `toml:"telegram"`
	HTTP     channelMergeHints `toml:"http"`
}

// channelMergeHints tracks the explicit enabled flag in one channel section.
// Params: sparse channel fields decoded from one TOML fragment.
// Returns: channel bool-presence marker.
type channelMergeHints struct {
	Enabled *bool `toml:"enabled"`
}

// loadFile reads one TOML configuration file.
// Params: file path to config snapshot.
// Returns: decoded config or read/decode error.
func loadFile(path string) (Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(body, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file %q: %w", path, err)
	}
	return cfg, nil
}

// loadFileForMerge reads one TOML fragment together with merge hints.
// Params: file path to config fragment.
// Returns: decoded config plus explicit-bool hints for overlay merge.
func loadFileForMerge(path string) (Config, mergeHints, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Config{}, mergeHints{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(body, &cfg); err != nil {
		return Config{}, mergeHints{}, fmt.Errorf("decode config file %q: %w", path, err)
	}
	var hints mergeHints
	if err := toml.Unmarshal(body, &hints); err != nil {
		return Config{}, mergeHints{}, fmt.Errorf("decode merge hints %q: %w", path, err)
	}
	return cfg, hints, nil
}

// loadDir reads and merges TOML files from one directory in name order.
// Params: directory containing config fragments.
// Returns: merged config snapshot or load/decode error.
func loadDir(dir string) (Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Config{}, fmt.Errorf("read config dir %q: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".toml" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return Config{}, fmt.Errorf("no .toml files found in %q", dir)
	}
	sort.Strings(files)

	var merged Config
	for _, file := range files {
		fragment, hints, err := loadFileForMerge(file)
		if err != nil {
			return Config{}, err
		}
		mergeConfig(&merged, fragment, hints)
	}
	return merged, nil
}

// mergeConfig overlays one fragment onto the destination snapshot.
// Params: destination config, next fragment, and explicit-bool hints.
// Returns: merged configuration side-effect in dst.
func mergeConfig(dst *Config, src Config, hints mergeHints) {
	if src.Service != (ServiceConfig{}) {
		dst.Service = src.Service
	}
	if src.Watch != (WatchConfig{}) {
		dst.Watch = src.Watch
	}
	if hasStateConfig(src.State) {
		dst.State = src.State
	}
	if src.Log != (LogConfig{}) {
		dst.Log = src.Log
	}
	mergeSlackNotifier(&dst.Notify.Slack, src.Notify.Slack, hints.Notify.Slack)
	mergeTelegramNotifier(&dst.Notify.Telegram, src.Notify.Telegram, hints.Notify.Telegram)
	mergeHTTPNotifier(&dst.Notify.HTTP, src.Notify.HTTP, hints.Notify.HTTP)
}

// hasStateConfig checks whether the state section contains explicit values.
// Params: state configuration fragment.
// Returns: true when the section should replace the destination.
func hasStateConfig(cfg StateConfig) bool {
	return strings.TrimSpace(cfg.Backend) != "" ||
		strings.TrimSpace(cfg.Path) != "" ||
		len(cfg.NATS.URL) > 0 ||
		strings.TrimSpace(cfg.NATS.Bucket) != "" ||
		cfg.NATS.AllowCreateBucket
}

// mergeSlackNotifier overlays one slack fragment preserving sibling fields.
// Params: destination slack config, source fragment, and enable hint.
// Returns: merged configuration side-effect in dst.
func mergeSlackNotifier(dst *SlackNotifier, src SlackNotifier, hints channelMergeHints) {
	applyBoolMerge(&dst.Enabled, src.Enabled, hints.Enabled)
	if strings.TrimSpace(src.WebhookURL) != "" {
		dst.WebhookURL = src.WebhookURL
	}
	if strings.TrimSpace(src.Username) != "" {
		dst.Username = src.Username
	}
	if strings.TrimSpace(src.IconEmoji) != "" {
		dst.IconEmoji = src.IconEmoji
	}
	if src.TimeoutSec != 0 {
		dst.TimeoutSec = src.TimeoutSec
	}
	if src.Retry != (NotifyRetry{}) {
		dst.Retry = src.Retry
	}
}

// mergeTelegramNotifier overlays one telegram fragment preserving sibling fields.
// Params: destination telegram config, source fragment, and enable hint.
// Returns: merged configuration side-effect in dst.
func mergeTelegramNotifier(dst *TelegramNotifier, src TelegramNotifier, hints channelMergeHints) {
	applyBoolMerge(&dst.Enabled, src.Enabled, hints.Enabled)
	if strings.TrimSpace(src.BotToken) != "" {
		dst.BotToken = src.BotToken
	}
	if strings.TrimSpace(src.ChatID) != "" {
		dst.ChatID = src.ChatID
	}
	if strings.TrimSpace(src.APIBase) != "" {
		dst.APIBase = src.APIBase
	}
	if src.Retry != (NotifyRetry{}) {
		dst.Retry = src.Retry
	}
}

// mergeHTTPNotifier overlays one http fragment preserving sibling fields.
// Params: destination http config, source fragment, and enable hint.
// Returns: merged configuration side-effect in dst.
func mergeHTTPNotifier(dst *HTTPNotifier, src HTTPNotifier, hints channelMergeHints) {
	applyBoolMerge(&dst.Enabled, src.Enabled, hints.Enabled)
	if strings.TrimSpace(src.URL) != "" {
		dst.URL = src.URL
	}
	if strings.TrimSpace(src.Method) != "" {
		dst.Method = src.Method
	}
	if src.TimeoutSec != 0 {
		dst.TimeoutSec = src.TimeoutSec
	}
	if len(src.Headers) > 0 {
		if dst.Headers == nil {
			dst.Headers = make(map[string]string, len(src.Headers))
		}
		for key, value := range src.Headers {
			dst.Headers[key] = value
		}
	}
	if src.Retry != (NotifyRetry{}) {
		dst.Retry = src.Retry
	}
}

// applyBoolMerge merges one bool with explicit-value awareness.
// Params: destination bool pointer, decoded value, and explicit marker.
// Returns: merged bool side-effect in dst.
func applyBoolMerge(dst *bool, value bool, explicit *bool) {
	if explicit != nil {
		*dst = *explicit
		return
	}
	if value {
		*dst = true
	}
}

// applyDefaults fills omitted config fields with safe defaults.
// Params: cfg pointer to decoded snapshot.
// Returns: defaults applied in place.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Service.Name) == "" {
		cfg.Service.Name = "seatwatch"
	}
	if cfg.Service.CheckIntervalSec <= 0 {
		cfg.Service.CheckIntervalSec = defaultCheckIntervalSec
	}
	if strings.TrimSpace(cfg.Service.HTTP.Listen) == "" {
		cfg.Service.HTTP.Listen = defaultHTTPListen
	}
	if strings.TrimSpace(cfg.Service.HTTP.HealthPath) == "" {
		cfg.Service.HTTP.HealthPath = defaultHealthPath
	}
	if strings.TrimSpace(cfg.Service.HTTP.ReadyPath) == "" {
		cfg.Service.HTTP.ReadyPath = defaultReadyPath
	}

	if strings.TrimSpace(cfg.Watch.DateParam) == "" {
		cfg.Watch.DateParam = defaultDateParam
	}
	if cfg.Watch.CalendarTableIndex <= 0 {
		cfg.Watch.CalendarTableIndex = defaultTableIndex
	}
	if cfg.Watch.TimeoutSec <= 0 {
		cfg.Watch.TimeoutSec = defaultFetchTimeoutSec
	}
	if strings.TrimSpace(cfg.Watch.UserAgent) == "" {
		cfg.Watch.UserAgent = defaultUserAgent
	}

	if strings.TrimSpace(cfg.State.Backend) == "" {
		cfg.State.Backend = StateBackendFile
	}
	if strings.TrimSpace(cfg.State.Path) == "" {
		cfg.State.Path = defaultStatePath
	}
	if len(cfg.State.NATS.URL) == 0 {
		cfg.State.NATS.URL = []string{defaultNATSURL}
	}
	if strings.TrimSpace(cfg.State.NATS.Bucket) == "" {
		cfg.State.NATS.Bucket = defaultNATSBucket
	}

	if cfg.Log.Console.Level == "" {
		cfg.Log.Console.Level = "info"
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = "line"
	}
	if cfg.Log.File.Level == "" {
		cfg.Log.File.Level = "info"
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = "json"
	}
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}

	if strings.TrimSpace(cfg.Notify.Slack.Username) == "" {
		cfg.Notify.Slack.Username = cfg.Service.Name
	}
	if strings.TrimSpace(cfg.Notify.Slack.IconEmoji) == "" {
		cfg.Notify.Slack.IconEmoji = ":ship:"
	}
	if cfg.Notify.Slack.TimeoutSec <= 0 {
		cfg.Notify.Slack.TimeoutSec = 10
	}
	fillNotifyRetryDefaults(&cfg.Notify.Slack.Retry)
	if cfg.Notify.Telegram.APIBase == "" {
		cfg.Notify.Telegram.APIBase = "https://api.telegram.org"
	}
	fillNotifyRetryDefaults(&cfg.Notify.Telegram.Retry)
	if cfg.Notify.HTTP.Method == "" {
		cfg.Notify.HTTP.Method = "POST"
	}
	if cfg.Notify.HTTP.TimeoutSec <= 0 {
		cfg.Notify.HTTP.TimeoutSec = 10
	}
	fillNotifyRetryDefaults(&cfg.Notify.HTTP.Retry)
}

// fillNotifyRetryDefaults normalizes retry policy fields for one channel.
// Params: retry policy pointer.
// Returns: policy defaults applied in place.
func fillNotifyRetryDefaults(retry *NotifyRetry) {
	if retry == nil {
		return
	}
	if retry.Backoff == "" {
		retry.Backoff = "exponential"
	}
	if retry.InitialMS <= 0 {
		retry.InitialMS = 500
	}
	if retry.MaxMS <= 0 {
		retry.MaxMS = 60000
	}
}

// validateConfig validates the full runtime configuration.
// Params: cfg snapshot to validate.
// Returns: first validation error.
func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Watch.URL) == "" {
		return errors.New("watch.url is required")
	}
	parsed, err := url.Parse(cfg.Watch.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("watch.url %q is not an absolute URL", cfg.Watch.URL)
	}
	if strings.TrimSpace(cfg.Watch.Month) == "" {
		return errors.New("watch.month is required")
	}
	if _, err := domain.ParseMonth(cfg.Watch.Month); err != nil {
		return fmt.Errorf("watch.month: %w", err)
	}
	if cfg.Watch.MinDayLinks < 0 {
		return errors.New("watch.min_day_links must be >=0")
	}

	switch cfg.State.Backend {
	case StateBackendFile, StateBackendMemory, StateBackendNATS:
	default:
		return fmt.Errorf("state.backend has unsupported value %q", cfg.State.Backend)
	}

	if cfg.Notify.Slack.Enabled && strings.TrimSpace(cfg.Notify.Slack.WebhookURL) == "" {
		return errors.New("notify.slack.webhook_url is required when slack is enabled")
	}
	if cfg.Notify.Telegram.Enabled {
		if strings.TrimSpace(cfg.Notify.Telegram.BotToken) == "" {
			return errors.New("notify.telegram.bot_token is required when telegram is enabled")
		}
		if strings.TrimSpace(cfg.Notify.Telegram.ChatID) == "" {
			return errors.New("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	if cfg.Notify.HTTP.Enabled && strings.TrimSpace(cfg.Notify.HTTP.URL) == "" {
		return errors.New("notify.http.url is required when http is enabled")
	}

	enabled := 0
	for _, channel := range NotifyChannelNames() {
		if NotifyChannelEnabled(cfg.Notify, channel) {
			enabled++
		}
	}
	if enabled == 0 {
		return errors.New("at least one notify channel must be enabled")
	}
	return nil
}
