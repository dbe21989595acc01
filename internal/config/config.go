// Package config holds the single validated configuration struct for the
// warmjar daemon. Every default and validation rule lives here; components
// receive the already-validated values and never read files or env vars
// themselves.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"
)

// Defaults. The refresh interval follows the platform's observed session
// lifetime: cookies survive well past six hours, so refreshing four times
// a day keeps a comfortable margin.
const (
	DefaultTargetURL       = "https://www.youtube.com"
	DefaultProbeURL        = "https://www.youtube.com/account"
	DefaultIntervalHours   = 6
	DefaultAlertThreshold  = 3
	DefaultBackoffBaseMin  = 5
	DefaultBackoffMaxMin   = 30
	DefaultLaunchTimeout   = 30 * time.Second
	DefaultNavTimeout      = 45 * time.Second
	DefaultSettleTimeout   = 15 * time.Second
	DefaultProbeTimeout    = 20 * time.Second
	DefaultShutdownGrace   = 10 * time.Second
)

// DefaultRequiredCookies are the authentication cookie names the target
// platform issues to a logged-in session. A jar missing any of them
// cannot authenticate the downstream subtitle fetcher.
var DefaultRequiredCookies = []string{"SID", "HSID", "SSID", "SAPISID", "LOGIN_INFO"}

// BrowserConfig configures the headless browser used for refresh cycles.
type BrowserConfig struct {
	// Bin is the browser executable. Empty means auto-detect a
	// Chromium-compatible binary on PATH.
	Bin string `yaml:"bin"`
	// Headless defaults to true; set false only for interactive debugging.
	Headless *bool `yaml:"headless"`
	// LaunchTimeoutSec bounds browser startup.
	LaunchTimeoutSec int `yaml:"launch_timeout_sec"`
	// NavigationTimeoutSec bounds the landing-page navigation.
	NavigationTimeoutSec int `yaml:"navigation_timeout_sec"`
	// SettleTimeoutSec bounds the network-idle wait after navigation.
	SettleTimeoutSec int `yaml:"settle_timeout_sec"`
}

// Config is the validated daemon configuration.
type Config struct {
	// StoreDir holds the structured jar file, the flat interop file, the
	// singleton lock and the state file.
	StoreDir string `yaml:"store_dir"`
	// TargetURL is the platform landing page a refresh navigates to.
	TargetURL string `yaml:"target_url"`
	// ProbeURL is a known-protected resource used for independent online
	// validation of a freshly extracted jar.
	ProbeURL string `yaml:"probe_url"`
	// RequiredCookies are the cookie names a valid jar must carry.
	RequiredCookies []string `yaml:"required_cookies"`
	// RefreshIntervalHours is the periodic refresh cadence (default 6).
	RefreshIntervalHours int `yaml:"refresh_interval_hours"`
	// RefreshCron optionally replaces the fixed interval with a cron
	// expression for successful cycles. Backoff still applies on failure.
	RefreshCron string `yaml:"refresh_cron"`
	// AlertThreshold is the consecutive-failure count that raises an alert.
	AlertThreshold int `yaml:"alert_threshold"`
	// BackoffBaseMin and BackoffMaxMin bound the failure backoff, in minutes.
	BackoffBaseMin int `yaml:"backoff_base_min"`
	BackoffMaxMin  int `yaml:"backoff_max_min"`
	// ProbeTimeoutSec bounds the online-validation request.
	ProbeTimeoutSec int `yaml:"probe_timeout_sec"`
	// ShutdownGraceSec bounds how long an in-flight refresh may run after
	// a stop signal before its browser is forcibly closed.
	ShutdownGraceSec int `yaml:"shutdown_grace_sec"`
	// EncryptValues enables at-rest encryption of cookie values in the
	// structured store, keyed from the OS keyring.
	EncryptValues bool `yaml:"encrypt_values"`
	// LogFile receives daemon logs when running detached. Empty means
	// <store_dir>/warmjar.log.
	LogFile string `yaml:"log_file"`

	Browser BrowserConfig `yaml:"browser"`
}

// envPrefix is the prefix for environment overrides, e.g. WARMJAR_STORE_DIR.
const envPrefix = "WARMJAR_"

// DefaultStoreDir returns the per-user store directory.
func DefaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "warmjar")
	}
	return filepath.Join(os.TempDir(), "warmjar")
}

// defaultPath returns the default config file location.
func defaultPath() string {
	return filepath.Join(DefaultStoreDir(), "config.yaml")
}

// Load reads the config file at path (or the default location when path is
// empty), applies environment overrides and defaults, and validates the
// result. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		path = defaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: cannot parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays WARMJAR_* overrides. An override that cannot be
// parsed fails startup rather than silently falling back to the file or
// default value.
func (c *Config) applyEnv() error {
	if v := os.Getenv(envPrefix + "STORE_DIR"); v != "" {
		c.StoreDir = v
	}
	if v := os.Getenv(envPrefix + "TARGET_URL"); v != "" {
		c.TargetURL = v
	}
	if v := os.Getenv(envPrefix + "PROBE_URL"); v != "" {
		c.ProbeURL = v
	}
	if v := os.Getenv(envPrefix + "REFRESH_INTERVAL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sREFRESH_INTERVAL_HOURS %q is not a number", envPrefix, v)
		}
		c.RefreshIntervalHours = n
	}
	if v := os.Getenv(envPrefix + "BROWSER_BIN"); v != "" {
		c.Browser.Bin = v
	}
	if v := os.Getenv(envPrefix + "HEADLESS"); v != "" {
		h, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sHEADLESS %q is not a boolean", envPrefix, v)
		}
		c.Browser.Headless = &h
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		c.LogFile = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.StoreDir == "" {
		c.StoreDir = DefaultStoreDir()
	}
	if c.TargetURL == "" {
		c.TargetURL = DefaultTargetURL
	}
	if c.ProbeURL == "" {
		c.ProbeURL = DefaultProbeURL
	}
	if len(c.RequiredCookies) == 0 {
		c.RequiredCookies = append([]string(nil), DefaultRequiredCookies...)
	}
	if c.RefreshIntervalHours == 0 {
		c.RefreshIntervalHours = DefaultIntervalHours
	}
	if c.AlertThreshold == 0 {
		c.AlertThreshold = DefaultAlertThreshold
	}
	if c.BackoffBaseMin == 0 {
		c.BackoffBaseMin = DefaultBackoffBaseMin
	}
	if c.BackoffMaxMin == 0 {
		c.BackoffMaxMin = DefaultBackoffMaxMin
	}
	if c.ProbeTimeoutSec == 0 {
		c.ProbeTimeoutSec = int(DefaultProbeTimeout / time.Second)
	}
	if c.ShutdownGraceSec == 0 {
		c.ShutdownGraceSec = int(DefaultShutdownGrace / time.Second)
	}
	if c.Browser.Headless == nil {
		h := true
		c.Browser.Headless = &h
	}
	if c.Browser.LaunchTimeoutSec == 0 {
		c.Browser.LaunchTimeoutSec = int(DefaultLaunchTimeout / time.Second)
	}
	if c.Browser.NavigationTimeoutSec == 0 {
		c.Browser.NavigationTimeoutSec = int(DefaultNavTimeout / time.Second)
	}
	if c.Browser.SettleTimeoutSec == 0 {
		c.Browser.SettleTimeoutSec = int(DefaultSettleTimeout / time.Second)
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.StoreDir, "warmjar.log")
	}
}

// Validate rejects configurations the daemon cannot run with. The error
// message names the offending field and value; startup must fail rather
// than silently substituting.
func (c *Config) Validate() error {
	if c.RefreshIntervalHours < 1 {
		return fmt.Errorf("config: refresh_interval_hours must be >= 1, got %d", c.RefreshIntervalHours)
	}
	if c.AlertThreshold < 1 {
		return fmt.Errorf("config: alert_threshold must be >= 1, got %d", c.AlertThreshold)
	}
	if c.BackoffBaseMin < 1 {
		return fmt.Errorf("config: backoff_base_min must be >= 1, got %d", c.BackoffBaseMin)
	}
	if c.BackoffMaxMin < c.BackoffBaseMin {
		return fmt.Errorf("config: backoff_max_min (%d) must be >= backoff_base_min (%d)",
			c.BackoffMaxMin, c.BackoffBaseMin)
	}
	for _, u := range []struct{ field, val string }{
		{"target_url", c.TargetURL},
		{"probe_url", c.ProbeURL},
	} {
		if u.val == "" {
			return fmt.Errorf("config: %s must not be empty", u.field)
		}
	}
	if c.RefreshCron != "" {
		if !gronx.New().IsValid(c.RefreshCron) {
			return fmt.Errorf("config: refresh_cron %q is not a valid cron expression", c.RefreshCron)
		}
	}
	return nil
}

// RefreshInterval returns the fixed refresh cadence as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalHours) * time.Hour
}

// BackoffBase and BackoffMax return the backoff bounds as durations.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMin) * time.Minute
}

func (c *Config) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMin) * time.Minute
}

// ProbeTimeout returns the online-validation request bound.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec) * time.Second
}

// ShutdownGrace returns the in-flight refresh grace period on stop.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSec) * time.Second
}

// Headless reports the resolved headless setting.
func (c *Config) Headless() bool {
	return c.Browser.Headless == nil || *c.Browser.Headless
}

// LaunchTimeout, NavigationTimeout and SettleTimeout return the browser
// stage bounds.
func (c *Config) LaunchTimeout() time.Duration {
	return time.Duration(c.Browser.LaunchTimeoutSec) * time.Second
}

func (c *Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Browser.NavigationTimeoutSec) * time.Second
}

func (c *Config) SettleTimeout() time.Duration {
	return time.Duration(c.Browser.SettleTimeoutSec) * time.Second
}
