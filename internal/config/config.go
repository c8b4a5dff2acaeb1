package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all watchdog settings. Everything is static configuration,
// resolved once per invocation from defaults, config file, environment and flags.
type Config struct {
	// Health probe
	EndpointURL  string        `mapstructure:"endpoint_url" json:"endpoint_url" yaml:"endpoint_url"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" json:"probe_timeout" yaml:"probe_timeout"`

	// Recovery
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`

	// Decision policy
	FailureThreshold       int           `mapstructure:"failure_threshold" json:"failure_threshold" yaml:"failure_threshold"`
	BackoffBase            time.Duration `mapstructure:"backoff_base" json:"backoff_base" yaml:"backoff_base"`
	BackoffStep            time.Duration `mapstructure:"backoff_step" json:"backoff_step" yaml:"backoff_step"`
	BackoffCap             time.Duration `mapstructure:"backoff_cap" json:"backoff_cap" yaml:"backoff_cap"`
	DegradedThrottleFactor int           `mapstructure:"degraded_throttle_factor" json:"degraded_throttle_factor" yaml:"degraded_throttle_factor"`

	// Persistence
	StateDir string `mapstructure:"state_dir" json:"state_dir" yaml:"state_dir"`

	// Observability
	TextfileDir string `mapstructure:"textfile_dir" json:"textfile_dir" yaml:"textfile_dir"`
	LogLevel    string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	LogJSON     bool   `mapstructure:"log_json" json:"log_json" yaml:"log_json"`

	// Status server (cnwatch serve)
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr" yaml:"listen_addr"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		EndpointURL:            "http://localhost:8080/snapshot",
		ProbeTimeout:           5 * time.Second,
		ServiceName:            "crowsnest",
		FailureThreshold:       5,
		BackoffBase:            30 * time.Second,
		BackoffStep:            30 * time.Second,
		BackoffCap:             5 * time.Minute,
		DegradedThrottleFactor: 10,
		StateDir:               defaultStateDir(),
		TextfileDir:            "",
		LogLevel:               "INFO",
		LogJSON:                false,
		ListenAddr:             ":9810",
	}
}

func defaultStateDir() string {
	dir := "/var/lib/cnwatch"
	if err := os.MkdirAll(dir, 0755); err != nil {
		// Unprivileged runs (and the original script) keep state in /tmp
		return filepath.Join(os.TempDir(), "cnwatch")
	}
	return dir
}

// Load resolves configuration from an optional config file plus environment
// variables prefixed with CNWATCH_. Flags are bound by the CLI layer before
// calling Load.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	cfg := Defaults()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath("/etc/cnwatch")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cnwatch"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CNWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; a malformed one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if cfgFile != "" || !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("endpoint_url", cfg.EndpointURL)
	v.SetDefault("probe_timeout", cfg.ProbeTimeout)
	v.SetDefault("service_name", cfg.ServiceName)
	v.SetDefault("failure_threshold", cfg.FailureThreshold)
	v.SetDefault("backoff_base", cfg.BackoffBase)
	v.SetDefault("backoff_step", cfg.BackoffStep)
	v.SetDefault("backoff_cap", cfg.BackoffCap)
	v.SetDefault("degraded_throttle_factor", cfg.DegradedThrottleFactor)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("textfile_dir", cfg.TextfileDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_json", cfg.LogJSON)
	v.SetDefault("listen_addr", cfg.ListenAddr)
}

// Validate checks configuration invariants
func (c Config) Validate() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("endpoint_url must not be empty")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name must not be empty")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %v", c.ProbeTimeout)
	}
	if c.FailureThreshold < 1 {
		return fmt.Errorf("failure_threshold must be >= 1, got %d", c.FailureThreshold)
	}
	if c.DegradedThrottleFactor < 1 {
		return fmt.Errorf("degraded_throttle_factor must be >= 1, got %d", c.DegradedThrottleFactor)
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("backoff_base must be positive, got %v", c.BackoffBase)
	}
	if c.BackoffStep < 0 {
		return fmt.Errorf("backoff_step must not be negative, got %v", c.BackoffStep)
	}
	if c.BackoffCap < c.BackoffBase {
		return fmt.Errorf("backoff_cap (%v) must be >= backoff_base (%v)", c.BackoffCap, c.BackoffBase)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir must not be empty")
	}
	return nil
}

// StatePath returns the path of the persisted watchdog state file
func (c Config) StatePath() string {
	return filepath.Join(c.StateDir, "state.json")
}

// ReportPath returns the path of the last-run report file
func (c Config) ReportPath() string {
	return filepath.Join(c.StateDir, "last_run.json")
}

// LockPath returns the path of the invocation lock file
func (c Config) LockPath() string {
	return filepath.Join(c.StateDir, "cnwatch.lock")
}
