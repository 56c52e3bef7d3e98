package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// ACME client kinds
const (
	ClientCLI  = "cli"
	ClientLego = "lego"
)

// Hook deployment strategies
const (
	StrategyBroadcast = "broadcast"
	StrategyTargeted  = "targeted"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "HEROKU_AUTO_SSL_"

// Config represents the tool configuration
type Config struct {
	SitesFile string          `yaml:"sites_file" json:"sites_file"`
	Heroku    HerokuConfig    `yaml:"heroku" json:"heroku"`
	ACME      ACMEConfig      `yaml:"acme" json:"acme"`
	Signing   SigningConfig   `yaml:"signing" json:"signing"`
	Challenge ChallengeConfig `yaml:"challenge" json:"challenge"`
	Hook      HookConfig      `yaml:"hook" json:"hook"`
	Scan      ScanConfig      `yaml:"scan" json:"scan"`
}

// HerokuConfig configures the Heroku CLI
type HerokuConfig struct {
	Bin        string `yaml:"bin" json:"bin"`
	MinVersion string `yaml:"min_version" json:"min_version"`
}

// ACMEConfig configures certificate issuance
type ACMEConfig struct {
	Client      string   `yaml:"client" json:"client"`
	Bin         string   `yaml:"bin" json:"bin"`
	ExtraArgs   []string `yaml:"extra_args" json:"extra_args"`
	LiveDir     string   `yaml:"live_dir" json:"live_dir"`
	Directory   string   `yaml:"directory" json:"directory"`
	AccountFile string   `yaml:"account_file" json:"account_file"`
	CertDir     string   `yaml:"cert_dir" json:"cert_dir"`
	KeyType     string   `yaml:"key_type" json:"key_type"`
}

// SigningConfig configures the external signing helper
type SigningConfig struct {
	Helper      string `yaml:"helper" json:"helper"`
	MaxAttempts int    `yaml:"max_attempts" json:"max_attempts"`
}

// ChallengeConfig configures Challenge Post Protocol requests
type ChallengeConfig struct {
	Scheme  string        `yaml:"scheme" json:"scheme"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// HookConfig configures the ACME client hooks
type HookConfig struct {
	Strategy string   `yaml:"strategy" json:"strategy"`
	LogFile  string   `yaml:"log_file" json:"log_file"`
	Chain    []string `yaml:"chain" json:"chain"`
}

// ScanConfig configures the expiry scanner
type ScanConfig struct {
	DomainsFile     string        `yaml:"domains_file" json:"domains_file"`
	CABundle        string        `yaml:"ca_bundle" json:"ca_bundle"`
	Port            int           `yaml:"port" json:"port"`
	RenewWithinDays int           `yaml:"renew_within_days" json:"renew_within_days"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	Concurrency     int           `yaml:"concurrency" json:"concurrency"`
}

// configDir is the default config directory
const configDir = ".config/heroku-auto-ssl"
const configFile = "config.yaml"

// New creates a new Config with default values
func New() *Config {
	return &Config{
		SitesFile: "sites.json",
		Heroku: HerokuConfig{
			Bin:        "heroku",
			MinVersion: "7.0.0",
		},
		ACME: ACMEConfig{
			Client:      ClientCLI,
			Bin:         "letsencrypt",
			LiveDir:     "/etc/letsencrypt/live",
			AccountFile: "~/" + configDir + "/account.json",
			CertDir:     "~/" + configDir + "/certs",
			KeyType:     "ec256",
		},
		Signing: SigningConfig{
			Helper:      "./gen_signed_txt.sh",
			MaxAttempts: 5,
		},
		Challenge: ChallengeConfig{
			Scheme:  "http",
			Timeout: 30 * time.Second,
		},
		Hook: HookConfig{
			Strategy: StrategyBroadcast,
			LogFile:  "heroku-auto-ssl.log",
		},
		Scan: ScanConfig{
			DomainsFile:     "domains.master.txt",
			Port:            443,
			RenewWithinDays: 7,
			Timeout:         10 * time.Second,
			Concurrency:     1,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from path, or from ConfigPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from HEROKU_AUTO_SSL_* variables looked up
// with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"SITES_FILE":     &c.SitesFile,
		"HEROKU_BIN":     &c.Heroku.Bin,
		"ACME_CLIENT":    &c.ACME.Client,
		"ACME_BIN":       &c.ACME.Bin,
		"ACME_DIRECTORY": &c.ACME.Directory,
		"SIGNING_HELPER": &c.Signing.Helper,
		"HOOK_STRATEGY":  &c.Hook.Strategy,
		"HOOK_LOG_FILE":  &c.Hook.LogFile,
		"SCAN_CA_BUNDLE": &c.Scan.CABundle,
	}
	for key, dst := range strs {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	if v := getenv(EnvPrefix + "SIGNING_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSIGNING_MAX_ATTEMPTS %q: %w", EnvPrefix, v, err)
		}
		c.Signing.MaxAttempts = n
	}
	return nil
}

// Validate checks the configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SitesFile, validation.Required),
		validation.Field(&c.Heroku),
		validation.Field(&c.ACME),
		validation.Field(&c.Signing),
		validation.Field(&c.Challenge),
		validation.Field(&c.Hook),
		validation.Field(&c.Scan),
	)
}

func (h HerokuConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Bin, validation.Required),
	)
}

func (a ACMEConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Client, validation.Required, validation.In(ClientCLI, ClientLego)),
		validation.Field(&a.Bin, validation.When(a.Client == ClientCLI, validation.Required)),
		validation.Field(&a.LiveDir, validation.When(a.Client == ClientCLI, validation.Required)),
		validation.Field(&a.AccountFile, validation.When(a.Client == ClientLego, validation.Required)),
		validation.Field(&a.CertDir, validation.When(a.Client == ClientLego, validation.Required)),
		validation.Field(&a.KeyType, validation.In("ec256", "ec384", "rsa2048", "rsa4096")),
	)
}

func (s SigningConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Helper, validation.Required),
		validation.Field(&s.MaxAttempts, validation.Required, validation.Min(1)),
	)
}

func (c ChallengeConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Scheme, validation.Required, validation.In("http", "https")),
		validation.Field(&c.Timeout, validation.Required),
	)
}

func (h HookConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Strategy, validation.Required, validation.In(StrategyBroadcast, StrategyTargeted)),
	)
}

func (s ScanConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.DomainsFile, validation.Required),
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.RenewWithinDays, validation.Min(0)),
		validation.Field(&s.Timeout, validation.Required),
		validation.Field(&s.Concurrency, validation.Required, validation.Min(1)),
	)
}

// ExpandPath replaces a leading "~/" with the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
