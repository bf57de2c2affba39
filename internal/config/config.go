package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/flagx"
	"github.com/robfig/cron/v3"
)

// PassphraseEnv is the environment variable carrying the token passphrase.
const PassphraseEnv = "HEALTHTREND_PASSPHRASE"

// Config holds runtime settings for the CLI and the daemon.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string

	SheetTitle      string
	SheetTab        string
	CredentialsFile string
	TokenDir        string
	Passphrase      string

	SyncSchedule        string
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	OnlineCheckInterval time.Duration
	WatchDebounce       time.Duration
	HealthAddr          string

	ExportDir   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with values suitable for a single-user desktop
// install.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "healthtrend.db"

	c.SheetTitle = common.DefaultSheetTitle
	c.SheetTab = "Sheet1"
	c.CredentialsFile = "credentials.json"
	c.TokenDir = ".healthtrend"
	c.Passphrase = flagx.EnvOr(PassphraseEnv, "")

	c.SyncSchedule = "@every 15m"
	c.RetryBaseDelay = 30 * time.Second
	c.RetryMaxDelay = time.Hour
	c.OnlineCheckInterval = 30 * time.Second
	c.WatchDebounce = 2 * time.Second
	c.HealthAddr = "127.0.0.1:50052"

	c.ExportDir = "exports"
	c.S3Region = "us-east-1"

	c.LogLevel = "info"
	c.LogFormat = "auto"
}

// Validate reports settings that would only fail later at runtime.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if _, err := cron.ParseStandard(c.SyncSchedule); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", c.SyncSchedule, err)
	}
	if c.RetryBaseDelay <= 0 || c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("retry delays must satisfy 0 < base <= max")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
