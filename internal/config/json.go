package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/healthtrend/internal/flagx"
	"github.com/dmitrijs2005/healthtrend/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Zero values
// mean "not set" and leave the default in place.
type JsonConfig struct {
	DatabaseDriver      string         `json:"database_driver"`
	DatabaseDSN         string         `json:"database_dsn"`
	SheetTitle          string         `json:"sheet_title"`
	SheetTab            string         `json:"sheet_tab"`
	CredentialsFile     string         `json:"credentials_file"`
	TokenDir            string         `json:"token_dir"`
	SyncSchedule        string         `json:"sync_schedule"`
	RetryBaseDelay      timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay       timex.Duration `json:"retry_max_delay"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	WatchDebounce       timex.Duration `json:"watch_debounce"`
	HealthAddr          string         `json:"health_addr"`
	ExportDir           string         `json:"export_dir"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3Endpoint          string         `json:"s3_endpoint"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
}

// parseJson overlays cfg with values from the file named by -c/-config.
// Read and decode errors panic, like flag errors do.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DatabaseDriver, jc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.SheetTitle, jc.SheetTitle)
	setString(&cfg.SheetTab, jc.SheetTab)
	setString(&cfg.CredentialsFile, jc.CredentialsFile)
	setString(&cfg.TokenDir, jc.TokenDir)
	setString(&cfg.SyncSchedule, jc.SyncSchedule)
	setString(&cfg.HealthAddr, jc.HealthAddr)
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.RetryBaseDelay.Duration > 0 {
		cfg.RetryBaseDelay = jc.RetryBaseDelay.Duration
	}
	if jc.RetryMaxDelay.Duration > 0 {
		cfg.RetryMaxDelay = jc.RetryMaxDelay.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.WatchDebounce.Duration > 0 {
		cfg.WatchDebounce = jc.WatchDebounce.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
