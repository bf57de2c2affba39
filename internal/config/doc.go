// Package config loads runtime configuration shared by the HealthTrend CLI
// and the sync daemon.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// The token passphrase is only read from HEALTHTREND_PASSPHRASE so it never
// shows up in a process listing or a config file.
//
// Supported flags
//
//	-driver string     sqlite | postgres
//	-db string         database DSN (file path for sqlite)
//	-sheet string      title used to find or create the remote sheet
//	-tab string        worksheet tab holding the data
//	-creds string      OAuth client credentials JSON
//	-tokens string     directory for sealed OAuth tokens
//	-schedule string   cron spec for periodic sync
//	-i int             connectivity check interval (seconds)
//	-health string     gRPC health listen address (daemon)
//	-export string     export directory
//	-s3-bucket string  upload exports to this bucket when set
//	-log-level string  debug | info | warn | error
//	-log-format string text | json | auto
//
// # JSON schema
//
// Durations use timex.Duration, so "30s" and integer nanoseconds both work:
//
//	{
//	  "database_driver": "sqlite",
//	  "database_dsn": "healthtrend.db",
//	  "sync_schedule": "@every 15m",
//	  "retry_base_delay": "30s",
//	  "retry_max_delay": "1h",
//	  "s3_bucket": "healthtrend-exports"
//	}
package config
