package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/flagx"
)

var knownFlags = []string{
	"-driver", "-db", "-sheet", "-tab", "-creds", "-tokens", "-schedule", "-i",
	"-health", "-export", "-s3-bucket", "-log-level", "-log-format",
}

// parseFlags populates cfg from command-line flags. Only the flags listed in
// knownFlags are looked at; a bad value panics.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "db", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SheetTitle, "sheet", cfg.SheetTitle, "remote sheet title")
	fs.StringVar(&cfg.SheetTab, "tab", cfg.SheetTab, "worksheet tab name")
	fs.StringVar(&cfg.CredentialsFile, "creds", cfg.CredentialsFile, "OAuth client credentials file")
	fs.StringVar(&cfg.TokenDir, "tokens", cfg.TokenDir, "directory for sealed tokens")
	fs.StringVar(&cfg.SyncSchedule, "schedule", cfg.SyncSchedule, "cron spec for periodic sync")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "connectivity check interval (in seconds)")
	fs.StringVar(&cfg.HealthAddr, "health", cfg.HealthAddr, "gRPC health listen address")
	fs.StringVar(&cfg.ExportDir, "export", cfg.ExportDir, "export directory")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 bucket for exports")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text|json|auto)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
