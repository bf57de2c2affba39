// Package services holds the application use cases behind the CLI and the
// daemon: logging entries, account and sheet settings, running a sync and
// exporting data.
package services
