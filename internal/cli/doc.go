// Package cli provides the interactive HealthTrend command-line client.
//
// It wires configuration, local storage and the sync pipeline, then runs a
// REPL for logging symptom severities and managing the Google Sheet link.
// While the REPL is open the sync scheduler runs in the background, so
// entries logged here reach the sheet without an explicit "sync".
//
// Typical session:
//
//	ht> signin me@example.com
//	ht> log today morning mild
//	ht> trends 2024-01-01 2024-01-31
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
