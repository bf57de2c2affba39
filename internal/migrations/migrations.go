// Package migrations embeds the goose SQL migrations for each supported
// dialect. Files live under sqlite/ and postgres/.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
