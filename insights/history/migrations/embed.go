// Package migrations embeds SQL migration files for the run history store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
