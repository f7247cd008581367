// Package migrations embeds the goose SQL migrations for the local replica.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
