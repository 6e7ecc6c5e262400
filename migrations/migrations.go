// Package migrations embeds the goose SQL migrations of the story bible schema.
package migrations

import "embed"

// FS holds every *.sql migration, applied in version order.
//
//go:embed *.sql
var FS embed.FS
