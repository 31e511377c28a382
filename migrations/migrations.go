// Package migrations embeds the SQLite schema.
package migrations

import "embed"

// FS holds the *.up.sql files in apply order.
//
//go:embed *.sql
var FS embed.FS
