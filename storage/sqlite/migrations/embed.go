package migrations

import "embed"

// FS contains embedded SQLite migrations for the blog post cache.
//
//go:embed *.sql
var FS embed.FS
