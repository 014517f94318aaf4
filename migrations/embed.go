// Package migrations embeds the versioned schema migrations applied at
// startup.
package migrations

import "embed"

// Files holds the numbered .sql migration files.
//
//go:embed *.sql
var Files embed.FS
