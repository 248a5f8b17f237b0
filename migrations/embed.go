// Package migrations embeds the SQL schema migrations applied by the
// migrate command at startup or via `clinic-server migrate up`.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
