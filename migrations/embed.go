// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests, the migrate command and server
// bootstrap.
//
// Every step is written to be re-runnable against a database whose tables
// were created outside goose (CREATE ... IF NOT EXISTS, ADD COLUMN IF NOT
// EXISTS), so applying them to a drifted deployment repairs it in place.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
