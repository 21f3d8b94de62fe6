// Package migrations embeds the credential schema so the console binary can
// bootstrap its own database file.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
