// Package migrations embeds the SQL migrations so binaries can migrate without
// shipping the directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
