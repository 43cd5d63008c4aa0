// Package migrations embeds the SQL migrations for the database.
package migrations

import "embed"

// Migrations holds every *.sql migration, named for golang-migrate's iofs source.
//
//go:embed *.sql
var Migrations embed.FS
