// Package dbmigrations exposes embedded SQL migrations for ratetap binaries.
package dbmigrations

import "embed"

// Files contains the embedded SQL migrations bundled into ratetap binaries.
//
//go:embed *.sql
var Files embed.FS
