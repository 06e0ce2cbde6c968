// Package db ships the SQL migrations applied by goose.
package db

import "embed"

// MigrationsDir is the directory inside Migrations that goose reads.
const MigrationsDir = "migrations/sql"

// Migrations holds the embedded goose migration files.
//
//go:embed migrations/sql/*.sql
var Migrations embed.FS
