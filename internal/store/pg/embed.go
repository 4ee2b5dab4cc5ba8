package pg

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

//go:embed seeds/*.sql
var seedFiles embed.FS

// Migrations returns the schema migrations for the award store.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Seeds returns demo data for local development.
func Seeds() fs.FS {
	sub, err := fs.Sub(seedFiles, "seeds")
	if err != nil {
		panic(err)
	}
	return sub
}
