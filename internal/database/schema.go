package database

import _ "embed"

//go:embed schemas/core_schema.sql
var coreSchema string

//go:embed schemas/index_schema.sql
var indexSchema string

// schemaFor maps database names to their embedded schemas.
func schemaFor(name string) (string, bool) {
	switch name {
	case "core":
		return coreSchema, true
	case "index":
		return indexSchema, true
	}
	return "", false
}
