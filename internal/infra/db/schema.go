package db

import _ "embed"

// Schema is the full DDL, applied by deploy tooling and test setup.
//
//go:embed schema.sql
var Schema string
