package library

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

// schemaDDL holds the story library schema definition.
//
//go:embed schema.sql
var schemaDDL string

// EnsureSchema applies the schema DDL to the provided database connection.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("library: db is nil")
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("library: apply schema: %w", err)
	}
	return nil
}
