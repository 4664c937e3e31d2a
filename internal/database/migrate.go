package database

import (
	"context"
	_ "embed"

	"github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables and indexes if they do not exist yet
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "postgres.Migrate")
	}
	return nil
}
