package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// schema is idempotent; date_time holds the UTC wall clock.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS fitness_classes (
		id              BIGSERIAL PRIMARY KEY,
		name            TEXT      NOT NULL,
		date_time       TIMESTAMP NOT NULL,
		instructor      TEXT      NOT NULL,
		available_slots INTEGER   NOT NULL CHECK (available_slots >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGSERIAL PRIMARY KEY,
		reference    UUID      NOT NULL UNIQUE,
		class_id     BIGINT    NOT NULL REFERENCES fitness_classes (id),
		client_name  TEXT      NOT NULL,
		client_email TEXT      NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fitness_classes_date_time ON fitness_classes (date_time)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_client_email ON bookings (client_email)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_class_id ON bookings (class_id)`,
}

// Migrate creates the schema if it does not exist yet. All statements run in
// one transaction.
func Migrate(ctx context.Context, db DB) error {
	return WithTx(ctx, db, func(tx pgx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migrate step %d: %w", i+1, err)
			}
		}
		return nil
	})
}
