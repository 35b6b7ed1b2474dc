package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the four catalog/reading tables.
// Every statement is idempotent so it can run on each startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS building (
		id       BIGSERIAL PRIMARY KEY,
		name     VARCHAR(100) NOT NULL UNIQUE,
		location VARCHAR(200) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS area (
		id          BIGSERIAL PRIMARY KEY,
		building_id BIGINT NOT NULL REFERENCES building(id),
		name        VARCHAR(100) NOT NULL,
		description TEXT,
		UNIQUE (building_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS sensor (
		id          BIGSERIAL PRIMARY KEY,
		area_id     BIGINT NOT NULL REFERENCES area(id),
		sensor_tag  VARCHAR(50) NOT NULL UNIQUE,
		sensor_type VARCHAR(50) NOT NULL DEFAULT 'temperature',
		location    VARCHAR(200) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS reading (
		id        BIGSERIAL PRIMARY KEY,
		sensor_id BIGINT NOT NULL REFERENCES sensor(id) ON DELETE CASCADE,
		value     DOUBLE PRECISION NOT NULL,
		timestamp TIMESTAMP WITHOUT TIME ZONE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reading_sensor_timestamp ON reading (sensor_id, timestamp)`,
}

// EnsureSchema applies the schema in order
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return classify(fmt.Sprintf("apply schema statement %d", i+1), err)
		}
	}
	return nil
}
