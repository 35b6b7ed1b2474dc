package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/micaelgg/buutech/internal/domain"
)

// PostgresCatalogRepository CatalogRepository backed by lib/pq
type PostgresCatalogRepository struct {
	db *sql.DB
}

// NewPostgresCatalogRepository creates the repository
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

var _ CatalogRepository = (*PostgresCatalogRepository)(nil)

// insertOrSelect runs an INSERT ... ON CONFLICT DO NOTHING RETURNING id and,
// when the row already existed, falls back to the lookup query
func (r *PostgresCatalogRepository) insertOrSelect(ctx context.Context, op, insert string, insertArgs []any, lookup string, lookupArgs []any) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, insert, insertArgs...).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, classify(op, err)
	}
	if err := r.db.QueryRowContext(ctx, lookup, lookupArgs...).Scan(&id); err != nil {
		return 0, false, classify(op, err)
	}
	return id, false, nil
}

// UpsertBuilding keyed by name
func (r *PostgresCatalogRepository) UpsertBuilding(ctx context.Context, b domain.Building) (int64, bool, error) {
	return r.insertOrSelect(ctx, "upsert building",
		`INSERT INTO building (name, location) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`,
		[]any{b.Name, b.Location},
		`SELECT id FROM building WHERE name = $1`,
		[]any{b.Name},
	)
}

// UpsertArea keyed by (building_id, name)
func (r *PostgresCatalogRepository) UpsertArea(ctx context.Context, a domain.Area) (int64, bool, error) {
	var description sql.NullString
	if a.Description != nil {
		description = sql.NullString{String: *a.Description, Valid: true}
	}
	return r.insertOrSelect(ctx, "upsert area",
		`INSERT INTO area (building_id, name, description) VALUES ($1, $2, $3)
		 ON CONFLICT (building_id, name) DO NOTHING
		 RETURNING id`,
		[]any{a.BuildingID, a.Name, description},
		`SELECT id FROM area WHERE building_id = $1 AND name = $2`,
		[]any{a.BuildingID, a.Name},
	)
}

// UpsertSensor keyed by sensor_tag. An existing tag keeps its original area.
func (r *PostgresCatalogRepository) UpsertSensor(ctx context.Context, s domain.Sensor) (int64, bool, error) {
	return r.insertOrSelect(ctx, "upsert sensor",
		`INSERT INTO sensor (area_id, sensor_tag, sensor_type, location) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (sensor_tag) DO NOTHING
		 RETURNING id`,
		[]any{s.AreaID, s.Tag, s.Type, s.Location},
		`SELECT id FROM sensor WHERE sensor_tag = $1`,
		[]any{s.Tag},
	)
}

// ListSensors returns every sensor with its area and building names
func (r *PostgresCatalogRepository) ListSensors(ctx context.Context) ([]domain.Sensor, error) {
	query := `
		SELECT
			s.id,
			s.area_id,
			s.sensor_tag,
			s.sensor_type,
			s.location,
			a.name,
			b.name
		FROM sensor s
		JOIN area a ON a.id = s.area_id
		JOIN building b ON b.id = a.building_id
		ORDER BY s.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list sensors", err)
	}
	defer rows.Close()

	out := []domain.Sensor{}
	for rows.Next() {
		var s domain.Sensor
		if err := rows.Scan(&s.ID, &s.AreaID, &s.Tag, &s.Type, &s.Location, &s.AreaName, &s.BuildingName); err != nil {
			return nil, classify("scan sensor", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list sensors", err)
	}
	return out, nil
}

// SensorIDByTag returns ErrNotFound for an unknown tag
func (r *PostgresCatalogRepository) SensorIDByTag(ctx context.Context, tag string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM sensor WHERE sensor_tag = $1`, tag).Scan(&id)
	if err != nil {
		return 0, classify("sensor by tag", err)
	}
	return id, nil
}
