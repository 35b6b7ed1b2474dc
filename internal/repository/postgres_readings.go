package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/micaelgg/buutech/internal/domain"
)

// PostgresReadingsRepository ReadingsRepository backed by lib/pq.
// *sql.DB is safe for concurrent use, so the ingestion goroutine and HTTP
// handlers share one instance.
type PostgresReadingsRepository struct {
	db *sql.DB
}

// NewPostgresReadingsRepository creates the repository
func NewPostgresReadingsRepository(db *sql.DB) *PostgresReadingsRepository {
	return &PostgresReadingsRepository{db: db}
}

var _ ReadingsRepository = (*PostgresReadingsRepository)(nil)

const readingColumns = `r.id, r.sensor_id, r.value, r.timestamp, s.sensor_tag`

func scanReading(row interface{ Scan(dest ...any) error }) (*domain.Reading, error) {
	var rd domain.Reading
	if err := row.Scan(&rd.ID, &rd.SensorID, &rd.Value, &rd.Timestamp, &rd.SensorTag); err != nil {
		return nil, err
	}
	rd.Timestamp = domain.NormalizeTimestamp(rd.Timestamp)
	return &rd, nil
}

// InsertReading appends one reading and returns it with the store-assigned id
func (r *PostgresReadingsRepository) InsertReading(ctx context.Context, sensorID int64, value float64, ts time.Time) (*domain.Reading, error) {
	query := `
		WITH r AS (
			INSERT INTO reading (sensor_id, value, timestamp)
			VALUES ($1, $2, $3)
			RETURNING id, sensor_id, value, timestamp
		)
		SELECT ` + readingColumns + `
		FROM r
		JOIN sensor s ON s.id = r.sensor_id
	`
	rd, err := scanReading(r.db.QueryRowContext(ctx, query, sensorID, value, domain.NormalizeTimestamp(ts)))
	if err != nil {
		return nil, classify("insert reading", err)
	}
	return rd, nil
}

// ListReadings returns readings ordered by id
func (r *PostgresReadingsRepository) ListReadings(ctx context.Context, filter ReadingFilter) ([]domain.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM reading r
		JOIN sensor s ON s.id = r.sensor_id
	`
	args := []any{}
	if filter.SensorTag != "" {
		args = append(args, filter.SensorTag)
		query += fmt.Sprintf(" WHERE s.sensor_tag = $%d", len(args))
	}
	query += " ORDER BY r.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list readings", err)
	}
	defer rows.Close()

	out := []domain.Reading{}
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, classify("scan reading", err)
		}
		out = append(out, *rd)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list readings", err)
	}
	return out, nil
}

// GetReading returns ErrNotFound for a missing id
func (r *PostgresReadingsRepository) GetReading(ctx context.Context, id int64) (*domain.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM reading r
		JOIN sensor s ON s.id = r.sensor_id
		WHERE r.id = $1
	`
	rd, err := scanReading(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify("get reading", err)
	}
	return rd, nil
}

// UpdateReading applies the non-nil fields of update
func (r *PostgresReadingsRepository) UpdateReading(ctx context.Context, id int64, update ReadingUpdate) (*domain.Reading, error) {
	if update.Empty() {
		return r.GetReading(ctx, id)
	}

	var sets []string
	args := []any{}
	if update.SensorID != nil {
		args = append(args, *update.SensorID)
		sets = append(sets, fmt.Sprintf("sensor_id = $%d", len(args)))
	}
	if update.Value != nil {
		args = append(args, *update.Value)
		sets = append(sets, fmt.Sprintf("value = $%d", len(args)))
	}
	if update.Timestamp != nil {
		args = append(args, domain.NormalizeTimestamp(*update.Timestamp))
		sets = append(sets, fmt.Sprintf("timestamp = $%d", len(args)))
	}
	args = append(args, id)

	query := `
		WITH r AS (
			UPDATE reading SET ` + strings.Join(sets, ", ") + `
			WHERE id = $` + fmt.Sprintf("%d", len(args)) + `
			RETURNING id, sensor_id, value, timestamp
		)
		SELECT ` + readingColumns + `
		FROM r
		JOIN sensor s ON s.id = r.sensor_id
	`
	rd, err := scanReading(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classify("update reading", err)
	}
	return rd, nil
}

// DeleteReading returns ErrNotFound when nothing was deleted
func (r *PostgresReadingsRepository) DeleteReading(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reading WHERE id = $1`, id)
	if err != nil {
		return classify("delete reading", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("delete reading", err)
	}
	if n == 0 {
		return fmt.Errorf("delete reading %d: %w", id, ErrNotFound)
	}
	return nil
}
