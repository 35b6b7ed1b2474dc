package repository

import (
	"context"
	"time"

	"github.com/micaelgg/buutech/internal/domain"
)

// ReadingFilter narrows ListReadings
type ReadingFilter struct {
	SensorTag string // empty = all sensors
	Limit     int    // <= 0 = no limit
}

// ReadingUpdate partial update; nil fields are left unchanged
type ReadingUpdate struct {
	SensorID  *int64
	Value     *float64
	Timestamp *time.Time
}

// Empty reports whether the update changes nothing
func (u ReadingUpdate) Empty() bool {
	return u.SensorID == nil && u.Value == nil && u.Timestamp == nil
}

// ReadingsRepository persistence gateway shared by ingestion and the HTTP API.
// Each call is an independent unit of work; nothing is retried here.
type ReadingsRepository interface {
	InsertReading(ctx context.Context, sensorID int64, value float64, ts time.Time) (*domain.Reading, error)
	ListReadings(ctx context.Context, filter ReadingFilter) ([]domain.Reading, error)
	GetReading(ctx context.Context, id int64) (*domain.Reading, error)
	UpdateReading(ctx context.Context, id int64, update ReadingUpdate) (*domain.Reading, error)
	DeleteReading(ctx context.Context, id int64) error
}
