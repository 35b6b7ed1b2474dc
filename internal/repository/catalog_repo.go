package repository

import (
	"context"

	"github.com/micaelgg/buutech/internal/domain"
)

// CatalogRepository building/area/sensor access.
// The Upsert* methods are insert-if-absent: an existing row is left untouched
// and its id returned with created=false.
type CatalogRepository interface {
	UpsertBuilding(ctx context.Context, b domain.Building) (id int64, created bool, err error)
	UpsertArea(ctx context.Context, a domain.Area) (id int64, created bool, err error)
	UpsertSensor(ctx context.Context, s domain.Sensor) (id int64, created bool, err error)

	ListSensors(ctx context.Context) ([]domain.Sensor, error)
	SensorIDByTag(ctx context.Context, tag string) (int64, error)
}
