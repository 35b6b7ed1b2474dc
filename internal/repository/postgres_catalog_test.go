package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/micaelgg/buutech/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertBuilding_Created(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(`INSERT INTO building`).
		WithArgs("production_building", "North site").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	id, created, err := repo.UpsertBuilding(context.Background(), domain.Building{Name: "production_building", Location: "North site"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBuilding_Existing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	// ON CONFLICT DO NOTHING returns no row
	mock.ExpectQuery(`INSERT INTO building`).
		WithArgs("production_building", "North site").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id FROM building WHERE name = \$1`).
		WithArgs("production_building").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	id, created, err := repo.UpsertBuilding(context.Background(), domain.Building{Name: "production_building", Location: "North site"})

	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertArea_Created(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	desc := "assembly line"
	mock.ExpectQuery(`INSERT INTO area`).
		WithArgs(int64(1), "production_hall", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	id, created, err := repo.UpsertArea(context.Background(), domain.Area{BuildingID: 1, Name: "production_hall", Description: &desc})

	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	assert.True(t, created)
}

func TestUpsertSensor_Existing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(`INSERT INTO sensor`).
		WithArgs(int64(2), "temp_2", "temperature", "line 2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id FROM sensor WHERE sensor_tag = \$1`).
		WithArgs("temp_2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	id, created, err := repo.UpsertSensor(context.Background(), domain.Sensor{AreaID: 2, Tag: "temp_2", Type: "temperature", Location: "line 2"})

	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSensors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "area_id", "sensor_tag", "sensor_type", "location", "area_name", "building_name"}).
		AddRow(int64(1), int64(2), "temp_1", "temperature", "line 1", "production_hall", "production_building").
		AddRow(int64(2), int64(2), "temp_2", "temperature", "line 2", "production_hall", "production_building")
	mock.ExpectQuery(`FROM sensor s`).WillReturnRows(rows)

	sensors, err := repo.ListSensors(context.Background())

	require.NoError(t, err)
	require.Len(t, sensors, 2)
	assert.Equal(t, "temp_2", sensors[1].Tag)
	assert.Equal(t, "production_hall", sensors[1].AreaName)
	assert.Equal(t, "production_building", sensors[1].BuildingName)
}

func TestSensorIDByTag_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(`SELECT id FROM sensor WHERE sensor_tag = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.SensorIDByTag(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}
