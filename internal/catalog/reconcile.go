package catalog

import (
	"context"
	"fmt"

	"github.com/micaelgg/buutech/internal/domain"
	"github.com/micaelgg/buutech/internal/repository"
)

// Report counts what a reconciliation pass did
type Report struct {
	BuildingsCreated int
	AreasCreated     int
	SensorsCreated   int
	SensorsExisting  int
}

// Reconcile brings the store up to the seed, inserting only missing rows.
// Running it again against the same store creates nothing.
func Reconcile(ctx context.Context, repo repository.CatalogRepository, seed *Seed) (Report, error) {
	var rep Report
	for _, b := range seed.Buildings {
		buildingID, created, err := repo.UpsertBuilding(ctx, domain.Building{Name: b.Name, Location: b.Location})
		if err != nil {
			return rep, fmt.Errorf("reconcile building %s: %w", b.Name, err)
		}
		if created {
			rep.BuildingsCreated++
		}

		for _, a := range b.Areas {
			area := domain.Area{BuildingID: buildingID, Name: a.Name}
			if a.Description != "" {
				desc := a.Description
				area.Description = &desc
			}
			areaID, created, err := repo.UpsertArea(ctx, area)
			if err != nil {
				return rep, fmt.Errorf("reconcile area %s/%s: %w", b.Name, a.Name, err)
			}
			if created {
				rep.AreasCreated++
			}

			for _, s := range a.Sensors {
				sensorType := s.Type
				if sensorType == "" {
					sensorType = "temperature"
				}
				_, created, err := repo.UpsertSensor(ctx, domain.Sensor{
					AreaID:   areaID,
					Tag:      s.Tag,
					Type:     sensorType,
					Location: s.Location,
				})
				if err != nil {
					return rep, fmt.Errorf("reconcile sensor %s: %w", s.Tag, err)
				}
				if created {
					rep.SensorsCreated++
				} else {
					rep.SensorsExisting++
				}
			}
		}
	}
	return rep, nil
}
