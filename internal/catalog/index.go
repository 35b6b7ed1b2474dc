package catalog

import (
	"context"
	"fmt"

	"github.com/micaelgg/buutech/internal/domain"
	"github.com/micaelgg/buutech/internal/repository"
)

// Index tag -> sensor id snapshot.
// Built once and never written afterwards, so concurrent readers need no lock.
type Index struct {
	byTag   map[string]int64
	sensors []domain.Sensor
}

// NewIndex builds an index from a sensor list
func NewIndex(sensors []domain.Sensor) *Index {
	idx := &Index{
		byTag:   make(map[string]int64, len(sensors)),
		sensors: append([]domain.Sensor(nil), sensors...),
	}
	for _, s := range sensors {
		idx.byTag[s.Tag] = s.ID
	}
	return idx
}

// LoadIndex reads every sensor from the catalog store
func LoadIndex(ctx context.Context, repo repository.CatalogRepository) (*Index, error) {
	sensors, err := repo.ListSensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sensor index: %w", err)
	}
	return NewIndex(sensors), nil
}

// Lookup returns the sensor id for tag
func (i *Index) Lookup(tag string) (int64, bool) {
	id, ok := i.byTag[tag]
	return id, ok
}

// Len number of indexed sensors
func (i *Index) Len() int { return len(i.byTag) }

// Sensors returns a copy of the indexed sensors
func (i *Index) Sensors() []domain.Sensor {
	return append([]domain.Sensor(nil), i.sensors...)
}
