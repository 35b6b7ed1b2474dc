package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/micaelgg/buutech/internal/domain"
)

// MemoryRepo in-process catalog + readings store, used when running without
// Postgres and in tests. Enforces the same uniqueness and foreign-key rules
// as the SQL schema.
type MemoryRepo struct {
	mu sync.RWMutex

	nextID int64

	buildings map[int64]domain.Building
	areas     map[int64]domain.Area
	sensors   map[int64]domain.Sensor
	readings  map[int64]domain.Reading
}

// NewMemoryRepo creates an empty store
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		buildings: map[int64]domain.Building{},
		areas:     map[int64]domain.Area{},
		sensors:   map[int64]domain.Sensor{},
		readings:  map[int64]domain.Reading{},
	}
}

var (
	_ CatalogRepository  = (*MemoryRepo)(nil)
	_ ReadingsRepository = (*MemoryRepo)(nil)
)

func (r *MemoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

// ---- catalog ----

func (r *MemoryRepo) UpsertBuilding(_ context.Context, b domain.Building) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.buildings {
		if existing.Name == b.Name {
			return id, false, nil
		}
	}
	b.ID = r.id()
	r.buildings[b.ID] = b
	return b.ID, true, nil
}

func (r *MemoryRepo) UpsertArea(_ context.Context, a domain.Area) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.buildings[a.BuildingID]; !ok {
		return 0, false, fmt.Errorf("upsert area %s: building %d: %w", a.Name, a.BuildingID, ErrNotFound)
	}
	for id, existing := range r.areas {
		if existing.BuildingID == a.BuildingID && existing.Name == a.Name {
			return id, false, nil
		}
	}
	a.ID = r.id()
	r.areas[a.ID] = a
	return a.ID, true, nil
}

func (r *MemoryRepo) UpsertSensor(_ context.Context, s domain.Sensor) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.areas[s.AreaID]; !ok {
		return 0, false, fmt.Errorf("upsert sensor %s: area %d: %w", s.Tag, s.AreaID, ErrNotFound)
	}
	for id, existing := range r.sensors {
		if existing.Tag == s.Tag {
			return id, false, nil
		}
	}
	s.ID = r.id()
	r.sensors[s.ID] = s
	return s.ID, true, nil
}

func (r *MemoryRepo) ListSensors(_ context.Context) ([]domain.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Sensor, 0, len(r.sensors))
	for _, s := range r.sensors {
		a := r.areas[s.AreaID]
		s.AreaName = a.Name
		s.BuildingName = r.buildings[a.BuildingID].Name
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) SensorIDByTag(_ context.Context, tag string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, s := range r.sensors {
		if s.Tag == tag {
			return id, nil
		}
	}
	return 0, fmt.Errorf("sensor by tag %q: %w", tag, ErrNotFound)
}

// ---- readings ----

func (r *MemoryRepo) InsertReading(_ context.Context, sensorID int64, value float64, ts time.Time) (*domain.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sensors[sensorID]
	if !ok {
		return nil, fmt.Errorf("insert reading: sensor %d: %w", sensorID, ErrUnknownSensor)
	}
	rd := domain.Reading{
		ID:        r.id(),
		SensorID:  sensorID,
		SensorTag: s.Tag,
		Value:     value,
		Timestamp: domain.NormalizeTimestamp(ts),
	}
	r.readings[rd.ID] = rd
	return &rd, nil
}

func (r *MemoryRepo) ListReadings(_ context.Context, filter ReadingFilter) ([]domain.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Reading{}
	for _, rd := range r.readings {
		rd.SensorTag = r.sensors[rd.SensorID].Tag
		if filter.SensorTag != "" && rd.SensorTag != filter.SensorTag {
			continue
		}
		out = append(out, rd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) GetReading(_ context.Context, id int64) (*domain.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.readings[id]
	if !ok {
		return nil, fmt.Errorf("get reading %d: %w", id, ErrNotFound)
	}
	rd.SensorTag = r.sensors[rd.SensorID].Tag
	return &rd, nil
}

func (r *MemoryRepo) UpdateReading(_ context.Context, id int64, update ReadingUpdate) (*domain.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rd, ok := r.readings[id]
	if !ok {
		return nil, fmt.Errorf("update reading %d: %w", id, ErrNotFound)
	}
	if update.SensorID != nil {
		if _, ok := r.sensors[*update.SensorID]; !ok {
			return nil, fmt.Errorf("update reading %d: sensor %d: %w", id, *update.SensorID, ErrUnknownSensor)
		}
		rd.SensorID = *update.SensorID
	}
	if update.Value != nil {
		rd.Value = *update.Value
	}
	if update.Timestamp != nil {
		rd.Timestamp = domain.NormalizeTimestamp(*update.Timestamp)
	}
	r.readings[id] = rd
	rd.SensorTag = r.sensors[rd.SensorID].Tag
	return &rd, nil
}

func (r *MemoryRepo) DeleteReading(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.readings[id]; !ok {
		return fmt.Errorf("delete reading %d: %w", id, ErrNotFound)
	}
	delete(r.readings, id)
	return nil
}
