package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/domain"
	"github.com/micaelgg/buutech/internal/store"
)

// SensorLister read side of the catalog
type SensorLister interface {
	ListSensors(ctx context.Context) ([]domain.Sensor, error)
}

type sensorJSON struct {
	ID       int64  `json:"id"`
	Tag      string `json:"sensor_tag"`
	Type     string `json:"sensor_type"`
	Location string `json:"location,omitempty"`
	Area     string `json:"area"`
	Building string `json:"building"`
}

// SensorHandler catalog listing and latest values
type SensorHandler struct {
	catalog SensorLister
	latest  store.LatestCache
	logger  *zap.Logger
}

func NewSensorHandler(catalog SensorLister, latest store.LatestCache, logger *zap.Logger) *SensorHandler {
	if latest == nil {
		latest = store.NopCache{}
	}
	return &SensorHandler{catalog: catalog, latest: latest, logger: logger}
}

// List GET /sensors
func (h *SensorHandler) List(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.catalog.ListSensors(r.Context())
	if err != nil {
		h.logger.Error("ListSensors failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Error getting sensors", err))
		return
	}
	out := make([]sensorJSON, 0, len(sensors))
	for _, s := range sensors {
		out = append(out, sensorJSON{
			ID:       s.ID,
			Tag:      s.Tag,
			Type:     s.Type,
			Location: s.Location,
			Area:     s.AreaName,
			Building: s.BuildingName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Latest GET /sensors/{tag}/latest
func (h *SensorHandler) Latest(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")
	reading, err := h.latest.Latest(r.Context(), tag)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			writeJSON(w, http.StatusNotFound, Fail("No latest reading for sensor", nil))
			return
		}
		h.logger.Warn("latest cache read failed", zap.String("sensor_tag", tag), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Error getting latest reading", err))
		return
	}
	writeJSON(w, http.StatusOK, reading.ToJSON())
}
