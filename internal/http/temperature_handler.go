package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/domain"
	"github.com/micaelgg/buutech/internal/repository"
)

// SensorResolver maps a tag to a sensor id
type SensorResolver interface {
	Resolve(ctx context.Context, tag string) (int64, error)
}

// TemperatureHandler CRUD over stored readings
type TemperatureHandler struct {
	readings repository.ReadingsRepository
	resolver SensorResolver
	logger   *zap.Logger
}

func NewTemperatureHandler(readings repository.ReadingsRepository, resolver SensorResolver, logger *zap.Logger) *TemperatureHandler {
	return &TemperatureHandler{readings: readings, resolver: resolver, logger: logger}
}

// temperatureRequest body of POST and PUT. Pointers tell absent from zero.
type temperatureRequest struct {
	SensorTag   *string  `json:"sensor_tag"`
	SensorID    *int64   `json:"sensor_id"`
	Temperature *float64 `json:"temperature"`
	Timestamp   *string  `json:"timestamp"`
}

// sensorID resolves the identity fields; ok is false when neither is present
func (h *TemperatureHandler) sensorID(ctx context.Context, req temperatureRequest) (int64, bool, error) {
	switch {
	case req.SensorTag != nil:
		id, err := h.resolver.Resolve(ctx, *req.SensorTag)
		return id, true, err
	case req.SensorID != nil:
		return *req.SensorID, true, nil
	}
	return 0, false, nil
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := domain.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q does not match %s", s, domain.TimestampLayout)
	}
	return ts, nil
}

// Create POST /temperatures
func (h *TemperatureHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req temperatureRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail(msgCreateError, err))
		return
	}

	sensorID, ok, err := h.sensorID(ctx, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail(msgCreateError, err))
		return
	}
	if !ok {
		writeJSON(w, http.StatusInternalServerError, Fail(msgCreateError, errors.New("sensor_tag or sensor_id is required")))
		return
	}
	if req.Temperature == nil {
		writeJSON(w, http.StatusInternalServerError, Fail(msgCreateError, errors.New("temperature is required")))
		return
	}
	if req.Timestamp == nil {
		writeJSON(w, http.StatusInternalServerError, Fail(msgCreateError, errors.New("timestamp is required")))
		return
	}
	ts, err := parseTimestamp(*req.Timestamp)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail(msgCreateError, err))
		return
	}

	reading, err := h.readings.InsertReading(ctx, sensorID, *req.Temperature, ts)
	if err != nil {
		h.logger.Error("InsertReading failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(msgCreateError, err))
		return
	}
	writeJSON(w, http.StatusCreated, Ok(msgCreated, reading.ToJSON()))
}

// List GET /temperatures
func (h *TemperatureHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ReadingFilter{
		SensorTag: r.URL.Query().Get("sensor_tag"),
		Limit:     parseInt(r.URL.Query().Get("limit"), 0),
	}
	items, err := h.readings.ListReadings(r.Context(), filter)
	if err != nil {
		h.logger.Error("ListReadings failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(msgListError, err))
		return
	}

	out := make([]domain.ReadingJSON, 0, len(items))
	for _, rd := range items {
		out = append(out, rd.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}

// Get GET /temperatures/{id}
func (h *TemperatureHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail(msgNotFound, nil))
		return
	}
	reading, err := h.readings.GetReading(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, msgGetError, id, err)
		return
	}
	writeJSON(w, http.StatusOK, reading.ToJSON())
}

// Update PUT /temperatures/{id}
func (h *TemperatureHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail(msgNotFound, nil))
		return
	}

	var req temperatureRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail(msgUpdateError, err))
		return
	}

	var update repository.ReadingUpdate
	sensorID, hasSensor, err := h.sensorID(ctx, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail(msgUpdateError, err))
		return
	}
	if hasSensor {
		update.SensorID = &sensorID
	}
	update.Value = req.Temperature
	if req.Timestamp != nil {
		ts, err := parseTimestamp(*req.Timestamp)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, Fail(msgUpdateError, err))
			return
		}
		update.Timestamp = &ts
	}

	reading, err := h.readings.UpdateReading(ctx, id, update)
	if err != nil {
		h.writeLookupError(w, msgUpdateError, id, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(msgUpdated, reading.ToJSON()))
}

// Delete DELETE /temperatures/{id}
func (h *TemperatureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail(msgNotFound, nil))
		return
	}
	if err := h.readings.DeleteReading(r.Context(), id); err != nil {
		h.writeLookupError(w, msgDeleteError, id, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(msgDeleted, nil))
}

// writeLookupError maps NotFound to 404 and anything else to 500
func (h *TemperatureHandler) writeLookupError(w http.ResponseWriter, message string, id int64, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail(msgNotFound, nil))
		return
	}
	h.logger.Error(message, zap.Int64("id", id), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, Fail(message, err))
}
