package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the wire and display format of reading timestamps
const TimestampLayout = "2006-01-02 15:04:05"

// Reading one timestamped sensor value (reading table)
type Reading struct {
	ID        int64     `db:"id"`
	SensorID  int64     `db:"sensor_id"` // FK sensor.id
	Value     float64   `db:"value"`
	Timestamp time.Time `db:"timestamp"` // TIMESTAMP WITHOUT TIME ZONE, second resolution

	// joined from sensor
	SensorTag string `db:"sensor_tag"`
}

// ReadingJSON is the request/response representation
type ReadingJSON struct {
	ID          int64   `json:"id"`
	SensorID    int64   `json:"sensor_id"`
	SensorTag   string  `json:"sensor_tag"`
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
}

// ToJSON renders the reading with the boundary timestamp format
func (r Reading) ToJSON() ReadingJSON {
	return ReadingJSON{
		ID:          r.ID,
		SensorID:    r.SensorID,
		SensorTag:   r.SensorTag,
		Temperature: r.Value,
		Timestamp:   r.Timestamp.Format(TimestampLayout),
	}
}

// NormalizeTimestamp drops sub-second precision and zone information
func NormalizeTimestamp(t time.Time) time.Time {
	t = t.Truncate(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// ParseTimestamp parses YYYY-MM-DD HH:MM:SS strictly
func ParseTimestamp(s string) (time.Time, error) {
	// time.Parse accepts single-digit hours
	if len(s) != len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q: want layout %s", s, TimestampLayout)
	}
	return time.Parse(TimestampLayout, s)
}
