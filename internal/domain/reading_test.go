package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-01-01 08:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), ts)

	for _, bad := range []string{"2024-01-01T08:00:00", "2024-01-01 08:00", "01/01/2024 08:00:00", "2024-01-01 8:00:00", ""} {
		_, err := ParseTimestamp(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	in := time.Date(2024, 5, 6, 7, 8, 9, 987654321, loc)

	out := NormalizeTimestamp(in)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), out)
}

func TestReading_ToJSON(t *testing.T) {
	r := Reading{ID: 1, SensorID: 2, SensorTag: "temp_2", Value: 21.5, Timestamp: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
	j := r.ToJSON()
	assert.Equal(t, "2024-01-01 08:00:00", j.Timestamp)
	assert.Equal(t, 21.5, j.Temperature)
	assert.Equal(t, "temp_2", j.SensorTag)
}
