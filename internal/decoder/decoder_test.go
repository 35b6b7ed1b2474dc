package decoder

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hierTopic = "building/production_building/area/production_hall/sensor/temp_2/temperature"

func TestDecode_Hierarchical(t *testing.T) {
	d, err := Decode(hierTopic, []byte(`{"sensor_tag":"temp_2","temperature":21.5,"timestamp":"2024-01-01 08:00:00"}`))
	require.NoError(t, err)
	assert.Equal(t, "temp_2", d.SensorTag)
	assert.Equal(t, 21.5, d.Temperature)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), d.Timestamp)
}

func TestDecode_BodyTagIsAuthoritative(t *testing.T) {
	d, err := Decode(hierTopic, []byte(`{"sensor_tag":"temp_3","temperature":20,"timestamp":"2024-01-01 08:00:00"}`))
	require.NoError(t, err)
	assert.Equal(t, "temp_3", d.SensorTag)
}

func TestDecode_Flat(t *testing.T) {
	d, err := Decode("warehouse/3/temperature", []byte(`{"temperature":"19.25","timestamp":"2024-01-01 08:00:00"}`))
	require.NoError(t, err)
	assert.Equal(t, "3", d.SensorTag)
	assert.Equal(t, 19.25, d.Temperature)
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		body  string
		field string
	}{
		{"unknown topic", "factory/1/humidity", `{}`, "topic"},
		{"flat non numeric segment", "warehouse/abc/temperature", `{"temperature":1,"timestamp":"2024-01-01 08:00:00"}`, "topic"},
		{"not json", hierTopic, `temperature=1`, "body"},
		{"json array", hierTopic, `[1,2]`, "body"},
		{"invalid utf8", hierTopic, "\xff\xfe", "body"},
		{"missing tag", hierTopic, `{"temperature":1,"timestamp":"2024-01-01 08:00:00"}`, "sensor_tag"},
		{"tag not string", hierTopic, `{"sensor_tag":7,"temperature":1,"timestamp":"2024-01-01 08:00:00"}`, "sensor_tag"},
		{"tag null", hierTopic, `{"sensor_tag":null,"temperature":1,"timestamp":"2024-01-01 08:00:00"}`, "sensor_tag"},
		{"empty tag", hierTopic, `{"sensor_tag":" ","temperature":1,"timestamp":"2024-01-01 08:00:00"}`, "sensor_tag"},
		{"missing temperature", hierTopic, `{"sensor_tag":"temp_2","timestamp":"2024-01-01 08:00:00"}`, "temperature"},
		{"not-a-number", hierTopic, `{"sensor_tag":"temp_2","temperature":"not-a-number","timestamp":"2024-01-01 08:00:00"}`, "temperature"},
		{"temperature bool", hierTopic, `{"sensor_tag":"temp_2","temperature":true,"timestamp":"2024-01-01 08:00:00"}`, "temperature"},
		{"temperature null", hierTopic, `{"sensor_tag":"temp_2","temperature":null,"timestamp":"2024-01-01 08:00:00"}`, "temperature"},
		{"temperature NaN string", hierTopic, `{"sensor_tag":"temp_2","temperature":"NaN","timestamp":"2024-01-01 08:00:00"}`, "temperature"},
		{"temperature Inf string", hierTopic, `{"sensor_tag":"temp_2","temperature":"+Inf","timestamp":"2024-01-01 08:00:00"}`, "temperature"},
		{"missing timestamp", hierTopic, `{"sensor_tag":"temp_2","temperature":1}`, "timestamp"},
		{"iso timestamp", hierTopic, `{"sensor_tag":"temp_2","temperature":1,"timestamp":"2024-01-01T08:00:00Z"}`, "timestamp"},
		{"timestamp number", hierTopic, `{"sensor_tag":"temp_2","temperature":1,"timestamp":1704096000}`, "timestamp"},
		{"flat missing temperature", "warehouse/1/temperature", `{"timestamp":"2024-01-01 08:00:00"}`, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode(tt.topic, []byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			assert.Equal(t, Draft{}, d)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("Flat")
	require.NoError(t, err)
	assert.Equal(t, FlatSubscription, s.Subscription())

	s, err = ParseScheme("hierarchical")
	require.NoError(t, err)
	assert.Equal(t, HierarchicalSubscription, s.Subscription())

	_, err = ParseScheme("mesh")
	assert.Error(t, err)
}

func TestTopicsRoundTrip(t *testing.T) {
	kind, _ := classifyTopic(HierarchicalTopic("b", "a", "temp_1"))
	assert.Equal(t, topicHierarchical, kind)

	kind, n := classifyTopic(FlatTopic(4))
	assert.Equal(t, topicFlat, kind)
	assert.Equal(t, "4", n)
}
