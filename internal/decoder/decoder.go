package decoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/micaelgg/buutech/internal/domain"
)

// ErrDecode every decode failure wraps this
var ErrDecode = errors.New("decode failure")

// DecodeError names the offending part of a message
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode failure: %s", e.Reason)
	}
	return fmt.Sprintf("decode failure: %s: %s", e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

func fail(field, format string, args ...any) error {
	return &DecodeError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Draft validated reading that has not been resolved to a sensor id yet
type Draft struct {
	SensorTag   string
	Temperature float64
	Timestamp   time.Time
}

// Decode parses one broker message. It returns either a fully populated Draft
// or a *DecodeError, never both.
func Decode(topic string, body []byte) (Draft, error) {
	kind, number := classifyTopic(topic)
	if kind == topicUnknown {
		return Draft{}, fail("topic", "unrecognised topic %q", topic)
	}
	if !utf8.Valid(body) {
		return Draft{}, fail("body", "not valid UTF-8")
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return Draft{}, fail("body", "not a JSON object: %v", err)
	}

	var d Draft
	switch kind {
	case topicHierarchical:
		tag, err := stringField(fields, "sensor_tag")
		if err != nil {
			return Draft{}, err
		}
		if strings.TrimSpace(tag) == "" {
			return Draft{}, fail("sensor_tag", "empty")
		}
		d.SensorTag = tag
	case topicFlat:
		if !isDigits(number) {
			return Draft{}, fail("topic", "sensor number %q is not numeric", number)
		}
		d.SensorTag = number
	}

	temp, err := temperatureField(fields)
	if err != nil {
		return Draft{}, err
	}
	ts, err := timestampField(fields)
	if err != nil {
		return Draft{}, err
	}
	d.Temperature = temp
	d.Timestamp = ts
	return d, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fail(name, "missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return "", fail(name, "must be a string")
	}
	return s, nil
}

// temperatureField accepts a JSON number or a string holding a finite float
func temperatureField(fields map[string]json.RawMessage) (float64, error) {
	raw, ok := fields["temperature"]
	if !ok {
		return 0, fail("temperature", "missing")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fail("temperature", "unreadable: %v", err)
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return 0, fail("temperature", "must be numeric, got %s", string(raw))
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fail("temperature", "%q is not a number", text)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fail("temperature", "%q is not finite", text)
	}
	return f, nil
}

func timestampField(fields map[string]json.RawMessage) (time.Time, error) {
	s, err := stringField(fields, "timestamp")
	if err != nil {
		return time.Time{}, err
	}
	ts, err := domain.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fail("timestamp", "%q does not match YYYY-MM-DD HH:MM:SS", s)
	}
	return ts, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
