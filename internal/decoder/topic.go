package decoder

import (
	"fmt"
	"strings"
)

// Scheme topic/payload convention the broker is subscribed with
type Scheme string

const (
	SchemeHierarchical Scheme = "hierarchical"
	SchemeFlat         Scheme = "flat"
)

const (
	// building/{building}/area/{area}/sensor/{tag}/temperature
	HierarchicalSubscription = "building/+/area/+/sensor/+/temperature"
	// warehouse/{n}/temperature
	FlatSubscription = "warehouse/+/temperature"
)

// ParseScheme accepts "hierarchical" or "flat"
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeHierarchical:
		return SchemeHierarchical, nil
	case SchemeFlat:
		return SchemeFlat, nil
	}
	return "", fmt.Errorf("unknown topic scheme %q", s)
}

// Subscription returns the single wildcard pattern covering every sensor
func (s Scheme) Subscription() string {
	if s == SchemeFlat {
		return FlatSubscription
	}
	return HierarchicalSubscription
}

// HierarchicalTopic builds the publish topic for one sensor
func HierarchicalTopic(building, area, tag string) string {
	return fmt.Sprintf("building/%s/area/%s/sensor/%s/temperature", building, area, tag)
}

// FlatTopic builds the publish topic for sensor number n
func FlatTopic(n int) string {
	return fmt.Sprintf("warehouse/%d/temperature", n)
}

type topicKind int

const (
	topicUnknown topicKind = iota
	topicHierarchical
	topicFlat
)

// classifyTopic returns the topic kind and, for flat topics, the sensor number segment
func classifyTopic(topic string) (topicKind, string) {
	parts := strings.Split(topic, "/")
	switch {
	case len(parts) == 7 &&
		parts[0] == "building" && parts[2] == "area" && parts[4] == "sensor" && parts[6] == "temperature" &&
		parts[1] != "" && parts[3] != "" && parts[5] != "":
		return topicHierarchical, ""
	case len(parts) == 3 && parts[0] == "warehouse" && parts[2] == "temperature":
		return topicFlat, parts[1]
	}
	return topicUnknown, ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
