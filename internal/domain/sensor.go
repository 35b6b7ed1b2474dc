package domain

// Sensor belongs to one area (sensor table).
// Tag is the stable external name used in topics and payloads; it never changes.
type Sensor struct {
	ID       int64  `db:"id" json:"id"`
	AreaID   int64  `db:"area_id" json:"area_id"`
	Tag      string `db:"sensor_tag" json:"sensor_tag"` // UNIQUE
	Type     string `db:"sensor_type" json:"sensor_type"`
	Location string `db:"location" json:"location"`

	// joined from area / building
	AreaName     string `db:"area_name" json:"area_name,omitempty"`
	BuildingName string `db:"building_name" json:"building_name,omitempty"`
}
