package domain

// Area belongs to one building (area table).
// (building_id, name) is unique.
type Area struct {
	ID          int64   `db:"id" json:"id"`
	BuildingID  int64   `db:"building_id" json:"building_id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"` // nullable
}
