package domain

// Building top of the catalog hierarchy (building table).
// Created at seed time only; immutable afterwards.
type Building struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"` // UNIQUE
	Location string `db:"location" json:"location"`
}
