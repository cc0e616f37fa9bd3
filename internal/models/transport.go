package models

import "time"

// TransportRoute is a bus route operated by a school. Fares are stored in
// paise.
type TransportRoute struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	VehicleNo string    `db:"vehicle_no" json:"vehicle_no"`
	Capacity  int       `db:"capacity" json:"capacity"`
	FarePaise int64     `db:"fare_paise" json:"fare_paise"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TransportRouteFilter narrows route listings.
type TransportRouteFilter struct {
	SchoolID  string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
