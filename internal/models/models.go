package models

import (
	"time"
)

// Agency represents a transit operator
type Agency struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Timezone string `json:"timezone"`
}

// Route represents a bus line
type Route struct {
	ID                    string   `json:"id"`
	AgencyID              string   `json:"agency_id,omitzero"`
	ShortName             string   `json:"short_name"`
	LongName              string   `json:"long_name"`
	Description           string   `json:"description,omitzero"`
	Type                  int      `json:"type"`
	Color                 string   `json:"color,omitzero"`
	TextColor             string   `json:"text_color,omitzero"`
	SortOrder             int      `json:"sort_order,omitzero"`
	DirectionDestinations []string `json:"direction_destinations,omitzero"`
}

// RouteTypeBus is the GTFS route_type for buses.
const RouteTypeBus = 3

// IsBus reports whether the route is served by buses. GTFS extended
// route types 700-799 are bus services as well.
func (r *Route) IsBus() bool {
	return r.Type == RouteTypeBus || (r.Type >= 700 && r.Type < 800)
}

// Stop represents a bus stop
type Stop struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code,omitzero"`
	Name               string  `json:"name"`
	Description        string  `json:"description,omitzero"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	LocationType       int     `json:"location_type,omitzero"`
	ParentStation      string  `json:"parent_station,omitzero"`
	WheelchairBoarding int     `json:"wheelchair_boarding,omitzero"`
}

// Position returns the stop location.
func (s *Stop) Position() LatLng {
	return LatLng{Lat: s.Latitude, Lng: s.Longitude}
}

// Trip represents one scheduled run of a line
type Trip struct {
	ID                   string `json:"id"`
	RouteID              string `json:"route_id"`
	ServiceID            string `json:"service_id"`
	Headsign             string `json:"headsign,omitzero"`
	DirectionID          int    `json:"direction_id,omitzero"`
	ShapeID              string `json:"shape_id,omitzero"`
	WheelchairAccessible int    `json:"wheelchair_accessible,omitzero"`
}

// StopTime represents a scheduled stop time for a trip
type StopTime struct {
	TripID        string `json:"trip_id"`
	ArrivalTime   string `json:"arrival_time"`
	DepartureTime string `json:"departure_time"`
	StopID        string `json:"stop_id"`
	StopSequence  int    `json:"stop_sequence"`
}

// Calendar is the weekly pattern of a service between two dates
type Calendar struct {
	ServiceID string
	Days      [7]bool // indexed by time.Weekday
	StartDate string  // YYYYMMDD
	EndDate   string  // YYYYMMDD
}

// Exception types of calendar_dates.txt
const (
	ServiceAdded   = 1
	ServiceRemoved = 2
)

// CalendarDate adds or removes a service on one date
type CalendarDate struct {
	ServiceID     string
	Date          string // YYYYMMDD
	ExceptionType int
}

// Departure is a scheduled call of a trip at a stop
type Departure struct {
	StopID        string `json:"stop_id"`
	TripID        string `json:"trip_id"`
	RouteID       string `json:"route_id"`
	ServiceID     string `json:"-"`
	Line          string `json:"line"`
	Headsign      string `json:"headsign,omitzero"`
	DepartureTime string `json:"departure_time"`
	// ServiceDate is the day the trip belongs to, YYYY-MM-DD. It is only
	// set on departures returned for a given date.
	ServiceDate string `json:"service_date,omitzero"`
	// Seconds since midnight of the service day. GTFS allows values past
	// 24:00:00 for trips that run after midnight.
	Seconds int `json:"-"`
}

// ShapePoint is one vertex of a line's drawn path
type ShapePoint struct {
	ShapeID      string  `json:"shape_id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Sequence     int     `json:"sequence"`
	DistTraveled float64 `json:"dist_traveled,omitzero"`
}

// LatLng is a WGS84 coordinate. The JSON field names match the
// Google Maps web services so it can be embedded in vendor records.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a rectangular viewport
type Bounds struct {
	Northeast LatLng `json:"northeast"`
	Southwest LatLng `json:"southwest"`
}

// Center returns the midpoint of the viewport.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.Northeast.Lat + b.Southwest.Lat) / 2,
		Lng: (b.Northeast.Lng + b.Southwest.Lng) / 2,
	}
}

// Preference keys as stored on disk
const (
	PrefDarkMode             = "dark_mode"
	PrefLanguage             = "language"
	PrefWheelchairAccessible = "wheelchair_accessibility"
)

// DefaultLanguage is used until the user picks one.
const DefaultLanguage = "pt"

// Preferences holds a user's display and routing settings
type Preferences struct {
	DarkMode             bool   `json:"dark_mode"`
	Language             string `json:"language"`
	WheelchairAccessible bool   `json:"wheelchair_accessibility"`
}

// DefaultPreferences returns the settings of a user who never changed anything.
func DefaultPreferences() Preferences {
	return Preferences{Language: DefaultLanguage}
}

// Notice is a service alert published by the operator
type Notice struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	DetailedInfo string    `db:"detailed_info" json:"detailed_info"`
	Link         string    `db:"link" json:"link,omitzero"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
}

// Message is one turn of an assistant conversation
type Message struct {
	ID        string    `db:"id" json:"id"`
	Session   string    `db:"session_id" json:"session"`
	Text      string    `db:"text" json:"text"`
	FromUser  bool      `db:"from_user" json:"from_user"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
