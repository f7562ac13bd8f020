package maps

import "github.com/joeshaw/aveiro-bus/internal/models"

// Travel modes reported on steps
const (
	TravelModeWalking = "WALKING"
	TravelModeTransit = "TRANSIT"
)

// Response status values shared by the web services
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// DirectionsResponse mirrors the Directions API JSON body
type DirectionsResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Routes       []Route  `json:"routes"`
	Warnings     []string `json:"warnings,omitempty"`
}

func (r *DirectionsResponse) vendorStatus() (string, string) { return r.Status, r.ErrorMessage }

// Route is one alternative itinerary between origin and destination
type Route struct {
	Summary          string        `json:"summary"`
	Legs             []Leg         `json:"legs"`
	OverviewPolyline Polyline      `json:"overview_polyline"`
	Bounds           models.Bounds `json:"bounds"`
	Copyrights       string        `json:"copyrights,omitempty"`
	Warnings         []string      `json:"warnings,omitempty"`
	Fare             *Fare         `json:"fare,omitempty"`

	// WheelchairAccessible is not part of the vendor payload. It is set
	// when the route was requested with wheelchair accessibility.
	WheelchairAccessible bool `json:"wheelchair_accessible,omitempty"`
}

// Leg is the part of a route between two waypoints
type Leg struct {
	Distance      ValueText     `json:"distance"`
	Duration      ValueText     `json:"duration"`
	StartAddress  string        `json:"start_address"`
	EndAddress    string        `json:"end_address"`
	StartLocation models.LatLng `json:"start_location"`
	EndLocation   models.LatLng `json:"end_location"`
	DepartureTime *TimeData     `json:"departure_time,omitempty"`
	ArrivalTime   *TimeData     `json:"arrival_time,omitempty"`
	Steps         []Step        `json:"steps"`
}

// Step is one instruction of a leg: a walk or a bus ride
type Step struct {
	TravelMode       string          `json:"travel_mode"`
	HTMLInstructions string          `json:"html_instructions"`
	Distance         ValueText       `json:"distance"`
	Duration         ValueText       `json:"duration"`
	StartLocation    models.LatLng   `json:"start_location"`
	EndLocation      models.LatLng   `json:"end_location"`
	Polyline         Polyline        `json:"polyline"`
	TransitDetails   *TransitDetails `json:"transit_details,omitempty"`
	Steps            []Step          `json:"steps,omitempty"`
}

// ValueText pairs a machine value (meters or seconds) with its display text
type ValueText struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// Polyline holds an encoded polyline string
type Polyline struct {
	Points string `json:"points"`
}

// TransitDetails describes the vehicle ride of a transit step
type TransitDetails struct {
	ArrivalStop   StopPoint `json:"arrival_stop"`
	DepartureStop StopPoint `json:"departure_stop"`
	ArrivalTime   TimeData  `json:"arrival_time"`
	DepartureTime TimeData  `json:"departure_time"`
	Headsign      string    `json:"headsign"`
	Headway       int       `json:"headway,omitempty"`
	NumStops      int       `json:"num_stops"`
	Line          Line      `json:"line"`
}

type StopPoint struct {
	Location models.LatLng `json:"location"`
	Name     string        `json:"name"`
}

// TimeData is a point in time. Value is seconds since the Unix epoch.
type TimeData struct {
	Text     string `json:"text"`
	TimeZone string `json:"time_zone"`
	Value    int64  `json:"value"`
}

type Line struct {
	Name      string   `json:"name"`
	ShortName string   `json:"short_name"`
	Color     string   `json:"color,omitempty"`
	TextColor string   `json:"text_color,omitempty"`
	Vehicle   Vehicle  `json:"vehicle"`
	Agencies  []Agency `json:"agencies,omitempty"`
	URL       string   `json:"url,omitempty"`
}

type Vehicle struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Icon string `json:"icon,omitempty"`
}

type Agency struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Fare struct {
	Currency string  `json:"currency"`
	Text     string  `json:"text"`
	Value    float64 `json:"value"`
}

// AutocompleteResponse mirrors the Places Autocomplete JSON body
type AutocompleteResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Predictions  []PlacePrediction `json:"predictions"`
}

func (r *AutocompleteResponse) vendorStatus() (string, string) { return r.Status, r.ErrorMessage }

// PlacePrediction is one suggested place for a partial query
type PlacePrediction struct {
	Description          string               `json:"description"`
	PlaceID              string               `json:"place_id"`
	Reference            string               `json:"reference,omitempty"`
	MatchedSubstrings    []MatchedSubstring   `json:"matched_substrings,omitempty"`
	StructuredFormatting StructuredFormatting `json:"structured_formatting"`
	Terms                []Term               `json:"terms,omitempty"`
	Types                []string             `json:"types,omitempty"`
}

type MatchedSubstring struct {
	Length int `json:"length"`
	Offset int `json:"offset"`
}

type StructuredFormatting struct {
	MainText                  string             `json:"main_text"`
	MainTextMatchedSubstrings []MatchedSubstring `json:"main_text_matched_substrings,omitempty"`
	SecondaryText             string             `json:"secondary_text,omitempty"`
}

type Term struct {
	Offset int    `json:"offset"`
	Value  string `json:"value"`
}
