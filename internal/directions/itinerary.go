package directions

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/joeshaw/aveiro-bus/internal/geo"
	"github.com/joeshaw/aveiro-bus/internal/maps"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// StepKind is how a step is drawn in the itinerary
type StepKind string

const (
	StepWalking  StepKind = "WALKING"
	StepBus      StepKind = "BUS"
	StepTransfer StepKind = "TRANSFER"
)

// KindOf maps a vendor travel mode to a step kind. Anything that is
// neither a walk nor a transit ride is shown as a transfer.
func KindOf(travelMode string) StepKind {
	switch travelMode {
	case maps.TravelModeWalking:
		return StepWalking
	case maps.TravelModeTransit:
		return StepBus
	default:
		return StepTransfer
	}
}

// Colors are the background and foreground used for a step kind.
type Colors struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

var kindColors = map[StepKind]Colors{
	StepWalking:  {Background: "#E8F5E9", Foreground: "#2E7D32"},
	StepBus:      {Background: "#E3F2FD", Foreground: "#1565C0"},
	StepTransfer: {Background: "#FFFDE7", Foreground: "#FF8F00"},
}

func (k StepKind) Colors() Colors {
	return kindColors[k]
}

// Itinerary is a route prepared for display: decoded paths, plain text
// instructions and the viewport that frames it.
type Itinerary struct {
	Summary              string          `json:"summary"`
	StartAddress         string          `json:"start_address"`
	EndAddress           string          `json:"end_address"`
	Distance             maps.ValueText  `json:"distance"`
	Duration             maps.ValueText  `json:"duration"`
	DepartureTime        *maps.TimeData  `json:"departure_time,omitempty"`
	ArrivalTime          *maps.TimeData  `json:"arrival_time,omitempty"`
	Polyline             string          `json:"polyline"`
	Path                 []models.LatLng `json:"path"`
	Bounds               models.Bounds   `json:"bounds"`
	WheelchairAccessible bool            `json:"wheelchair_accessible"`
	Fare                 string          `json:"fare,omitempty"`
	Warnings             []string        `json:"warnings,omitempty"`
	Lines                []string        `json:"lines"`
	Steps                []StepView      `json:"steps"`
}

// StepView is one rendered instruction.
type StepView struct {
	Kind         StepKind        `json:"kind"`
	Colors       Colors          `json:"colors"`
	Instructions string          `json:"instructions"`
	Distance     maps.ValueText  `json:"distance"`
	Duration     maps.ValueText  `json:"duration"`
	Path         []models.LatLng `json:"path"`
	Transit      *TransitView    `json:"transit,omitempty"`
}

// TransitView summarises the bus ride of a step.
type TransitView struct {
	Line          string        `json:"line"`
	LineName      string        `json:"line_name"`
	Color         string        `json:"color,omitempty"`
	TextColor     string        `json:"text_color,omitempty"`
	Headsign      string        `json:"headsign"`
	NumStops      int           `json:"num_stops"`
	DepartureStop string        `json:"departure_stop"`
	ArrivalStop   string        `json:"arrival_stop"`
	DepartureAt   models.LatLng `json:"departure_location"`
	ArrivalAt     models.LatLng `json:"arrival_location"`
	DepartureTime maps.TimeData `json:"departure_time"`
	ArrivalTime   maps.TimeData `json:"arrival_time"`
}

// NewItinerary builds the display form of route. Malformed polylines
// leave the affected path empty instead of failing the whole route.
func NewItinerary(route maps.Route) Itinerary {
	it := Itinerary{
		Summary:              route.Summary,
		Polyline:             route.OverviewPolyline.Points,
		Path:                 decodeOrEmpty(route.OverviewPolyline.Points),
		Bounds:               route.Bounds,
		WheelchairAccessible: route.WheelchairAccessible,
		Warnings:             route.Warnings,
		Lines:                []string{},
		Steps:                []StepView{},
	}
	if route.Fare != nil {
		it.Fare = route.Fare.Text
	}

	// Bounds follow the decoded overview path when there is one.
	if b, ok := geo.BoundsOf(it.Path); ok {
		it.Bounds = b
	}

	for i, leg := range route.Legs {
		if i == 0 {
			it.StartAddress = leg.StartAddress
			it.DepartureTime = leg.DepartureTime
		}
		it.EndAddress = leg.EndAddress
		it.ArrivalTime = leg.ArrivalTime
		it.Distance.Value += leg.Distance.Value
		it.Duration.Value += leg.Duration.Value

		for _, step := range leg.Steps {
			view := newStepView(step)
			if view.Transit != nil && view.Transit.Line != "" {
				it.Lines = append(it.Lines, view.Transit.Line)
			}
			it.Steps = append(it.Steps, view)
		}
	}
	if len(route.Legs) == 1 {
		it.Distance.Text = route.Legs[0].Distance.Text
		it.Duration.Text = route.Legs[0].Duration.Text
	} else if len(route.Legs) > 1 {
		it.Distance.Text = fmt.Sprintf("%.1f km", float64(it.Distance.Value)/1000)
		it.Duration.Text = fmt.Sprintf("%d min", (time.Duration(it.Duration.Value)*time.Second).Round(time.Minute)/time.Minute)
	}

	return it
}

func newStepView(step maps.Step) StepView {
	kind := KindOf(step.TravelMode)
	view := StepView{
		Kind:         kind,
		Colors:       kind.Colors(),
		Instructions: PlainText(step.HTMLInstructions),
		Distance:     step.Distance,
		Duration:     step.Duration,
		Path:         decodeOrEmpty(step.Polyline.Points),
	}

	if td := step.TransitDetails; td != nil {
		view.Transit = &TransitView{
			Line:          td.Line.ShortName,
			LineName:      td.Line.Name,
			Color:         td.Line.Color,
			TextColor:     td.Line.TextColor,
			Headsign:      td.Headsign,
			NumStops:      td.NumStops,
			DepartureStop: td.DepartureStop.Name,
			ArrivalStop:   td.ArrivalStop.Name,
			DepartureAt:   td.DepartureStop.Location,
			ArrivalAt:     td.ArrivalStop.Location,
			DepartureTime: td.DepartureTime,
			ArrivalTime:   td.ArrivalTime,
		}
		if view.Transit.Line == "" {
			view.Transit.Line = td.Line.Name
		}
	}

	return view
}

func decodeOrEmpty(encoded string) []models.LatLng {
	path, err := geo.DecodePolyline(encoded)
	if err != nil {
		return []models.LatLng{}
	}
	return path
}

// PlainText strips the markup from vendor html_instructions.
func PlainText(html string) string {
	if !strings.Contains(html, "<") {
		return strings.TrimSpace(html)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	// Block elements such as <div> carry separate sentences.
	doc.Find("div").Each(func(_ int, sel *goquery.Selection) {
		sel.PrependHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
