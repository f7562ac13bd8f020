package exporter

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/twpayne/go-kml"

	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// defaultLineColor is used for lines without a GTFS route_color.
var defaultLineColor = color.RGBA{R: 0x15, G: 0x65, B: 0xC0, A: 0xFF}

// Line is a bus line with everything needed to draw it on a map.
type Line struct {
	Route  *models.Route
	Shapes [][]models.LatLng
	Stops  []*models.Stop
}

// WriteLinesKML writes one folder per line with its shapes and stops.
func WriteLinesKML(w io.Writer, name string, lines []Line) error {
	doc := kml.Document(kml.Name(name))

	for _, line := range lines {
		style := kml.SharedStyle("line-"+line.Route.ID,
			kml.LineStyle(
				kml.Color(ParseHexColor(line.Route.Color, defaultLineColor)),
				kml.Width(4),
			),
		)
		doc.Add(style)

		folder := kml.Folder(
			kml.Name(lineTitle(line.Route)),
			kml.Description(line.Route.Description),
		)
		for i, shape := range line.Shapes {
			folder.Add(kml.Placemark(
				kml.Name(fmt.Sprintf("%s (%d)", lineTitle(line.Route), i+1)),
				kml.StyleURL(style.URL()),
				kml.LineString(kml.Coordinates(coordinates(shape)...)),
			))
		}
		for _, stop := range line.Stops {
			folder.Add(stopPlacemark(stop.Name, stop.Position()))
		}
		doc.Add(folder)
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}

// WriteItineraryKML writes the overview path of an itinerary together
// with a placemark for every boarding and alighting stop.
func WriteItineraryKML(w io.Writer, it directions.Itinerary) error {
	pathStyle := kml.SharedStyle("itinerary",
		kml.LineStyle(
			kml.Color(ParseHexColor(directions.StepBus.Colors().Foreground, defaultLineColor)),
			kml.Width(5),
		),
	)

	doc := kml.Document(
		kml.Name(it.StartAddress+" → "+it.EndAddress),
		kml.Description(it.Summary),
		pathStyle,
		kml.Placemark(
			kml.Name(it.Duration.Text),
			kml.StyleURL(pathStyle.URL()),
			kml.LineString(kml.Coordinates(coordinates(it.Path)...)),
		),
	)

	for _, step := range it.Steps {
		if step.Transit == nil {
			continue
		}
		doc.Add(
			stopPlacemark(step.Transit.Line+" · "+step.Transit.DepartureStop, step.Transit.DepartureAt),
			stopPlacemark(step.Transit.Line+" · "+step.Transit.ArrivalStop, step.Transit.ArrivalAt),
		)
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}

func stopPlacemark(name string, at models.LatLng) kml.Element {
	return kml.Placemark(
		kml.Name(name),
		kml.Point(kml.Coordinates(kml.Coordinate{Lon: at.Lng, Lat: at.Lat})),
	)
}

func coordinates(path []models.LatLng) []kml.Coordinate {
	coords := make([]kml.Coordinate, len(path))
	for i, p := range path {
		coords[i] = kml.Coordinate{Lon: p.Lng, Lat: p.Lat}
	}
	return coords
}

func lineTitle(r *models.Route) string {
	switch {
	case r.ShortName != "" && r.LongName != "":
		return r.ShortName + " - " + r.LongName
	case r.ShortName != "":
		return r.ShortName
	default:
		return r.LongName
	}
}

// ParseHexColor parses "RRGGBB" or "#RRGGBB", returning fallback when
// s is not a valid color.
func ParseHexColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
