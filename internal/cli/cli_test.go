package cli

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeshaw/aveiro-bus/internal/chat"
	"github.com/joeshaw/aveiro-bus/internal/config"
	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/maps"
	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

const busDirections = `{
  "status": "OK",
  "routes": [{
    "summary": "L4",
    "overview_polyline": {"points": "_p~iF~ps|U_ulLnnqC"},
    "legs": [{
      "distance": {"value": 2300, "text": "2,3 km"},
      "duration": {"value": 1080, "text": "18 min"},
      "start_address": "Estação, Aveiro",
      "end_address": "Universidade de Aveiro",
      "departure_time": {"text": "08:00", "time_zone": "Europe/Lisbon", "value": 1760000000},
      "arrival_time": {"text": "08:18", "time_zone": "Europe/Lisbon", "value": 1760001080},
      "steps": [
        {"travel_mode": "TRANSIT", "html_instructions": "Autocarro em direção a Universidade",
         "distance": {"value": 2180, "text": "2,2 km"}, "duration": {"value": 720, "text": "12 min"},
         "polyline": {"points": "_ulLnnqC"},
         "transit_details": {
           "departure_stop": {"name": "Estação CP", "location": {"lat": 40.6436, "lng": -8.6406}},
           "arrival_stop": {"name": "Universidade", "location": {"lat": 40.6305, "lng": -8.6577}},
           "departure_time": {"text": "08:03", "value": 1760000180},
           "arrival_time": {"text": "08:15", "value": 1760000900},
           "headsign": "Universidade", "num_stops": 6,
           "line": {"short_name": "L4", "name": "Linha 4", "color": "#0055a4",
                    "vehicle": {"name": "Autocarro", "type": "BUS"}}
         }}
      ]
    }]
  }]
}`

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mapsServer(t *testing.T, body string) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("GOOGLE_MAPS_API_KEY", "test-key")
	t.Setenv("GOOGLE_MAPS_BASE_URL", srv.URL)
}

func writeFeed(t *testing.T) string {
	t.Helper()

	files := map[string]string{
		"routes.txt": "route_id,route_short_name,route_long_name,route_type,route_color,route_text_color\n" +
			"L4,L4,Estação - Universidade,3,0055A4,FFFFFF\n" +
			"CP,CP,Linha do Norte,2,,\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"estacao,Estação CP,40.64363,-8.64065\n" +
			"ua,Universidade,40.63055,-8.65774\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id\n" +
			"L4,weekday,t1,Universidade,0\n" +
			"CP,weekday,t2,Porto,0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t1,08:00:00,08:00:00,estacao,1\n" +
			"t1,08:12:00,08:12:00,ua,2\n" +
			"t2,09:00:00,09:00:00,estacao,1\n",
	}

	path := filepath.Join(t.TempDir(), "feed.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestLinesCommand(t *testing.T) {
	feed := writeFeed(t)
	kmlPath := filepath.Join(t.TempDir(), "lines.kml")

	out, err := run(t, "lines", "--gtfs", feed, "--kml", kmlPath)
	require.NoError(t, err)

	assert.Contains(t, out, "L4")
	assert.Contains(t, out, "Estação - Universidade")
	assert.Contains(t, out, "(2 stops)")
	assert.NotContains(t, out, "Linha do Norte")
	assert.Contains(t, out, "Saved map to "+kmlPath)

	kml, err := os.ReadFile(kmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(kml), "<kml")
	assert.Contains(t, string(kml), "Estação CP")
}

func TestLinesCommandMissingFeed(t *testing.T) {
	_, err := run(t, "lines", "--gtfs", filepath.Join(t.TempDir(), "none.zip"))
	assert.Error(t, err)
}

func TestDirectionsCommand(t *testing.T) {
	mapsServer(t, busDirections)
	icsPath := filepath.Join(t.TempDir(), "trip.ics")

	out, err := run(t, "directions", "Estação", "Universidade", "--lang", "EN", "--ics", icsPath)
	require.NoError(t, err)

	assert.Contains(t, out, "1. Estação, Aveiro → Universidade de Aveiro")
	assert.Contains(t, out, "18 min")
	assert.Contains(t, out, "Estação CP → Universidade, 6 stops")
	assert.Contains(t, out, "Saved calendar to "+icsPath)

	ics, err := os.ReadFile(icsPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(ics), "BEGIN:VCALENDAR"))
}

func TestDirectionsCommandNoRoutes(t *testing.T) {
	mapsServer(t, `{"status": "ZERO_RESULTS", "routes": []}`)

	out, err := run(t, "directions", "Estação", "Lua", "--lang", "en")
	require.NoError(t, err)
	assert.Equal(t, directions.OutcomeNoRoutes.Message("en")+"\n", out)
}

func TestDirectionsCommandErrors(t *testing.T) {
	mapsServer(t, busDirections)

	_, err := run(t, "directions", "Estação", "Universidade", "--lang", "klingon")
	assert.Error(t, err)

	_, err = run(t, "directions", "Estação", "Universidade", "--depart", "tomorrow")
	assert.ErrorContains(t, err, "--depart")

	_, err = run(t, "directions", "Estação")
	assert.Error(t, err)
}

func TestPlacesCommand(t *testing.T) {
	mapsServer(t, `{"status": "OK", "predictions": [
		{"description": "Universidade de Aveiro, Aveiro, Portugal",
		 "structured_formatting": {"main_text": "Universidade de Aveiro", "secondary_text": "Aveiro, Portugal"}}
	]}`)

	out, err := run(t, "places", "univ")
	require.NoError(t, err)
	assert.Contains(t, out, "Universidade de Aveiro")
	assert.Contains(t, out, "Aveiro, Portugal")

	out, err = run(t, "places", "un")
	require.NoError(t, err)
	assert.Equal(t, "No suggestions.\n", out)
}

func TestNewAssistant(t *testing.T) {
	defer func(c *config.Config) { cfg = c }(cfg)

	cfg = &config.Config{Chat: config.ChatConfig{Provider: "openai", OpenAIAPIKey: "key"}}
	assert.IsType(t, &chat.OpenAI{}, newAssistant(metrics.Noop))

	cfg = &config.Config{Chat: config.ChatConfig{Provider: "gemini", GeminiAPIKey: "key"}}
	assert.IsType(t, &chat.Gemini{}, newAssistant(metrics.Noop))
}

func TestRenderRoute(t *testing.T) {
	route := &models.Route{
		ID:                    "L4",
		LongName:              "Estação - Universidade",
		DirectionDestinations: []string{"Universidade", ""},
	}

	out := renderRoute(route, 7)
	assert.Contains(t, out, "L4")
	assert.Contains(t, out, "⇄ Universidade")
	assert.NotContains(t, out, "Universidade /")
	assert.Contains(t, out, "(7 stops)")
}

func TestRenderItinerary(t *testing.T) {
	it := directions.Itinerary{
		StartAddress:         "Forum",
		EndAddress:           "Glicínias",
		Duration:             maps.ValueText{Value: 600, Text: "10 min"},
		WheelchairAccessible: true,
		Warnings:             []string{"Obras na Avenida"},
		Steps: []directions.StepView{
			{Kind: directions.StepWalking, Instructions: "Caminhe até Forum"},
			{Kind: directions.StepBus, Instructions: "Autocarro", Transit: &directions.TransitView{
				Line:          "L3",
				DepartureStop: "Forum",
				ArrivalStop:   "Glicínias",
				NumStops:      4,
			}},
		},
	}

	out := renderItinerary(1, it)
	assert.Contains(t, out, "2. Forum → Glicínias")
	assert.Contains(t, out, "10 min")
	assert.Contains(t, out, "♿")
	assert.Contains(t, out, "walk")
	assert.Contains(t, out, "Caminhe até Forum")
	assert.Contains(t, out, "Forum → Glicínias, 4 stops")
	assert.Contains(t, out, "! Obras na Avenida")
}

func TestTimeRange(t *testing.T) {
	assert.Equal(t, "08:00–08:18", timeRange(&maps.TimeData{Text: "08:00"}, &maps.TimeData{Text: "08:18"}))
	assert.Empty(t, timeRange(nil, &maps.TimeData{Text: "08:18"}))
}
