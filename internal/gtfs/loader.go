package gtfs

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/store"
)

// ErrNoFeed is returned when neither the remote feed nor a local copy
// could be loaded.
var ErrNoFeed = errors.New("no GTFS data available")

// Loader loads the static bus network into a store
type Loader struct {
	url    string
	path   string
	client *http.Client
	store  *store.Store
}

// NewLoader creates a GTFS loader. url may be empty, in which case only
// the local copy at path is used. A successful download replaces the
// local copy.
func NewLoader(url, path string, client *http.Client, store *store.Store) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		url:    url,
		path:   path,
		client: client,
		store:  store,
	}
}

// Load refreshes the store from the remote feed, falling back to the
// local copy when the download or parse fails.
func (l *Loader) Load(ctx context.Context) error {
	log := logging.WithContext(ctx)

	if l.url != "" {
		err := l.download(ctx)
		if err == nil {
			return nil
		}
		log.Warn("Failed to download fresh GTFS data, falling back to local copy",
			zap.String("url", l.url), zap.Error(err))
	}

	if _, err := os.Stat(l.path); err != nil {
		return fmt.Errorf("%w: %v", ErrNoFeed, err)
	}
	return l.LoadFile(l.path)
}

func (l *Loader) download(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status code %d", l.url, resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "aveirobus-gtfs-*.zip")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("save GTFS file: %w", err)
	}

	if err := l.LoadFile(tmpFile.Name()); err != nil {
		return err
	}

	if err := saveLocalCopy(tmpFile.Name(), l.path); err != nil {
		logging.WithContext(ctx).Warn("Failed to save local GTFS copy", zap.String("path", l.path), zap.Error(err))
	}
	return nil
}

// saveLocalCopy replaces dst with src through a temp file in the same
// directory, so a failed copy leaves the previous copy in place.
func saveLocalCopy(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, source); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// LoadFile parses a GTFS zip and replaces the store contents.
func (l *Loader) LoadFile(path string) error {
	network, err := ParseFile(path)
	if err != nil {
		return err
	}

	l.store.Replace(network)
	logging.NoContext().Info("GTFS data loaded",
		zap.String("path", path),
		zap.Int("routes", len(network.Routes)),
		zap.Int("stops", len(network.Stops)),
		zap.Int("trips", len(network.Trips)))
	return nil
}

// ParseFile reads a GTFS zip into a network snapshot. Feeds may keep
// their files in a sub-directory of the archive.
func ParseFile(path string) (*store.Network, error) {
	zipReader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open GTFS zip: %w", err)
	}
	defer zipReader.Close()

	network := &store.Network{}
	seen := make(map[string]bool)

	for _, file := range zipReader.File {
		name := filepath.Base(file.Name)
		process, ok := processors[name]
		if !ok {
			continue
		}
		records, err := readCSV(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		process(network, records)
		seen[name] = true
	}

	for _, required := range []string{"routes.txt", "stops.txt"} {
		if !seen[required] {
			return nil, fmt.Errorf("GTFS zip %s: missing %s", path, required)
		}
	}

	return network, nil
}

var processors = map[string]func(*store.Network, []map[string]string){
	"agency.txt":     processAgency,
	"routes.txt":     processRoutes,
	"stops.txt":      processStops,
	"trips.txt":      processTrips,
	"stop_times.txt": processStopTimes,
	"shapes.txt":     processShapes,

	"calendar.txt":       processCalendar,
	"calendar_dates.txt": processCalendarDates,
}

func processAgency(n *store.Network, records []map[string]string) {
	for _, record := range records {
		n.Agencies = append(n.Agencies, &models.Agency{
			ID:       getString(record, "agency_id"),
			Name:     getString(record, "agency_name"),
			URL:      getString(record, "agency_url"),
			Timezone: getString(record, "agency_timezone"),
		})
	}
}

func processRoutes(n *store.Network, records []map[string]string) {
	for _, record := range records {
		n.Routes = append(n.Routes, &models.Route{
			ID:          getString(record, "route_id"),
			AgencyID:    getString(record, "agency_id"),
			ShortName:   getString(record, "route_short_name"),
			LongName:    getString(record, "route_long_name"),
			Description: getString(record, "route_desc"),
			Type:        getInt(record, "route_type"),
			Color:       getString(record, "route_color"),
			TextColor:   getString(record, "route_text_color"),
			SortOrder:   getInt(record, "route_sort_order"),
		})
	}
}

func processStops(n *store.Network, records []map[string]string) {
	for _, record := range records {
		n.Stops = append(n.Stops, &models.Stop{
			ID:                 getString(record, "stop_id"),
			Code:               getString(record, "stop_code"),
			Name:               getString(record, "stop_name"),
			Description:        getString(record, "stop_desc"),
			Latitude:           getFloat(record, "stop_lat"),
			Longitude:          getFloat(record, "stop_lon"),
			LocationType:       getInt(record, "location_type"),
			ParentStation:      getString(record, "parent_station"),
			WheelchairBoarding: getInt(record, "wheelchair_boarding"),
		})
	}
}

func processTrips(n *store.Network, records []map[string]string) {
	for _, record := range records {
		n.Trips = append(n.Trips, &models.Trip{
			ID:                   getString(record, "trip_id"),
			RouteID:              getString(record, "route_id"),
			ServiceID:            getString(record, "service_id"),
			Headsign:             getString(record, "trip_headsign"),
			DirectionID:          getInt(record, "direction_id"),
			ShapeID:              getString(record, "shape_id"),
			WheelchairAccessible: getInt(record, "wheelchair_accessible"),
		})
	}
}

func processStopTimes(n *store.Network, records []map[string]string) {
	for _, record := range records {
		n.StopTimes = append(n.StopTimes, &models.StopTime{
			TripID:        getString(record, "trip_id"),
			ArrivalTime:   getString(record, "arrival_time"),
			DepartureTime: getString(record, "departure_time"),
			StopID:        getString(record, "stop_id"),
			StopSequence:  getInt(record, "stop_sequence"),
		})
	}
}

func processShapes(n *store.Network, records []map[string]string) {
	for _, record := range records {
		n.Shapes = append(n.Shapes, &models.ShapePoint{
			ShapeID:      getString(record, "shape_id"),
			Latitude:     getFloat(record, "shape_pt_lat"),
			Longitude:    getFloat(record, "shape_pt_lon"),
			Sequence:     getInt(record, "shape_pt_sequence"),
			DistTraveled: getFloat(record, "shape_dist_traveled"),
		})
	}
}

var weekdayColumns = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func processCalendar(n *store.Network, records []map[string]string) {
	for _, record := range records {
		cal := &models.Calendar{
			ServiceID: getString(record, "service_id"),
			StartDate: getString(record, "start_date"),
			EndDate:   getString(record, "end_date"),
		}
		for day, column := range weekdayColumns {
			cal.Days[day] = getInt(record, column) == 1
		}
		n.Calendars = append(n.Calendars, cal)
	}
}

func processCalendarDates(n *store.Network, records []map[string]string) {
	for _, record := range records {
		n.CalendarDates = append(n.CalendarDates, &models.CalendarDate{
			ServiceID:     getString(record, "service_id"),
			Date:          getString(record, "date"),
			ExceptionType: getInt(record, "exception_type"),
		})
	}
}

// readCSV reads a header-keyed CSV file from a zip entry
func readCSV(file *zip.File) ([]map[string]string, error) {
	fileReader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	csvReader := csv.NewReader(fileReader)
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		// Some exporters prepend a UTF-8 BOM to the first header.
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var records []map[string]string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		fields := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				fields[header] = strings.TrimSpace(record[i])
			}
		}
		records = append(records, fields)
	}

	return records, nil
}

func getString(record map[string]string, field string) string {
	return record[field]
}

func getInt(record map[string]string, field string) int {
	if val, ok := record[field]; ok && val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return 0
}

func getFloat(record map[string]string, field string) float64 {
	if val, ok := record[field]; ok && val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return 0
}
