package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

// ParseClock converts a GTFS time ("H:MM:SS" or "HH:MM", hours may
// exceed 23) to seconds since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}

	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		if i > 0 && v > 59 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		fields[i] = v
	}
	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// FormatClock is the inverse of ParseClock, always with seconds.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

// buildDeparturesByStop indexes every timed call by stop, ordered by
// departure time. Calls without a usable time are skipped.
func buildDeparturesByStop(stopTimes []*models.StopTime, trips map[string]*models.Trip, routes map[string]*models.Route) map[string][]*models.Departure {
	byStop := make(map[string][]*models.Departure)

	for _, st := range stopTimes {
		clock := st.DepartureTime
		if clock == "" {
			clock = st.ArrivalTime
		}
		seconds, err := ParseClock(clock)
		if err != nil {
			continue
		}

		trip := trips[st.TripID]
		if trip == nil {
			continue
		}
		d := &models.Departure{
			StopID:        st.StopID,
			TripID:        st.TripID,
			RouteID:       trip.RouteID,
			ServiceID:     trip.ServiceID,
			Headsign:      trip.Headsign,
			DepartureTime: FormatClock(seconds),
			Seconds:       seconds,
		}
		if route := routes[trip.RouteID]; route != nil {
			d.Line = route.ShortName
			if d.Line == "" {
				d.Line = route.LongName
			}
		}
		byStop[st.StopID] = append(byStop[st.StopID], d)
	}

	for _, ds := range byStop {
		sort.SliceStable(ds, func(i, j int) bool {
			if ds[i].Seconds != ds[j].Seconds {
				return ds[i].Seconds < ds[j].Seconds
			}
			return ds[i].TripID < ds[j].TripID
		})
	}
	return byStop
}

const secondsPerDay = 24 * 3600

// serviceCalendar answers whether a service runs on a date. A feed
// without calendar.txt or calendar_dates.txt runs every service daily.
type serviceCalendar struct {
	weekly     map[string]*models.Calendar
	exceptions map[string]map[string]int // map[serviceID]map[YYYYMMDD]exception type
}

func newServiceCalendar(calendars []*models.Calendar, dates []*models.CalendarDate) *serviceCalendar {
	c := &serviceCalendar{
		weekly:     make(map[string]*models.Calendar, len(calendars)),
		exceptions: make(map[string]map[string]int),
	}
	for _, cal := range calendars {
		c.weekly[cal.ServiceID] = cal
	}
	for _, d := range dates {
		if c.exceptions[d.ServiceID] == nil {
			c.exceptions[d.ServiceID] = make(map[string]int)
		}
		c.exceptions[d.ServiceID][d.Date] = d.ExceptionType
	}
	return c
}

func (c *serviceCalendar) active(serviceID string, day time.Time) bool {
	if len(c.weekly) == 0 && len(c.exceptions) == 0 {
		return true
	}

	date := day.Format("20060102")
	switch c.exceptions[serviceID][date] {
	case models.ServiceAdded:
		return true
	case models.ServiceRemoved:
		return false
	}

	cal := c.weekly[serviceID]
	if cal == nil {
		return false
	}
	if (cal.StartDate != "" && date < cal.StartDate) || (cal.EndDate != "" && date > cal.EndDate) {
		return false
	}
	return cal.Days[day.Weekday()]
}

// ServiceActive reports whether trips of serviceID run on the service
// date of day.
func (s *Store) ServiceActive(serviceID string, day time.Time) bool {
	s.mu.RLock()
	services := s.services
	s.mu.RUnlock()
	return services.active(serviceID, day)
}

// GetDepartures returns the departures at a stop on the date of day at
// or after the given seconds since midnight, earliest first. Trips of
// the previous service day still running past midnight come first,
// with their clock brought back to the day asked for. Only services
// running on their service date are included. A limit of zero returns
// all of them.
func (s *Store) GetDepartures(stopID string, day time.Time, after, limit int) []*models.Departure {
	s.mu.RLock()
	all := s.departuresByStop[stopID]
	services := s.services
	s.mu.RUnlock()

	today := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	yesterday := today.AddDate(0, 0, -1)

	var out []*models.Departure
	collect := func(date time.Time, from, shift int) {
		i := sort.Search(len(all), func(i int) bool { return all[i].Seconds >= from })
		for _, d := range all[i:] {
			if !services.active(d.ServiceID, date) {
				continue
			}
			dep := *d
			dep.Seconds -= shift
			if shift > 0 {
				dep.DepartureTime = FormatClock(dep.Seconds)
			}
			dep.ServiceDate = date.Format(time.DateOnly)
			out = append(out, &dep)
		}
	}
	collect(yesterday, after+secondsPerDay, secondsPerDay)
	collect(today, after, 0)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Seconds < out[j].Seconds })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
