package exporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/maps"
)

// WriteItineraryICS writes an itinerary as a calendar: one event for the
// whole trip plus one per bus ride. Steps without vendor times are skipped.
func WriteItineraryICS(w io.Writer, it directions.Itinerary, now time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//aveiro-bus//directions//PT")

	uid := fmt.Sprintf("%d", now.UnixNano())

	if start, end, ok := span(it.DepartureTime, it.ArrivalTime); ok {
		event := cal.AddEvent(uid + "-trip@aveiro-bus")
		stamp(event, now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(tripSummary(it))
		event.SetLocation(it.StartAddress)
		event.SetDescription(describe(it))
	}

	for i, step := range it.Steps {
		if step.Transit == nil {
			continue
		}
		start, end, ok := span(&step.Transit.DepartureTime, &step.Transit.ArrivalTime)
		if !ok {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s-step%d@aveiro-bus", uid, i))
		stamp(event, now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("%s → %s", step.Transit.Line, step.Transit.Headsign))
		event.SetLocation(step.Transit.DepartureStop)
		event.SetDescription(fmt.Sprintf("%s\n%s → %s (%d)",
			step.Instructions, step.Transit.DepartureStop, step.Transit.ArrivalStop, step.Transit.NumStops))
	}

	return cal.SerializeTo(w)
}

func stamp(event *ics.VEvent, now time.Time) {
	event.SetCreatedTime(now)
	event.SetDtStampTime(now)
	event.SetModifiedAt(now)
}

func span(from, to *maps.TimeData) (time.Time, time.Time, bool) {
	if from == nil || to == nil || from.Value == 0 || to.Value == 0 {
		return time.Time{}, time.Time{}, false
	}
	return time.Unix(from.Value, 0).UTC(), time.Unix(to.Value, 0).UTC(), true
}

func tripSummary(it directions.Itinerary) string {
	if len(it.Lines) == 0 {
		return it.EndAddress
	}
	return fmt.Sprintf("%s (%s)", it.EndAddress, strings.Join(it.Lines, ", "))
}

func describe(it directions.Itinerary) string {
	var b strings.Builder
	for _, step := range it.Steps {
		fmt.Fprintf(&b, "%s: %s (%s)\n", step.Kind, step.Instructions, step.Duration.Text)
	}
	return strings.TrimSpace(b.String())
}
