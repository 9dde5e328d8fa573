package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
)

// UfcEvent is one upcoming event from the UFC iCalendar feed.
type UfcEvent struct {
	Summary     string     `json:"summary"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	UID         string     `json:"uid"`
	Start       time.Time  `json:"dtstart"`
	End         *time.Time `json:"dtend"`
}

// UfcSchedule fetches the UFC iCalendar feed and returns the upcoming
// events, oldest first.
func (f *Fetcher) UfcSchedule(ctx context.Context) ([]UfcEvent, error) {
	body, err := f.get(ctx, f.ufcURL)
	if err != nil {
		f.log.Warn("ufc schedule fetch failed", zap.String("url", f.ufcURL), zap.Error(err))
		return nil, err
	}

	events, err := ParseUfcCalendar(bytes.NewReader(body), time.Now().UTC())
	if err != nil {
		f.log.Error("ufc schedule parse failed", zap.Error(err))
		return nil, err
	}
	f.log.Info("ufc schedule fetched", zap.Int("entries", len(events)))
	return events, nil
}

// ParseUfcCalendar parses an iCalendar stream and keeps the events that
// start on or after the given day. Entries without a readable start are
// skipped; the result is sorted by start time.
func ParseUfcCalendar(r io.Reader, today time.Time) ([]UfcEvent, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	cutoff := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	events := []UfcEvent{}
	for _, component := range cal.Events() {
		start, err := component.GetStartAt()
		if err != nil {
			// All-day entries carry a DATE value instead of DATE-TIME.
			start, err = component.GetAllDayStartAt()
			if err != nil {
				continue
			}
		}
		if start.Before(cutoff) {
			continue
		}

		ev := UfcEvent{
			Summary:     propertyValue(component, ics.ComponentPropertySummary),
			Location:    propertyValue(component, ics.ComponentPropertyLocation),
			Description: propertyValue(component, ics.ComponentPropertyDescription),
			UID:         component.Id(),
			Start:       start,
		}
		if end, err := component.GetEndAt(); err == nil {
			ev.End = &end
		} else if end, err := component.GetAllDayEndAt(); err == nil {
			ev.End = &end
		}

		events = append(events, ev)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

func propertyValue(e *ics.VEvent, name ics.ComponentProperty) string {
	p := e.GetProperty(name)
	if p == nil {
		return ""
	}
	return p.Value
}
