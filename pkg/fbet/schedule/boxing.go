package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// BoxingEvent is one entry of the ESPN "Key dates" list.
type BoxingEvent struct {
	Date        string `json:"date"`
	Location    string `json:"location"`
	Broadcaster string `json:"broadcaster"`
	Details     string `json:"details"`
}

// BoxingSchedule fetches the ESPN boxing schedule page and returns the
// parsed key-date entries.
func (f *Fetcher) BoxingSchedule(ctx context.Context) ([]BoxingEvent, error) {
	body, err := f.get(ctx, f.boxingURL)
	if err != nil {
		f.log.Warn("boxing schedule fetch failed", zap.String("url", f.boxingURL), zap.Error(err))
		return nil, err
	}

	events, err := ParseKeyDates(bytes.NewReader(body))
	if err != nil {
		f.log.Error("boxing schedule parse failed", zap.Error(err))
		return nil, err
	}
	if len(events) == 0 {
		f.log.Warn("boxing schedule page contained no key dates")
	}
	f.log.Info("boxing schedule fetched", zap.Int("entries", len(events)))
	return events, nil
}

// ParseKeyDates extracts the "Key dates" list from the ESPN boxing
// schedule page. The page is an article: a h2 or h3 heading containing
// "key dates" is followed, possibly after other siblings, by a <ul>
// whose items hold one event each. A page without that section yields
// an empty slice, not an error; the section disappears between events.
func ParseKeyDates(r io.Reader) ([]BoxingEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var heading *goquery.Selection
	doc.Find("h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), "key dates") {
			heading = s
			return false
		}
		return true
	})
	if heading == nil {
		return []BoxingEvent{}, nil
	}

	list := heading.NextAllFiltered("ul").First()
	if list.Length() == 0 {
		return []BoxingEvent{}, nil
	}

	events := []BoxingEvent{}
	list.Find("li").Each(func(_ int, item *goquery.Selection) {
		p := item.Find("p").First()
		if p.Length() == 0 {
			return
		}

		var ev BoxingEvent
		b := p.Find("b").First()
		if b.Length() == 0 {
			// No bold header. The whole entry is plain text shaped
			// "date: location (broadcaster) -- details".
			raw := strings.TrimSpace(p.Text())
			head, details, ok := strings.Cut(raw, " -- ")
			if !ok {
				return
			}
			ev = splitEntryHeader(strings.TrimSpace(head))
			ev.Details = strings.TrimSpace(details)
		} else {
			ev = splitEntryHeader(strings.TrimSpace(b.Text()))
			ev.Details = detailsAfterHeader(p.Text(), b.Text())
		}

		if ev.Date != "" && ev.Details != "" {
			events = append(events, ev)
		}
	})

	return events, nil
}

// splitEntryHeader splits "June 7: Riyadh, Saudi Arabia (DAZN PPV)"
// into date, location and broadcaster. Location and broadcaster are
// optional; a header without a colon is treated as a bare date.
func splitEntryHeader(s string) BoxingEvent {
	var ev BoxingEvent
	date, rest, ok := strings.Cut(s, ":")
	if !ok {
		ev.Date = strings.TrimSpace(s)
		return ev
	}
	ev.Date = strings.TrimSpace(date)

	location := strings.TrimSpace(rest)
	if strings.HasSuffix(location, ")") {
		if i := strings.LastIndex(location, "("); i != -1 {
			ev.Location = strings.TrimSpace(location[:i])
			ev.Broadcaster = strings.TrimSpace(location[i+1 : len(location)-1])
			return ev
		}
	}
	ev.Location = location
	return ev
}

// detailsAfterHeader extracts the free text following the bold header
// within the paragraph, preferring the " -- " separator when present.
func detailsAfterHeader(paragraph, header string) string {
	idx := strings.Index(paragraph, header)
	if idx == -1 {
		if _, after, ok := strings.Cut(paragraph, " -- "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}

	rest := paragraph[idx+len(header):]
	if _, after, ok := strings.Cut(rest, " -- "); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(rest)
}
