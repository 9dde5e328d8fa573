// Package schedule fetches upcoming fight schedules from external
// sources: the ESPN boxing schedule page and a public UFC iCalendar
// feed. Fetch failures and parse failures are distinguished so the API
// layer can answer 503 for the former and 500 for the latter.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBoxingURL = "https://www.espn.com/boxing/story/_/id/12508267/boxing-schedule"
	defaultUfcURL    = "https://raw.githubusercontent.com/clarencechaan/ufc-cal/ics/UFC.ics"

	// ESPN serves a consent wall to clients without a browser UA.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	defaultTimeout = 20 * time.Second
)

// ErrConnectivity marks failures reaching the external source.
var ErrConnectivity = errors.New("external source unreachable")

// ErrParse marks failures interpreting what the source returned.
var ErrParse = errors.New("external data unparsable")

// Fetcher retrieves and parses external schedules.
type Fetcher struct {
	client    *http.Client
	boxingURL string
	ufcURL    string
	log       *zap.Logger
}

// NewFetcher creates a fetcher with the given request timeout. A zero
// timeout falls back to the default.
func NewFetcher(log *zap.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		boxingURL: defaultBoxingURL,
		ufcURL:    defaultUfcURL,
		log:       log,
	}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrConnectivity, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return body, nil
}
