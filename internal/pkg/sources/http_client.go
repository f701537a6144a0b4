package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// startTimeLayout is the schedule format emitted by the scraper services.
const startTimeLayout = "2006-01-02 15:04"

// HTTPSource fetches listings from a scraper service's /listings endpoint.
type HTTPSource struct {
	code       string
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates an HTTP listing source for the given source code.
func NewHTTPSource(code, baseURL string, timeout time.Duration) *HTTPSource {
	if baseURL == "" {
		return nil
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &HTTPSource{
		code:    code,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Code returns the source code.
func (s *HTTPSource) Code() string {
	return s.code
}

// oddValue tolerates both numeric and quoted-string odds in scraper
// payloads. Empty or unparseable values decode to zero, which downstream
// treats as market unavailable.
type oddValue float64

func (o *oddValue) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*o = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*o = 0
		return nil
	}
	*o = oddValue(v)
	return nil
}

// listingPayload is the wire shape produced by the scraper services.
type listingPayload struct {
	EventID    string   `json:"eventId"`
	Country    string   `json:"country"`
	Tournament string   `json:"tournament"`
	Event      string   `json:"event"`
	Market     string   `json:"market"`
	HomeOdds   oddValue `json:"home_odds"`
	DrawOdds   oddValue `json:"draw_odds"`
	AwayOdds   oddValue `json:"away_odds"`
	StartTime  string   `json:"start_time"`
}

// FetchListings fetches the current listings from the scraper service.
func (s *HTTPSource) FetchListings(ctx context.Context) ([]models.RawListing, error) {
	if s == nil {
		return nil, fmt.Errorf("HTTP source is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/listings", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var payloads []listingPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	listings := make([]models.RawListing, 0, len(payloads))
	for _, p := range payloads {
		startTime, _ := time.Parse(startTimeLayout, p.StartTime)
		listings = append(listings, models.RawListing{
			Source:     s.code,
			RawEventID: p.EventID,
			Teams:      p.Event,
			Country:    p.Country,
			Tournament: p.Tournament,
			StartTime:  startTime,
			Quote: models.PriceQuote{
				Home: float64(p.HomeOdds),
				Draw: float64(p.DrawOdds),
				Away: float64(p.AwayOdds),
			},
		})
	}
	return listings, nil
}
