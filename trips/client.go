package trips

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/theoremus-urban-solutions/transit-map-core/resilience"
)

// Client fetches per-trip detail payloads from a GTFS-RT TripUpdates endpoint
// through a RetryingFetcher. One Client serves one endpoint group; the
// breaker behind the fetcher gates all of its requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	fetcher    *resilience.RetryingFetcher
}

// NewClient creates a client for baseURL. The trip id is passed as the
// trip_id query parameter.
func NewClient(baseURL string, fetcher *resilience.RetryingFetcher) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		fetcher:    fetcher,
	}
}

// FetchTripDetails fetches and decodes the detail payload for tripID.
// Transient failures are retried by the underlying fetcher; an open circuit
// surfaces as *resilience.CircuitOpenError.
func (c *Client) FetchTripDetails(ctx context.Context, tripID string) (*TripDetails, error) {
	reqURL := fmt.Sprintf("%s?trip_id=%s", c.baseURL, url.QueryEscape(tripID))

	body, err := c.fetcher.Do(ctx, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", reqURL, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, &resilience.StatusError{Code: resp.StatusCode}
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	return DecodeTripDetails(body, tripID)
}
