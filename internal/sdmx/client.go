package sdmx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const acceptHeader = "application/vnd.sdmx.data+json; version=2"

// Query identifies one dataset request against the upstream SDMX API.
type Query struct {
	// Flow is the dataflow identifier, e.g. "LU1,DSD_CENSUS_GROUP1_3@DF_B1600,1.0".
	Flow string `yaml:"flow" json:"flow"`
	// Key is the dot-delimited dimension key selecting the series.
	Key string `yaml:"key" json:"key"`
	// StartPeriod restricts the time series, e.g. "2011". Optional.
	StartPeriod string `yaml:"start_period" json:"start_period"`
}

// Client fetches SDMX-JSON data messages from a REST endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL, e.g.
// "https://lustat.statec.lu". Timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchData retrieves and parses the data message for one query. The
// context cancels the request; on cancellation no partial document is
// returned.
func (c *Client) FetchData(ctx context.Context, q Query) (*Document, error) {
	reqURL := fmt.Sprintf("%s/rest/data/%s/%s", c.baseURL, url.PathEscape(q.Flow), q.Key)
	if q.StartPeriod != "" {
		reqURL += "?startPeriod=" + url.QueryEscape(q.StartPeriod)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for flow %s: %w", q.Flow, err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching flow %s: %w", q.Flow, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching flow %s: unexpected status %d", q.Flow, resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding payload for flow %s: %w", q.Flow, err)
	}
	return &doc, nil
}
