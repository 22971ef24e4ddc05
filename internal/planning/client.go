// Package planning looks up the expected shift start of an employee in the
// external planning system.
package planning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"hotel-ops-backend/config"
)

// ShiftSource returns the expected shift start for an employee on a
// calendar day ("2006-01-02"). ok is false when no shift is planned.
type ShiftSource interface {
	ShiftStart(ctx context.Context, hotelID, employeeID int64, day string) (start time.Time, ok bool, err error)
}

// None is used when planning is disabled: nobody has a shift.
type None struct{}

func (None) ShiftStart(context.Context, int64, int64, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

// shiftResponse models the upstream API's response.
type shiftResponse struct {
	Code int `json:"code"`
	Data struct {
		ShiftStart string `json:"shiftStart"`
	} `json:"data"`
}

const timestampLayout = "2006-01-02 15:04:05"

// HTTPClient queries the planning API over HTTP.
type HTTPClient struct {
	cfg    config.PlanningConfig
	loc    *time.Location
	client *http.Client
}

func NewHTTPClient(cfg config.PlanningConfig) *HTTPClient {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Planning client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Printf("Warning: invalid planning timezone %q: %v. Using UTC.", cfg.Timezone, err)
		} else {
			loc = l
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		cfg: cfg,
		loc: loc,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

func (c *HTTPClient) ShiftStart(ctx context.Context, hotelID, employeeID int64, day string) (time.Time, bool, error) {
	jsonBody, err := json.Marshal(map[string]any{
		"hotelId":    hotelID,
		"employeeId": employeeID,
		"date":       day,
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, false, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read response body: %w", err)
	}

	var shift shiftResponse
	if err := json.Unmarshal(body, &shift); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to unmarshal planning response: %w", err)
	}
	if shift.Code != 0 {
		return time.Time{}, false, fmt.Errorf("planning API returned non-zero application code: %d", shift.Code)
	}
	if shift.Data.ShiftStart == "" {
		return time.Time{}, false, nil
	}

	start, err := time.ParseInLocation(timestampLayout, shift.Data.ShiftStart, c.loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse shiftStart %q: %w", shift.Data.ShiftStart, err)
	}
	return start, true, nil
}
