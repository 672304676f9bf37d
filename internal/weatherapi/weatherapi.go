// Package weatherapi reads the current outdoor temperature from WeatherAPI.com.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"remoquerier/internal/model"
	"strings"

	"github.com/charmbracelet/log"
)

// aqiParam is sent as "api", not the documented "aqi". Existing deployments
// rely on whatever default the provider applies to the unknown parameter.
const aqiParam = "api"

var ErrMissingCurrent = errors.New("response has no current temperature")

// APIError is the error object WeatherAPI.com returns in place of data.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weatherapi: %s (code %d, status %d)", e.Message, e.Code, e.Status)
}

type Client struct {
	http    *http.Client
	baseURL string
	key     string
	city    string
	aqi     string
}

type currentResponse struct {
	Current *struct {
		TempC       *float64 `json:"temp_c"`
		LastUpdated *string  `json:"last_updated"`
	} `json:"current"`
	Error *APIError `json:"error"`
}

func New(client *http.Client, baseURL, key, city, aqi string) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		city:    city,
		aqi:     aqi,
	}
}

// currentURL keeps the parameter order key, q, api.
func (c *Client) currentURL() string {
	return fmt.Sprintf("%s/v1/current.json?key=%s&q=%s&%s=%s",
		c.baseURL,
		url.QueryEscape(c.key),
		url.QueryEscape(c.city),
		aqiParam,
		url.QueryEscape(c.aqi),
	)
}

func (c *Client) Current(ctx context.Context) (model.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.currentURL(), nil)
	if err != nil {
		return model.Reading{}, err
	}
	req.Header.Set("Accept", "application/json")

	log.Debug("Get current weather", "city", c.city)
	resp, err := c.http.Do(req)
	if err != nil {
		return model.Reading{}, fmt.Errorf("get current weather: %w", redact(err, c.key))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Reading{}, fmt.Errorf("read current weather: %w", err)
	}
	log.Debug("Weather response", "status", resp.StatusCode, "bytes", len(body))

	var payload currentResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Reading{}, fmt.Errorf("decode current weather (status %d): %w", resp.StatusCode, err)
	}

	if payload.Error != nil {
		payload.Error.Status = resp.StatusCode
		return model.Reading{}, payload.Error
	}

	cur := payload.Current
	if cur == nil || cur.TempC == nil || cur.LastUpdated == nil {
		return model.Reading{}, fmt.Errorf("%w (status %d)", ErrMissingCurrent, resp.StatusCode)
	}

	return model.Reading{
		Temperature: *cur.TempC,
		MeasuredAt:  *cur.LastUpdated,
	}, nil
}

// redact strips the API key from transport errors, which embed the request URL.
func redact(err error, key string) error {
	var uerr *url.Error
	if key == "" || !errors.As(err, &uerr) {
		return err
	}
	cp := *uerr
	cp.URL = strings.ReplaceAll(cp.URL, url.QueryEscape(key), "REDACTED")
	return &cp
}
