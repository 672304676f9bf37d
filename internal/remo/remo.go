package remo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"remoquerier/internal/model"
	"strings"

	"github.com/charmbracelet/log"
)

var ErrMissingTemperature = errors.New("device has no temperature event")

type (
	Client struct {
		http    *http.Client
		baseURL string
		token   string
	}

	Event struct {
		Val       *float64 `json:"val"`
		CreatedAt *string  `json:"created_at"`
	}

	// device holds only what is read from the first device.
	device struct {
		NewestEvents *struct {
			Temperature *Event `json:"te"`
		} `json:"newest_events"`
	}

	// summary is decoded for debug logging only; its errors are ignored.
	summary struct {
		ID           any                        `json:"id"`
		Name         any                        `json:"name"`
		NewestEvents map[string]json.RawMessage `json:"newest_events"`
	}
)

func New(client *http.Client, baseURL string, token string) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// ListDevices returns the raw device objects. Entries are not decoded, so a
// malformed device only matters if somebody reads it.
func (c *Client) ListDevices(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/1/devices", nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	log.Debug("Get list of devices", "url", req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get devices: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read devices: %w", err)
	}
	log.Debug("Devices response", "status", resp.StatusCode, "bytes", len(body))

	var devices []json.RawMessage
	err = json.Unmarshal(body, &devices)
	if err != nil {
		return nil, fmt.Errorf("decode devices (status %d): %w", resp.StatusCode, err)
	}

	return devices, nil
}

// RoomTemperature returns the newest temperature event of the first device.
// Any further devices are ignored.
func (c *Client) RoomTemperature(ctx context.Context) (model.Reading, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return model.Reading{}, err
	}

	// No devices is not an error: the reading stays at (0, "") and is
	// stored as such.
	if len(devices) == 0 {
		log.Warn("No devices returned, storing zero room reading")
		return model.Reading{}, nil
	}
	if len(devices) > 1 {
		log.Debug("Using first device only", "devices", len(devices))
	}
	logDevice(devices[0])

	var first device
	if err := json.Unmarshal(devices[0], &first); err != nil {
		return model.Reading{}, fmt.Errorf("decode first device: %w", err)
	}

	if first.NewestEvents == nil {
		return model.Reading{}, ErrMissingTemperature
	}
	te := first.NewestEvents.Temperature
	if te == nil || te.Val == nil || te.CreatedAt == nil {
		return model.Reading{}, ErrMissingTemperature
	}

	return model.Reading{
		Temperature: *te.Val,
		MeasuredAt:  *te.CreatedAt,
	}, nil
}

func logDevice(raw json.RawMessage) {
	if log.GetLevel() > log.DebugLevel {
		return
	}

	var s summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return
	}
	for name, ev := range s.NewestEvents {
		log.Debug("Device event", "id", s.ID, "device", s.Name, "sensor", name, "event", string(ev))
	}
}
