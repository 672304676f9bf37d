package weatherapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"remoquerier/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, <-chan *http.Request) {
	t.Helper()
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case seen <- r.Clone(context.Background()):
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestCurrent(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"location":{"name":"Himeji"},"current":{"temp_c": 5.2, "last_updated":"2024-01-01 09:00"}}`)

	got, err := New(srv.Client(), srv.URL, "K", "Himeji", "no").Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Reading{Temperature: 5.2, MeasuredAt: "2024-01-01 09:00"}, got)
}

// The air quality switch goes out as "api", not "aqi".
func TestCurrent_QueryParameters(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"current":{"temp_c":1,"last_updated":"x"}}`)

	_, err := New(srv.Client(), srv.URL, "K&1", "Himeji", "no").Current(context.Background())
	require.NoError(t, err)
	seen := <-reqs

	assert.Equal(t, http.MethodGet, seen.Method)
	assert.Equal(t, "/v1/current.json", seen.URL.Path)
	assert.Equal(t, "application/json", seen.Header.Get("Accept"))
	assert.Empty(t, seen.Header.Get("Authorization"))
	assert.Equal(t, "key=K%261&q=Himeji&api=no", seen.URL.RawQuery)

	q := seen.URL.Query()
	assert.Equal(t, "K&1", q.Get("key"))
	assert.Equal(t, "Himeji", q.Get("q"))
	assert.Equal(t, "no", q.Get("api"))
	assert.False(t, q.Has("aqi"))
}

func TestCurrent_APIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden, `{"error":{"code":2008,"message":"API key has been disabled."}}`)

	_, err := New(srv.Client(), srv.URL, "K", "Himeji", "no").Current(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 2008, apiErr.Code)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "API key has been disabled.", apiErr.Message)
}

func TestCurrent_MissingFields(t *testing.T) {
	bodies := map[string]string{
		"no current":      `{}`,
		"no temp_c":       `{"current":{"last_updated":"x"}}`,
		"no last_updated": `{"current":{"temp_c":3}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusOK, body)

			_, err := New(srv.Client(), srv.URL, "K", "Himeji", "no").Current(context.Background())
			require.ErrorIs(t, err, ErrMissingCurrent)
		})
	}
}

func TestCurrent_MalformedJSON(t *testing.T) {
	for name, body := range map[string]string{
		"truncated": `{"current":`,
		"array":     `[]`,
		"string":    `{"current":{"temp_c":"5.2","last_updated":"x"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusOK, body)

			_, err := New(srv.Client(), srv.URL, "K", "Himeji", "no").Current(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "decode current weather")
		})
	}
}

func TestCurrent_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(nil, base, "topsecret", "Himeji", "no").Current(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "topsecret")
	assert.Contains(t, err.Error(), "REDACTED")
}
