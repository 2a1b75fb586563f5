package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	berlin  = Point{Lat: 52.5200, Lng: 13.4050}
	potsdam = Point{Lat: 52.3906, Lng: 13.0645}
	munich  = Point{Lat: 48.1351, Lng: 11.5820}
)

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(berlin, berlin), 1e-9)
	assert.InDelta(t, 27.2, DistanceKm(berlin, potsdam), 1.0)
	assert.InDelta(t, 504, DistanceKm(berlin, munich), 5)
	assert.InDelta(t, DistanceKm(berlin, munich), DistanceKm(munich, berlin), 1e-9)
}

type place struct {
	name string
	pos  *Point
}

func TestWithinRadius(t *testing.T) {
	items := []place{
		{"munich", &munich},
		{"potsdam", &potsdam},
		{"nowhere", nil},
		{"berlin", &berlin},
	}

	got := WithinRadius(items, berlin, 50, func(p place) (Point, bool) {
		if p.pos == nil {
			return Point{}, false
		}
		return *p.pos, true
	})

	require.Len(t, got, 2)
	assert.Equal(t, "berlin", got[0].Item.name)
	assert.Equal(t, "potsdam", got[1].Item.name)
	assert.Less(t, got[0].DistanceKm, got[1].DistanceKm)
}

func TestNominatimClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		if r.URL.Query().Get("q") == "Nowhere 1" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"52.52","lon":"13.405"}]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, "test-agent", time.Second)

	p, err := c.Geocode(context.Background(), "Alexanderplatz 1, Berlin")
	require.NoError(t, err)
	assert.InDelta(t, 52.52, p.Lat, 1e-9)
	assert.InDelta(t, 13.405, p.Lng, 1e-9)

	_, err = c.Geocode(context.Background(), "Nowhere 1")
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestNominatimClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, "test-agent", 50*time.Millisecond)
	_, err := c.Geocode(context.Background(), "Anywhere")
	assert.Error(t, err)
}
