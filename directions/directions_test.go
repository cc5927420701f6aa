package directions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wander/kv"
	"wander/models"
)

const osrmBody = `{
	"code": "Ok",
	"routes": [{
		"distance": 2450.3,
		"duration": 1890.0,
		"geometry": {"coordinates": [[135.7727, 34.9671], [135.7750, 34.9800], [135.7292, 35.0394]]}
	}]
}`

func TestRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/route/v1/walking/")
		w.Write([]byte(osrmBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, nil)
	route, err := client.Route(context.Background(), []models.Coordinates{
		{135.7727, 34.9671},
		{135.7292, 35.0394},
	})
	require.NoError(t, err)
	require.NotNil(t, route)
	require.Len(t, route.Coordinates, 3)
	require.Equal(t, models.Coordinates{135.7750, 34.9800}, route.Coordinates[1])
	require.InDelta(t, 2.4503, route.DistanceKm, 1e-6)
	require.InDelta(t, 31.5, route.DurationMin, 1e-6)
}

func TestRouteNeedsTwoPoints(t *testing.T) {
	client := NewClient("http://unused.invalid", "http://unused.invalid", nil)
	route, err := client.Route(context.Background(), []models.Coordinates{{135.0, 35.0}})
	require.NoError(t, err)
	require.Nil(t, route)
}

func TestRouteServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, nil)
	route, err := client.Route(context.Background(), []models.Coordinates{{0, 0}, {1, 1}})
	require.Error(t, err)
	require.Nil(t, route)
}

func TestRouteNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, nil)
	route, err := client.Route(context.Background(), []models.Coordinates{{0, 0}, {1, 1}})
	require.NoError(t, err)
	require.Nil(t, route)
}

const nominatimBody = `[
	{"display_name": "Kyoto, Japan", "lat": "35.0116", "lon": "135.7681", "class": "place", "type": "city"},
	{"display_name": "Kyoto Station", "lat": "34.9858", "lon": "135.7588", "class": "railway", "type": "station"}
]`

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "kyoto", r.URL.Query().Get("q"))
		require.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(nominatimBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, nil)
	places, err := client.Geocode(context.Background(), "kyoto", 5)
	require.NoError(t, err)
	require.Len(t, places, 2)
	require.Equal(t, "Kyoto, Japan", places[0].Name)
	require.InDelta(t, 135.7681, places[0].Coordinates.Lng(), 1e-6)
	require.InDelta(t, 35.0116, places[0].Coordinates.Lat(), 1e-6)
	require.Equal(t, "city", places[0].Type)
}

func TestGeocodeBlankQuery(t *testing.T) {
	client := NewClient("http://unused.invalid", "http://unused.invalid", nil)
	places, err := client.Geocode(context.Background(), "   ", 5)
	require.NoError(t, err)
	require.Nil(t, places)
}

func TestGeocodeCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(nominatimBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, kv.NewMemoryStore())

	for i := 0; i < 3; i++ {
		places, err := client.Geocode(context.Background(), "Kyoto", 5)
		require.NoError(t, err)
		require.Len(t, places, 2)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&hits), "repeat queries must come from the cache")

	// Same query in different case shares the cache entry.
	_, err := client.Geocode(context.Background(), "KYOTO", 5)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCoalescerCollapsesRapidTyping(t *testing.T) {
	fetched := make(chan string, 4)
	applied := make(chan string, 4)

	c := NewCoalescer(
		func(ctx context.Context, q string) ([]Place, error) {
			fetched <- q
			return []Place{{Name: q}}, nil
		},
		func(q string, places []Place) { applied <- q },
		100*time.Millisecond,
	)

	ctx := context.Background()
	c.Query(ctx, "k")
	c.Query(ctx, "ky")
	c.Query(ctx, "kyoto")

	select {
	case q := <-applied:
		require.Equal(t, "kyoto", q)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced lookup never applied")
	}

	select {
	case q := <-fetched:
		require.Equal(t, "kyoto", q, "superseded queries must never hit the network")
	default:
		t.Fatal("no fetch recorded")
	}
	select {
	case q := <-fetched:
		t.Fatalf("extra fetch for %q", q)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCoalescerDiscardsStaleResponse(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	applied := make(chan string, 2)

	c := NewCoalescer(
		func(ctx context.Context, q string) ([]Place, error) {
			started <- q
			<-release
			return []Place{{Name: q}}, nil
		},
		func(q string, places []Place) { applied <- q },
		time.Millisecond,
	)

	ctx := context.Background()
	c.Query(ctx, "old")
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first lookup never started")
	}

	// Supersede while the first response is still on the wire.
	c.Query(ctx, "new")
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("second lookup never started")
	}
	close(release)

	select {
	case q := <-applied:
		require.Equal(t, "new", q)
	case <-time.After(2 * time.Second):
		t.Fatal("newest lookup never applied")
	}
	select {
	case q := <-applied:
		t.Fatalf("stale response for %q was applied", q)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCoalescerStopCancelsPending(t *testing.T) {
	applied := make(chan string, 1)
	c := NewCoalescer(
		func(ctx context.Context, q string) ([]Place, error) {
			return nil, nil
		},
		func(q string, places []Place) { applied <- q },
		50*time.Millisecond,
	)

	c.Query(context.Background(), "doomed")
	c.Stop()

	select {
	case q := <-applied:
		t.Fatalf("lookup %q applied after Stop", q)
	case <-time.After(200 * time.Millisecond):
	}
}
