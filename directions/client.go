package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"wander/kv"
	"wander/models"
)

const (
	defaultRouteServer   = "https://router.project-osrm.org"
	defaultGeocodeServer = "https://nominatim.openstreetmap.org"
	userAgent            = "wander/1.0"
)

// Place is a ranked geocoding match.
type Place struct {
	Name        string             `json:"name"`
	Coordinates models.Coordinates `json:"coordinates"`
	Class       string             `json:"class,omitempty"`
	Type        string             `json:"type,omitempty"`
}

// Route is the polyline geometry joining a fork's stops in order.
type Route struct {
	Coordinates []models.Coordinates `json:"coordinates"`
	DistanceKm  float64              `json:"distanceKm"`
	DurationMin float64              `json:"durationMin"`
}

// Client talks to OSRM-compatible routing and Nominatim-compatible geocoding
// endpoints. Both are best-effort enrichment; callers treat failures as "no
// route" / "no suggestions".
type Client struct {
	httpClient  *http.Client
	routeBase   string
	geocodeBase string

	// cache holds geocode responses indefinitely. nil disables caching.
	cache kv.Store
}

func NewClient(routeBase, geocodeBase string, cache kv.Store) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		routeBase:   strings.TrimRight(routeBase, "/"),
		geocodeBase: strings.TrimRight(geocodeBase, "/"),
		cache:       cache,
	}
}

// NewClientFromEnv reads ROUTE_SERVER_URL and GEOCODE_SERVER_URL, falling
// back to the public OSRM and Nominatim instances.
func NewClientFromEnv(cache kv.Store) *Client {
	routeBase := os.Getenv("ROUTE_SERVER_URL")
	if routeBase == "" {
		routeBase = defaultRouteServer
	}
	geocodeBase := os.Getenv("GEOCODE_SERVER_URL")
	if geocodeBase == "" {
		geocodeBase = defaultGeocodeServer
	}
	return NewClient(routeBase, geocodeBase, cache)
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route fetches the walking route through the given points in order. Fewer
// than two points means there is nothing to join.
func (c *Client) Route(ctx context.Context, points []models.Coordinates) (*Route, error) {
	if len(points) < 2 {
		return nil, nil
	}

	pairs := make([]string, len(points))
	for i, p := range points {
		pairs[i] = fmt.Sprintf("%g,%g", p.Lng(), p.Lat())
	}
	endpoint := fmt.Sprintf("%s/route/v1/walking/%s?overview=full&geometries=geojson",
		c.routeBase, strings.Join(pairs, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions: route server returned %d", resp.StatusCode)
	}

	var parsed osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return nil, nil
	}

	best := parsed.Routes[0]
	route := &Route{
		Coordinates: make([]models.Coordinates, 0, len(best.Geometry.Coordinates)),
		DistanceKm:  best.Distance / 1000.0,
		DurationMin: best.Duration / 60.0,
	}
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		route.Coordinates = append(route.Coordinates, models.Coordinates{pair[0], pair[1]})
	}
	return route, nil
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// Geocode resolves a free-text query into ranked place matches. Successful
// responses, empty ones included, are cached indefinitely; failures are not.
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	cacheKey := "geo:search:" + strings.ToLower(query)
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, cacheKey); err == nil {
			var places []Place
			if err := json.Unmarshal([]byte(raw), &places); err == nil {
				if len(places) > limit {
					places = places[:limit]
				}
				return places, nil
			}
		} else if !errors.Is(err, kv.ErrNotFound) {
			log.Println("directions: geocode cache read failed:", err)
		}
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d",
		c.geocodeBase, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions: geocode server returned %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		if r.DisplayName == "" {
			continue
		}
		lat, _ := strconv.ParseFloat(r.Lat, 64)
		lon, _ := strconv.ParseFloat(r.Lon, 64)
		places = append(places, Place{
			Name:        r.DisplayName,
			Coordinates: models.Coordinates{lon, lat},
			Class:       r.Class,
			Type:        r.Type,
		})
		if len(places) >= limit {
			break
		}
	}

	if c.cache != nil {
		if raw, err := json.Marshal(places); err == nil {
			if err := c.cache.Set(ctx, cacheKey, string(raw)); err != nil {
				log.Println("directions: geocode cache write failed:", err)
			}
		}
	}
	return places, nil
}
