package nav

import (
	"context"
	"log"
	"sync"
	"time"

	"wander/directions"
	"wander/geoutils"
	"wander/journeyctx"
	"wander/models"
)

const (
	// ArrivalThresholdKm is how close a sample must be to a stop to count
	// as arriving at it.
	ArrivalThresholdKm = 0.05

	// MomentRadiusKm bounds which of the journey's moments are surfaced
	// alongside an arrival.
	MomentRadiusKm = 1.0

	// RecenterThresholdKm suppresses recenter events for samples within
	// this distance of the last recenter target.
	RecenterThresholdKm = 0.005

	// FocusDebounce is the quiet window after a stop selection during
	// which further selections are dropped.
	FocusDebounce = 120 * time.Millisecond
)

// Event is a single outbound frame on a navigation feed.
type Event struct {
	Type        string              `json:"type"`
	Mode        models.JourneyMode  `json:"mode,omitempty"`
	StopID      string              `json:"stopid,omitempty"`
	StopName    string              `json:"stopname,omitempty"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	Heading     float64             `json:"heading,omitempty"`
	Haptic      bool                `json:"haptic,omitempty"`
	Moments     []models.Moment     `json:"moments,omitempty"`
	Route       *directions.Route   `json:"route,omitempty"`
	Query       string              `json:"query,omitempty"`
	Suggestions []directions.Place  `json:"suggestions,omitempty"`
}

// Engine turns raw location samples into navigation events for one feed.
// Arrival and recenter state is connection-scoped: a reconnect starts clean.
type Engine struct {
	session *journeyctx.Session
	emit    func(Event)

	mu               sync.Mutex
	lastArrivedIndex int
	lastRecenter     *models.Coordinates
	lastFocus        time.Time
	now              func() time.Time
}

func NewEngine(session *journeyctx.Session, emit func(Event)) *Engine {
	return &Engine{
		session:          session,
		emit:             emit,
		lastArrivedIndex: -1,
		now:              time.Now,
	}
}

// HandleLocation ingests one device sample. The session position always
// updates; arrival detection and recentering only run in navigation mode.
func (e *Engine) HandleLocation(ctx context.Context, lon, lat, heading float64) {
	e.session.UpdateLocation(lon, lat, heading)

	if e.session.Mode() != models.ModeNavigation {
		return
	}
	active := e.session.ActiveJourney()
	if active == nil || len(active.Stops) == 0 {
		return
	}

	points := make([][2]float64, len(active.Stops))
	for i, stop := range active.Stops {
		points[i] = stop.Coordinates
	}
	idx := geoutils.ClosestIndex(lat, lon, points)
	if idx < 0 {
		return
	}
	stop := active.Stops[idx]
	dist := geoutils.DistanceKm(lat, lon, stop.Coordinates.Lat(), stop.Coordinates.Lng())

	sample := models.Coordinates{lon, lat}

	e.mu.Lock()
	arrived := dist < ArrivalThresholdKm && idx != e.lastArrivedIndex && !stop.Visited
	if arrived {
		e.lastArrivedIndex = idx
	}
	recenter := e.lastRecenter == nil ||
		geoutils.DistanceKm(lat, lon, e.lastRecenter.Lat(), e.lastRecenter.Lng()) > RecenterThresholdKm
	if recenter {
		e.lastRecenter = &sample
	}
	e.mu.Unlock()

	if arrived {
		if _, err := e.session.MarkStopVisited(ctx, active.JourneyID, stop.StopID); err != nil {
			log.Println("[Nav] mark visited:", err)
		}
		e.emit(Event{
			Type:     "arrival",
			StopID:   stop.StopID,
			StopName: stop.Name,
			Haptic:   true,
			Moments:  nearbyMoments(active, stop),
		})
	}
	if recenter {
		_, _, h, _ := e.session.Location()
		e.emit(Event{Type: "recenter", Coordinates: &sample, Heading: h})
	}
}

// nearbyMoments picks the journey's moments within MomentRadiusKm of the
// arrived stop. A stop with no nearby moments gets a synthesized one built
// from the stop itself, so the arrival overlay is never empty. Synthesized
// moments are display-only and never stored.
func nearbyMoments(j *models.Journey, stop models.Stop) []models.Moment {
	var near []models.Moment
	for _, m := range j.Moments {
		d := geoutils.DistanceKm(stop.Coordinates.Lat(), stop.Coordinates.Lng(), m.Coordinates.Lat(), m.Coordinates.Lng())
		if d <= MomentRadiusKm {
			near = append(near, m)
		}
	}
	if len(near) == 0 {
		near = []models.Moment{{
			MomentID:    "arrival-" + stop.StopID,
			Coordinates: stop.Coordinates,
			ImageURL:    stop.ImageURL,
			Caption:     stop.Name,
		}}
	}
	return near
}

// HandleFocus emits a focus event for a selected stop. Selections inside the
// debounce window are dropped so double-triggered taps pan the map once.
func (e *Engine) HandleFocus(stopID string) {
	e.mu.Lock()
	now := e.now()
	if now.Sub(e.lastFocus) < FocusDebounce {
		e.mu.Unlock()
		return
	}
	e.lastFocus = now
	e.mu.Unlock()

	current := e.session.CurrentJourney()
	if current == nil {
		return
	}
	for _, stop := range current.Stops {
		if stop.StopID == stopID {
			coords := stop.Coordinates
			e.emit(Event{Type: "focus", StopID: stop.StopID, StopName: stop.Name, Coordinates: &coords})
			return
		}
	}
}

// Reset clears arrival and recenter state. Called when the live journey
// changes so thresholds are judged against the new stop list from scratch.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.lastArrivedIndex = -1
	e.lastRecenter = nil
	e.mu.Unlock()
}
