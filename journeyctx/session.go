package journeyctx

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"wander/globals"
	"wander/kv"
	"wander/live"
	"wander/models"
	"wander/planner"
)

// Catalog supplies the source templates forks are cut from.
type Catalog interface {
	List(ctx context.Context) ([]*models.Journey, error)
	GetByID(ctx context.Context, id string) (*models.Journey, error)
}

// toggleGuard is how long a second visited-toggle on the same stop is
// swallowed as an accidental double trigger.
const toggleGuard = 300 * time.Millisecond

// Session is the per-user journey facade. It aggregates the user's planner
// and live stores, tracks the inspection and active references, and carries
// the latest location sample. Every command runs under the session mutex so
// callers never observe a half-applied mutation.
type Session struct {
	userID  string
	catalog Catalog
	planner *planner.Store
	live    *live.Store

	mu         sync.Mutex
	active     *models.Journey
	inspection *models.Journey

	lon, lat    float64
	heading     float64
	hasLocation bool

	lastToggle map[string]time.Time
	now        func() time.Time
}

// NewSession wires a session over the shared storage. Most callers go
// through Manager instead.
func NewSession(userID string, store kv.Store, catalog Catalog) *Session {
	p := planner.NewStore(userID, store)
	return &Session{
		userID:     userID,
		catalog:    catalog,
		planner:    p,
		live:       live.NewStore(userID, store, p),
		lastToggle: make(map[string]time.Time),
		now:        time.Now,
	}
}

func (s *Session) UserID() string {
	return s.userID
}

// Planner exposes the session's fork collection store.
func (s *Session) Planner() *planner.Store {
	return s.planner
}

// SubscribeLive registers fn for live-pointer changes. Callbacks run on the
// mutating goroutine and must not call back into the session. The returned
// func removes the subscription.
func (s *Session) SubscribeLive(fn func(*models.Journey)) func() {
	return s.live.Subscribe(fn)
}

// failGuard reports a programming error, loudly outside production.
func failGuard(op, detail string) {
	msg := fmt.Sprintf("journeyctx: %s refused: %s", op, detail)
	if globals.IsProduction() {
		log.Println(msg)
		return
	}
	panic(msg)
}

// cloneRef deep-copies a reference preserving its sealed state.
func cloneRef(j *models.Journey) *models.Journey {
	if j == nil {
		return nil
	}
	c := j.Clone()
	if j.Sealed() {
		c.Seal()
	}
	return c
}

// Journeys lists the available source templates.
func (s *Session) Journeys(ctx context.Context) ([]*models.Journey, error) {
	return s.catalog.List(ctx)
}

// PlannerJourneys lists the user's forks, newest first.
func (s *Session) PlannerJourneys(ctx context.Context) ([]*models.Journey, error) {
	return s.planner.List(ctx)
}

// ActiveJourney returns the fork currently eligible for mutation, nil when
// nothing is being edited or navigated.
func (s *Session) ActiveJourney() *models.Journey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRef(s.active)
}

// InspectionJourney returns the sealed snapshot being previewed, nil when
// none.
func (s *Session) InspectionJourney() *models.Journey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRef(s.inspection)
}

// CurrentJourney is the journey the UI should render: the inspection
// snapshot when set, otherwise the active fork.
func (s *Session) CurrentJourney() *models.Journey {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inspection != nil {
		return cloneRef(s.inspection)
	}
	return cloneRef(s.active)
}

// Mode derives the journey mode from the two references. Never stored.
func (s *Session) Mode() models.JourneyMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modeLocked()
}

func (s *Session) modeLocked() models.JourneyMode {
	if s.inspection != nil {
		return models.ModeInspection
	}
	if s.active == nil {
		return models.ModeNone
	}
	switch models.DeriveStatus(s.active) {
	case models.StatusCompleted:
		return models.ModeCompleted
	case models.StatusLive:
		return models.ModeNavigation
	default:
		return models.ModePlanning
	}
}

// SavedIDs returns the source template ids the user already forked.
func (s *Session) SavedIDs(ctx context.Context) (map[string]bool, error) {
	return s.planner.SourceIDs(ctx)
}

// UpdateLocation stores the latest location sample. A NaN heading is a
// sensor hiccup; the previous heading is retained.
func (s *Session) UpdateLocation(lon, lat, heading float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lon, s.lat = lon, lat
	if !math.IsNaN(heading) {
		s.heading = heading
	}
	s.hasLocation = true
}

// Location returns the latest sample. ok is false until the first sample
// arrives.
func (s *Session) Location() (lon, lat, heading float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lon, s.lat, s.heading, s.hasLocation
}
