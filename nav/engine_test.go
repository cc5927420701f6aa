package nav

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wander/journeyctx"
	"wander/kv"
	"wander/models"
)

type memCatalog struct {
	sources []*models.Journey
}

func (c *memCatalog) List(ctx context.Context) ([]*models.Journey, error) {
	out := make([]*models.Journey, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.Clone()
	}
	return out, nil
}

func (c *memCatalog) GetByID(ctx context.Context, id string) (*models.Journey, error) {
	for _, s := range c.sources {
		if s.JourneyID == id {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

// Two stops 1.8km apart on the same parallel. The first stop has a moment
// right next to it; the second has none within the surfacing radius.
func trailSource() *models.Journey {
	return &models.Journey{
		JourneyID: "castle-trail",
		Title:     "Castle Trail",
		Stops: []models.Stop{
			{StopID: "s1", Name: "Old Gate", Coordinates: models.Coordinates{135.0, 35.0}, ImageURL: "/static/journeypic/gate.jpg"},
			{StopID: "s2", Name: "Keep", Coordinates: models.Coordinates{135.02, 35.0}, ImageURL: "/static/journeypic/keep.jpg"},
		},
		Moments: []models.Moment{
			{MomentID: "m1", Coordinates: models.Coordinates{135.0004, 35.0}, ImageURL: "/static/momentpic/m1.jpg", Caption: "Lanterns"},
		},
	}
}

type eventLog struct {
	events []Event
}

func (l *eventLog) emit(ev Event) {
	l.events = append(l.events, ev)
}

func (l *eventLog) ofType(typ string) []Event {
	var out []Event
	for _, ev := range l.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func newNavigatingEngine(t *testing.T) (context.Context, *journeyctx.Session, *Engine, *eventLog, string) {
	t.Helper()
	ctx := context.Background()
	catalog := &memCatalog{sources: []*models.Journey{trailSource()}}
	session := journeyctx.NewSession("u1", kv.NewMemoryStore(), catalog)

	fork, err := session.Fork(ctx, "castle-trail")
	require.NoError(t, err)
	_, err = session.Start(ctx, fork.JourneyID)
	require.NoError(t, err)
	require.Equal(t, models.ModeNavigation, session.Mode())

	log := &eventLog{}
	engine := NewEngine(session, log.emit)
	return ctx, session, engine, log, fork.JourneyID
}

func TestStationarySamplesArriveOnce(t *testing.T) {
	ctx, session, engine, log, forkID := newNavigatingEngine(t)

	// ~11m from the first stop, sampled ten times in a row.
	for i := 0; i < 10; i++ {
		engine.HandleLocation(ctx, 135.0, 35.0001, 90)
	}

	arrivals := log.ofType("arrival")
	require.Len(t, arrivals, 1)
	require.Equal(t, "s1", arrivals[0].StopID)
	require.Equal(t, "Old Gate", arrivals[0].StopName)
	require.True(t, arrivals[0].Haptic)

	fork, err := session.Planner().GetByID(ctx, forkID)
	require.NoError(t, err)
	require.True(t, fork.Stops[0].Visited)
	require.False(t, fork.Stops[1].Visited)
}

func TestFarSampleDoesNotArrive(t *testing.T) {
	ctx, _, engine, log, _ := newNavigatingEngine(t)

	// ~100m out, beyond the arrival threshold.
	engine.HandleLocation(ctx, 135.0, 35.0009, 0)

	require.Empty(t, log.ofType("arrival"))
}

func TestVisitedStopStaysQuietAfterReset(t *testing.T) {
	ctx, _, engine, log, _ := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.0, 35.0001, 0)
	require.Len(t, log.ofType("arrival"), 1)

	engine.Reset()
	engine.HandleLocation(ctx, 135.0, 35.0001, 0)

	require.Len(t, log.ofType("arrival"), 1)
}

func TestWalkingTheTrailArrivesAtEachStop(t *testing.T) {
	ctx, _, engine, log, _ := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.0, 35.0001, 0)
	engine.HandleLocation(ctx, 135.01, 35.0, 0) // between stops
	engine.HandleLocation(ctx, 135.02, 35.0001, 0)

	arrivals := log.ofType("arrival")
	require.Len(t, arrivals, 2)
	require.Equal(t, "s1", arrivals[0].StopID)
	require.Equal(t, "s2", arrivals[1].StopID)
}

func TestReturningToVisitedStopDoesNotRefire(t *testing.T) {
	ctx, _, engine, log, _ := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.0, 35.0001, 0)
	engine.HandleLocation(ctx, 135.02, 35.0001, 0)
	engine.HandleLocation(ctx, 135.0, 35.0001, 0) // back to the first stop

	require.Len(t, log.ofType("arrival"), 2)
}

func TestUnvisitedStopCanArriveAgain(t *testing.T) {
	ctx, session, engine, log, forkID := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.0, 35.0001, 0)
	engine.HandleLocation(ctx, 135.02, 35.0001, 0)

	// The user explicitly unchecks the first stop, then walks back.
	_, err := session.ToggleStopVisited(ctx, forkID, "s1")
	require.NoError(t, err)
	engine.HandleLocation(ctx, 135.0, 35.0001, 0)

	arrivals := log.ofType("arrival")
	require.Len(t, arrivals, 3)
	require.Equal(t, "s1", arrivals[2].StopID)
}

func TestArrivalSurfacesNearbyMoments(t *testing.T) {
	ctx, _, engine, log, _ := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.0, 35.0001, 0)

	arrivals := log.ofType("arrival")
	require.Len(t, arrivals, 1)
	require.Len(t, arrivals[0].Moments, 1)
	require.Equal(t, "m1", arrivals[0].Moments[0].MomentID)
}

func TestArrivalSynthesizesMomentWhenNoneNearby(t *testing.T) {
	ctx, session, engine, log, forkID := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.02, 35.0001, 0)

	arrivals := log.ofType("arrival")
	require.Len(t, arrivals, 1)
	require.Len(t, arrivals[0].Moments, 1)
	synth := arrivals[0].Moments[0]
	require.Equal(t, "arrival-s2", synth.MomentID)
	require.Equal(t, "Keep", synth.Caption)
	require.Equal(t, "/static/journeypic/keep.jpg", synth.ImageURL)

	// Synthesized moments are display-only.
	fork, err := session.Planner().GetByID(ctx, forkID)
	require.NoError(t, err)
	require.Len(t, fork.Moments, 1)
}

func TestRecenterSuppressedNearLastTarget(t *testing.T) {
	ctx, _, engine, log, _ := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.0, 35.0001, 45)
	engine.HandleLocation(ctx, 135.0, 35.00012, 45) // ~2m drift
	engine.HandleLocation(ctx, 135.0, 35.0002, 45)  // ~11m move

	recenters := log.ofType("recenter")
	require.Len(t, recenters, 2)
	require.NotNil(t, recenters[0].Coordinates)
	require.InDelta(t, 35.0001, recenters[0].Coordinates.Lat(), 1e-9)
	require.InDelta(t, 45.0, recenters[0].Heading, 1e-9)
}

func TestDormantOutsideNavigation(t *testing.T) {
	ctx := context.Background()
	catalog := &memCatalog{sources: []*models.Journey{trailSource()}}
	session := journeyctx.NewSession("u1", kv.NewMemoryStore(), catalog)
	fork, err := session.Fork(ctx, "castle-trail")
	require.NoError(t, err)
	require.Equal(t, models.ModePlanning, session.Mode())

	log := &eventLog{}
	engine := NewEngine(session, log.emit)

	engine.HandleLocation(ctx, 135.0, 35.0001, 30)

	require.Empty(t, log.events)

	// The sample itself is still recorded for when navigation starts.
	lon, lat, heading, ok := session.Location()
	require.True(t, ok)
	require.Equal(t, 135.0, lon)
	require.Equal(t, 35.0001, lat)
	require.Equal(t, 30.0, heading)

	stored, err := session.Planner().GetByID(ctx, fork.JourneyID)
	require.NoError(t, err)
	require.False(t, stored.Stops[0].Visited)
}

func TestFocusDebounceDropsDoubleTrigger(t *testing.T) {
	_, _, engine, log, _ := newNavigatingEngine(t)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return current }

	engine.HandleFocus("s2")
	current = current.Add(60 * time.Millisecond)
	engine.HandleFocus("s2")
	current = current.Add(200 * time.Millisecond)
	engine.HandleFocus("s1")

	focuses := log.ofType("focus")
	require.Len(t, focuses, 2)
	require.Equal(t, "s2", focuses[0].StopID)
	require.NotNil(t, focuses[0].Coordinates)
	require.Equal(t, 135.02, focuses[0].Coordinates.Lng())
	require.Equal(t, "s1", focuses[1].StopID)
}

func TestFocusUnknownStopEmitsNothing(t *testing.T) {
	_, _, engine, log, _ := newNavigatingEngine(t)

	engine.HandleFocus("nope")

	require.Empty(t, log.ofType("focus"))
}

func TestNaNHeadingKeepsPrevious(t *testing.T) {
	ctx, session, engine, _, _ := newNavigatingEngine(t)

	engine.HandleLocation(ctx, 135.0, 35.0001, 270)
	engine.HandleLocation(ctx, 135.0, 35.0002, math.NaN())

	_, _, heading, ok := session.Location()
	require.True(t, ok)
	require.Equal(t, 270.0, heading)
}
