package live

import (
	"context"
	"errors"
	"log"
	"sync"

	"wander/kv"
	"wander/models"
	"wander/planner"
)

var (
	ErrNotAFork         = errors.New("live: journey is not a fork")
	ErrUnknownFork      = errors.New("live: fork not in planner collection")
	ErrAlreadyCompleted = errors.New("live: completed journey cannot go live")
)

const keyPrefix = "planner:live:"

// Store tracks which of a user's forks is LIVE. At most one fork may be LIVE
// at a time; promoting one demotes the previous holder back to PLANNED.
type Store struct {
	userID  string
	kv      kv.Store
	planner *planner.Store

	mu      sync.Mutex
	loaded  bool
	liveID  string
	subs    map[int]func(*models.Journey)
	nextSub int
}

func NewStore(userID string, store kv.Store, p *planner.Store) *Store {
	return &Store{userID: userID, kv: store, planner: p, subs: make(map[int]func(*models.Journey))}
}

func (s *Store) key() string {
	return keyPrefix + s.userID
}

// load hydrates the pointer from storage. Caller must hold s.mu.
func (s *Store) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	raw, err := s.kv.Get(ctx, s.key())
	if errors.Is(err, kv.ErrNotFound) {
		s.liveID = ""
		s.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	s.liveID = raw
	s.loaded = true
	return nil
}

// Subscribe registers fn to be called with the live fork, or nil, after every
// change of the pointer. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(*models.Journey)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(j *models.Journey) {
	s.mu.Lock()
	subs := make([]func(*models.Journey), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(j)
	}
}

// GetLive resolves the stored pointer against the planner collection. A
// pointer whose fork no longer exists is cleared on the spot and reported as
// no live journey.
func (s *Store) GetLive(ctx context.Context) (*models.Journey, error) {
	s.mu.Lock()
	fork, healed, err := s.getLiveLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if healed {
		s.notify(nil)
	}
	return fork, nil
}

func (s *Store) getLiveLocked(ctx context.Context) (*models.Journey, bool, error) {
	if err := s.load(ctx); err != nil {
		return nil, false, err
	}
	if s.liveID == "" {
		return nil, false, nil
	}
	fork, err := s.planner.GetByID(ctx, s.liveID)
	if err != nil {
		return nil, false, err
	}
	if fork != nil {
		return fork, false, nil
	}
	log.Printf("[Live] pointer %q no longer resolves for %s, clearing", s.liveID, s.userID)
	s.liveID = ""
	if err := s.kv.Del(ctx, s.key()); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

// IsLive reports whether the given fork id is the current live journey.
func (s *Store) IsLive(ctx context.Context, id string) (bool, error) {
	fork, err := s.GetLive(ctx)
	if err != nil {
		return false, err
	}
	return fork != nil && fork.JourneyID == id, nil
}

// SetLive promotes fork to LIVE. Only persisted, non-completed forks qualify;
// a previously live fork is demoted to PLANNED in the same operation.
func (s *Store) SetLive(ctx context.Context, fork *models.Journey) (*models.Journey, error) {
	if !models.IsFork(fork) {
		return nil, ErrNotAFork
	}

	s.mu.Lock()
	promoted, err := s.setLiveLocked(ctx, fork.JourneyID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.notify(promoted)
	return promoted, nil
}

func (s *Store) setLiveLocked(ctx context.Context, forkID string) (*models.Journey, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	stored, err := s.planner.GetByID(ctx, forkID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrUnknownFork
	}
	if stored.IsCompleted {
		return nil, ErrAlreadyCompleted
	}

	if s.liveID != "" && s.liveID != forkID {
		if _, err := s.planner.Update(ctx, s.liveID, func(j *models.Journey) {
			j.Status = models.StatusPlanned
		}); err != nil {
			return nil, err
		}
	}

	promoted, err := s.planner.Update(ctx, forkID, func(j *models.Journey) {
		j.Status = models.StatusLive
	})
	if err != nil {
		return nil, err
	}
	s.liveID = forkID
	if err := s.kv.Set(ctx, s.key(), forkID); err != nil {
		return nil, err
	}
	return promoted, nil
}

// ClearLive demotes the live fork back to PLANNED, unless it is completed,
// and clears the pointer.
func (s *Store) ClearLive(ctx context.Context) error {
	s.mu.Lock()
	changed, err := s.clearLiveLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		s.notify(nil)
	}
	return nil
}

func (s *Store) clearLiveLocked(ctx context.Context) (bool, error) {
	if err := s.load(ctx); err != nil {
		return false, err
	}
	if s.liveID == "" {
		return false, nil
	}
	id := s.liveID
	fork, err := s.planner.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if fork != nil && !fork.IsCompleted {
		if _, err := s.planner.Update(ctx, id, func(j *models.Journey) {
			j.Status = models.StatusPlanned
		}); err != nil {
			return false, err
		}
	}
	s.liveID = ""
	if err := s.kv.Del(ctx, s.key()); err != nil {
		return false, err
	}
	return true, nil
}
