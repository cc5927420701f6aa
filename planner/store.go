package planner

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"wander/kv"
	"wander/models"
)

const keyPrefix = "planner:journeys:"

// Store holds one user's fork collection. The whole collection round-trips
// through a single storage key: reads hydrate lazily on first access and
// stay cached for the life of the process, every mutation persists the full
// collection back synchronously.
type Store struct {
	userID string
	kv     kv.Store

	mu     sync.Mutex
	loaded bool
	forks  []*models.Journey
}

func NewStore(userID string, store kv.Store) *Store {
	return &Store{userID: userID, kv: store}
}

func (s *Store) key() string {
	return keyPrefix + s.userID
}

// load hydrates the cache from storage. Caller must hold s.mu.
func (s *Store) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	raw, err := s.kv.Get(ctx, s.key())
	if errors.Is(err, kv.ErrNotFound) {
		s.forks = nil
		s.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	var forks []*models.Journey
	if err := json.Unmarshal([]byte(raw), &forks); err != nil {
		log.Printf("[Planner] corrupt collection for %s, starting empty: %v", s.userID, err)
		forks = nil
	}
	s.forks = forks
	s.loaded = true
	return nil
}

// persist writes the whole collection back. Caller must hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.forks)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(), string(raw))
}

// List returns deep copies of every fork, newest first.
func (s *Store) List(ctx context.Context) ([]*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	out := make([]*models.Journey, len(s.forks))
	for i, f := range s.forks {
		out[i] = f.Clone()
	}
	return out, nil
}

// GetByID returns a deep copy of the matching fork, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	for _, f := range s.forks {
		if f.JourneyID == id {
			return f.Clone(), nil
		}
	}
	return nil, nil
}

// Add prepends a new fork and persists. An id collision is silently ignored;
// callers hand in freshly generated ids.
func (s *Store) Add(ctx context.Context, fork *models.Journey) error {
	if fork == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	for _, f := range s.forks {
		if f.JourneyID == fork.JourneyID {
			return nil
		}
	}
	s.forks = append([]*models.Journey{fork.Clone()}, s.forks...)
	return s.persist(ctx)
}

// Update applies mutate to the stored fork matching id and persists. The
// returned journey is a deep copy of the result, nil when the id is unknown.
func (s *Store) Update(ctx context.Context, id string, mutate func(*models.Journey)) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	for _, f := range s.forks {
		if f.JourneyID == id {
			mutate(f)
			if err := s.persist(ctx); err != nil {
				return nil, err
			}
			return f.Clone(), nil
		}
	}
	return nil, nil
}

// Remove deletes the fork and persists. Unknown ids are a no-op. The caller
// is responsible for clearing any live pointer referencing this id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	for i, f := range s.forks {
		if f.JourneyID == id {
			s.forks = append(s.forks[:i], s.forks[i+1:]...)
			return s.persist(ctx)
		}
	}
	return nil
}

// SourceIDs returns the set of source template ids that have at least one
// fork in the collection.
func (s *Store) SourceIDs(ctx context.Context) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(s.forks))
	for _, f := range s.forks {
		if f.SourceJourneyID != "" {
			ids[f.SourceJourneyID] = true
		}
	}
	return ids, nil
}
