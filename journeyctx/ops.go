package journeyctx

import (
	"context"
	"strings"

	"wander/live"
	"wander/models"
	"wander/utils"
)

// Every command below runs start-to-finish under s.mu, so per-user commands
// are serial and no caller observes a half-applied mutation. The planner and
// live stores are leaf locks; live subscribers run on the mutating goroutine
// and must hop to their own goroutine before touching the session again.

// mutateFork applies fn to the stored fork and refreshes the in-memory
// active reference when it points at the same fork. Unknown ids are a silent
// no-op, except that aiming a mutation at a catalog template is a
// programming error and trips the guard. Caller must hold s.mu.
func (s *Session) mutateFork(ctx context.Context, op, forkID string, fn func(*models.Journey)) (*models.Journey, error) {
	updated, err := s.planner.Update(ctx, forkID, fn)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		if src, err := s.catalog.GetByID(ctx, forkID); err == nil && src != nil {
			failGuard(op, "journey "+forkID+" is a source template")
		}
		return nil, nil
	}
	if s.active != nil && s.active.JourneyID == forkID {
		s.active = updated.Clone()
	}
	return updated, nil
}

// Preview sets the inspection reference to a sealed snapshot of the given
// source or fork. The active reference is untouched. Returns nil when the id
// resolves to nothing.
func (s *Session) Preview(ctx context.Context, id string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		target, err = s.planner.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if target == nil {
		return nil, nil
	}

	s.inspection = target.Clone().Seal()
	return cloneRef(s.inspection), nil
}

// ClearPreview drops the inspection reference.
func (s *Session) ClearPreview() {
	s.mu.Lock()
	s.inspection = nil
	s.mu.Unlock()
}

// Fork clones a source template into the planner collection and selects the
// new fork as the active journey. Returns nil when the template is unknown.
func (s *Session) Fork(ctx context.Context, sourceID string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, err := s.catalog.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, nil
	}

	fork := models.NewFork(source, s.userID)
	if err := s.planner.Add(ctx, fork); err != nil {
		return nil, err
	}
	s.active = fork.Clone()
	return fork, nil
}

// Start promotes the fork to LIVE and makes it the active journey. The live
// store's sentinel errors pass through untouched.
func (s *Session) Start(ctx context.Context, forkID string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fork, err := s.planner.GetByID(ctx, forkID)
	if err != nil {
		return nil, err
	}
	if fork == nil {
		if src, err := s.catalog.GetByID(ctx, forkID); err == nil && src != nil {
			return nil, live.ErrNotAFork
		}
		return nil, live.ErrUnknownFork
	}

	promoted, err := s.live.SetLive(ctx, fork)
	if err != nil {
		return nil, err
	}
	s.active = promoted.Clone()
	return promoted, nil
}

// Stop clears the live pointer if this fork holds it. The fork stays active,
// demoted back to planning.
func (s *Session) Stop(ctx context.Context, forkID string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isLive, err := s.live.IsLive(ctx, forkID)
	if err != nil {
		return nil, err
	}
	if isLive {
		if err := s.live.ClearLive(ctx); err != nil {
			return nil, err
		}
	}

	fork, err := s.planner.GetByID(ctx, forkID)
	if err != nil {
		return nil, err
	}
	if fork != nil && s.active != nil && s.active.JourneyID == forkID {
		s.active = fork.Clone()
	}
	return fork, nil
}

// Complete marks the fork finished. A completed fork cannot stay live, so
// the pointer is cleared when it references this fork.
func (s *Session) Complete(ctx context.Context, forkID string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completedAt := s.now()
	updated, err := s.mutateFork(ctx, "complete", forkID, func(j *models.Journey) {
		j.IsCompleted = true
		j.CompletedAt = &completedAt
	})
	if err != nil || updated == nil {
		return updated, err
	}

	isLive, err := s.live.IsLive(ctx, forkID)
	if err != nil {
		return updated, err
	}
	if isLive {
		if err := s.live.ClearLive(ctx); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// Remove deletes the fork from the planner collection, clearing the live
// pointer first when this fork holds it.
func (s *Session) Remove(ctx context.Context, forkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	isLive, err := s.live.IsLive(ctx, forkID)
	if err != nil {
		return err
	}
	if isLive {
		if err := s.live.ClearLive(ctx); err != nil {
			return err
		}
	}
	if err := s.planner.Remove(ctx, forkID); err != nil {
		return err
	}

	if s.active != nil && s.active.JourneyID == forkID {
		s.active = nil
	}
	for key := range s.lastToggle {
		if strings.HasPrefix(key, forkID+"/") {
			delete(s.lastToggle, key)
		}
	}
	return nil
}

// MarkStopVisited sets the stop's visited flag. Idempotent; this is what the
// arrival detector calls.
func (s *Session) MarkStopVisited(ctx context.Context, forkID, stopID string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateFork(ctx, "markStopVisited", forkID, func(j *models.Journey) {
		for i := range j.Stops {
			if j.Stops[i].StopID == stopID {
				j.Stops[i].Visited = true
				return
			}
		}
	})
}

// ToggleStopVisited flips the stop's visited flag. A second toggle of the
// same stop within the guard window is swallowed as a double trigger.
func (s *Session) ToggleStopVisited(ctx context.Context, forkID, stopID string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := forkID + "/" + stopID
	if last, ok := s.lastToggle[key]; ok && s.now().Sub(last) < toggleGuard {
		return s.planner.GetByID(ctx, forkID)
	}

	updated, err := s.mutateFork(ctx, "toggleStopVisited", forkID, func(j *models.Journey) {
		for i := range j.Stops {
			if j.Stops[i].StopID == stopID {
				j.Stops[i].Visited = !j.Stops[i].Visited
				return
			}
		}
	})
	if err == nil && updated != nil {
		s.lastToggle[key] = s.now()
	}
	return updated, err
}

// UpdateStopNote replaces the note on the given stop.
func (s *Session) UpdateStopNote(ctx context.Context, forkID, stopID, note string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateFork(ctx, "updateStopNote", forkID, func(j *models.Journey) {
		for i := range j.Stops {
			if j.Stops[i].StopID == stopID {
				j.Stops[i].Note = note
				return
			}
		}
	})
}

// RemoveStop deletes the stop from the fork's sequence.
func (s *Session) RemoveStop(ctx context.Context, forkID, stopID string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateFork(ctx, "removeStop", forkID, func(j *models.Journey) {
		for i := range j.Stops {
			if j.Stops[i].StopID == stopID {
				j.Stops = append(j.Stops[:i], j.Stops[i+1:]...)
				return
			}
		}
	})
}

// MoveStop swaps the stop with its neighbor. Direction is "up" or "down";
// pushing past either end is a no-op, not an error.
func (s *Session) MoveStop(ctx context.Context, forkID, stopID, direction string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateFork(ctx, "moveStop", forkID, func(j *models.Journey) {
		idx := -1
		for i := range j.Stops {
			if j.Stops[i].StopID == stopID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		target := idx
		switch direction {
		case "up":
			target = idx - 1
		case "down":
			target = idx + 1
		default:
			return
		}
		if target < 0 || target >= len(j.Stops) {
			return
		}
		j.Stops[idx], j.Stops[target] = j.Stops[target], j.Stops[idx]
	})
}

// Rename sets the fork's title.
func (s *Session) Rename(ctx context.Context, forkID, title string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateFork(ctx, "rename", forkID, func(j *models.Journey) {
		j.Title = title
	})
}

// UpdateCoverImage overrides the fork's cover independently of its source.
func (s *Session) UpdateCoverImage(ctx context.Context, forkID, url string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateFork(ctx, "updateCoverImage", forkID, func(j *models.Journey) {
		j.CoverImageURL = url
	})
}

// AddMoment appends a captured moment to the fork. Returns the stored moment
// with its assigned id, nil when the fork is unknown.
func (s *Session) AddMoment(ctx context.Context, forkID string, m models.Moment) (*models.Moment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.MomentID == "" {
		m.MomentID = utils.GenerateID(14)
	}
	updated, err := s.mutateFork(ctx, "addMoment", forkID, func(j *models.Journey) {
		j.Moments = append(j.Moments, m)
	})
	if err != nil || updated == nil {
		return nil, err
	}
	stored := updated.Moments[len(updated.Moments)-1]
	return &stored, nil
}
