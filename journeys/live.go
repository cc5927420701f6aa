package journeys

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wander/journeyctx"
	"wander/live"
	"wander/mq"
	"wander/utils"
)

func respondLiveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, live.ErrNotAFork):
		utils.RespondWithError(w, http.StatusBadRequest, "Only saved copies can go live")
	case errors.Is(err, live.ErrUnknownFork):
		utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
	case errors.Is(err, live.ErrAlreadyCompleted):
		utils.RespondWithError(w, http.StatusConflict, "Journey already completed")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating live journey")
	}
}

// POST /api/planner/journeys/:forkid/start
func StartJourney(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session := manager.Session(userID)

		journey, err := session.Start(r.Context(), ps.ByName("forkid"))
		if err != nil {
			respondLiveError(w, err)
			return
		}

		mq.Emit(r.Context(), "journey-started", mq.Event{
			EntityType: "journey",
			Method:     "POST",
			EntityID:   ps.ByName("forkid"),
			UserID:     userID,
		})

		utils.RespondWithJSON(w, http.StatusOK, utils.M{"journey": journey, "mode": session.Mode()})
	}
}

// POST /api/planner/journeys/:forkid/stop
func StopJourney(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session := manager.Session(userID)

		journey, err := session.Stop(r.Context(), ps.ByName("forkid"))
		if err != nil {
			respondLiveError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"journey": journey, "mode": session.Mode()})
	}
}

// POST /api/planner/journeys/:forkid/complete
func CompleteJourney(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session := manager.Session(userID)

		journey, err := session.Complete(r.Context(), ps.ByName("forkid"))
		if err != nil {
			respondLiveError(w, err)
			return
		}

		mq.Emit(r.Context(), "journey-completed", mq.Event{
			EntityType: "journey",
			Method:     "POST",
			EntityID:   ps.ByName("forkid"),
			UserID:     userID,
		})

		utils.RespondWithJSON(w, http.StatusOK, utils.M{"journey": journey, "mode": session.Mode()})
	}
}
