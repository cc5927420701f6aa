package journeys

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wander/journeyctx"
	"wander/mq"
	"wander/utils"
)

// POST /api/planner/fork/:journeyid
func ForkJourney(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		fork, err := manager.Session(userID).Fork(r.Context(), ps.ByName("journeyid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error forking journey")
			return
		}
		if fork == nil {
			utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
			return
		}

		mq.Emit(r.Context(), "journey-forked", mq.Event{
			EntityType: "journey",
			Method:     "POST",
			EntityID:   fork.JourneyID,
			UserID:     userID,
			ItemID:     fork.SourceJourneyID,
		})

		utils.RespondWithJSON(w, http.StatusCreated, fork)
	}
}

// GET /api/planner/journeys
func GetPlannerJourneys(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		forks, err := manager.Session(userID).PlannerJourneys(r.Context())
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching planner")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, forks)
	}
}

// GET /api/planner/journeys/:forkid
func GetPlannerJourney(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		fork, err := manager.Session(userID).Planner().GetByID(r.Context(), ps.ByName("forkid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching journey")
			return
		}
		if fork == nil {
			utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, fork)
	}
}

// DELETE /api/planner/journeys/:forkid
func RemoveFork(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := manager.Session(userID).Remove(r.Context(), ps.ByName("forkid")); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error removing journey")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Journey removed"})
	}
}

// POST /api/planner/preview/:id
func PreviewJourney(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session := manager.Session(userID)

		snapshot, err := session.Preview(r.Context(), ps.ByName("id"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error loading preview")
			return
		}
		if snapshot == nil {
			utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"journey": snapshot, "mode": session.Mode()})
	}
}

// DELETE /api/planner/preview
func ClearPreview(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session := manager.Session(userID)
		session.ClearPreview()
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"mode": session.Mode()})
	}
}

// GET /api/planner/context
// One round trip for everything the planner screen needs.
func PlannerContext(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session := manager.Session(userID)

		saved, err := session.SavedIDs(r.Context())
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error loading planner context")
			return
		}

		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"active":     session.ActiveJourney(),
			"inspection": session.InspectionJourney(),
			"current":    session.CurrentJourney(),
			"mode":       session.Mode(),
			"saved":      saved,
		})
	}
}

// POST /api/planner/journeys/:forkid/stops/:stopid/visited
func ToggleStopVisited(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		updated, err := manager.Session(userID).ToggleStopVisited(r.Context(), ps.ByName("forkid"), ps.ByName("stopid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error updating stop")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, updated)
	}
}

// PUT /api/planner/journeys/:forkid/stops/:stopid/note
func UpdateStopNote(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var body struct {
			Note string `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}

		updated, err := manager.Session(userID).UpdateStopNote(r.Context(), ps.ByName("forkid"), ps.ByName("stopid"), body.Note)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error updating note")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, updated)
	}
}

// POST /api/planner/journeys/:forkid/stops/:stopid/move
func MoveStop(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var body struct {
			Direction string `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if body.Direction != "up" && body.Direction != "down" {
			utils.RespondWithError(w, http.StatusBadRequest, "Direction must be up or down")
			return
		}

		updated, err := manager.Session(userID).MoveStop(r.Context(), ps.ByName("forkid"), ps.ByName("stopid"), body.Direction)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error moving stop")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, updated)
	}
}

// DELETE /api/planner/journeys/:forkid/stops/:stopid
func RemoveStop(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		updated, err := manager.Session(userID).RemoveStop(r.Context(), ps.ByName("forkid"), ps.ByName("stopid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error removing stop")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, updated)
	}
}

// PUT /api/planner/journeys/:forkid/title
func RenameFork(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var body struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if body.Title == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "Title is required")
			return
		}

		updated, err := manager.Session(userID).Rename(r.Context(), ps.ByName("forkid"), body.Title)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error renaming journey")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, updated)
	}
}

// PUT /api/planner/journeys/:forkid/cover
func UpdateForkCover(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var body struct {
			CoverImageURL string `json:"coverImageUrl"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}

		updated, err := manager.Session(userID).UpdateCoverImage(r.Context(), ps.ByName("forkid"), body.CoverImageURL)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error updating cover")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, updated)
	}
}
