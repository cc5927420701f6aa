package journeys

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"

	"wander/journeyctx"
	"wander/models"
	"wander/utils"
)

// GET /api/journeys
// Public. When the request carries a user, each journey the user already
// forked is flagged through the saved map.
func GetJourneys(catalog journeyctx.Catalog, manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		list, err := catalog.List(r.Context())
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching journeys")
			return
		}

		saved := map[string]bool{}
		if userID := utils.GetUserIDFromRequest(r); userID != "" {
			ids, err := manager.Session(userID).SavedIDs(r.Context())
			if err == nil {
				saved = ids
			}
		}

		utils.RespondWithJSON(w, http.StatusOK, utils.M{"journeys": list, "saved": saved})
	}
}

// GET /api/journeys/:journeyid
func GetJourney(catalog journeyctx.Catalog) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		journey, err := catalog.GetByID(r.Context(), ps.ByName("journeyid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching journey")
			return
		}
		if journey == nil {
			utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, journey)
	}
}

// GET /api/journeys/search
func SearchJourneys(catalog *Catalog) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		list, err := catalog.Search(r.Context(), r.URL.Query())
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error searching journeys")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, list)
	}
}

// POST /api/journeys
func CreateJourney(catalog *Catalog, rdxClient *redis.Client) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var journey models.Journey
		if err := json.NewDecoder(r.Body).Decode(&journey); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if journey.Title == "" || len(journey.Stops) == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Title and at least one stop are required")
			return
		}

		journey.JourneyID = utils.GenerateID(13)
		journey.SourceJourneyID = ""
		journey.UserID = userID
		journey.IsCompleted = false
		journey.Status = ""
		for i := range journey.Stops {
			if journey.Stops[i].StopID == "" {
				journey.Stops[i].StopID = utils.GenerateID(8)
			}
			journey.Stops[i].Visited = false
			journey.Stops[i].Note = ""
		}

		if err := catalog.Create(r.Context(), &journey); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error creating journey")
			return
		}

		if err := AddJourneyToAutocomplete(rdxClient, journey.JourneyID, journey.Title); err != nil {
			log.Println("[Journeys] autocomplete index:", err)
		}

		utils.RespondWithJSON(w, http.StatusCreated, journey)
	}
}

// GET /api/journeys/autocomplete?q=
func AutocompleteJourneys(rdxClient *redis.Client) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		q := r.URL.Query().Get("q")
		limit := int64(10)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= 25 {
				limit = n
			}
		}
		suggestions, err := SearchJourneyAutocomplete(rdxClient, q, limit)
		if err != nil {
			log.Println("[Journeys] autocomplete search:", err)
			suggestions = []map[string]string{}
		}
		utils.RespondWithJSON(w, http.StatusOK, suggestions)
	}
}
