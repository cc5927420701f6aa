package nav

import (
	"log"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"wander/directions"
	"wander/journeyctx"
	"wander/models"
	"wander/utils"
)

// GetRoute returns the walking route connecting a fork's stops in order.
// Lookup failures degrade to a null route so the client falls back to
// straight polylines.
func GetRoute(manager *journeyctx.Manager, dir *directions.Client) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session := manager.Session(userID)

		fork, err := session.Planner().GetByID(r.Context(), ps.ByName("forkid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load journey")
			return
		}
		if fork == nil {
			utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
			return
		}

		points := make([]models.Coordinates, len(fork.Stops))
		for i, s := range fork.Stops {
			points[i] = s.Coordinates
		}
		route, err := dir.Route(r.Context(), points)
		if err != nil {
			log.Println("[Nav] route lookup failed:", err)
			utils.RespondWithJSON(w, http.StatusOK, nil)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, route)
	}
}

// SearchPlaces geocodes a free-text query into place suggestions. Failures
// degrade to an empty list.
func SearchPlaces(dir *directions.Client) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		query := r.URL.Query().Get("q")
		limit := 5
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 20 {
				limit = n
			}
		}
		places, err := dir.Geocode(r.Context(), query, limit)
		if err != nil {
			log.Println("[Nav] geocode failed:", err)
			places = nil
		}
		if places == nil {
			places = []directions.Place{}
		}
		utils.RespondWithJSON(w, http.StatusOK, places)
	}
}
