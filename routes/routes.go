package routes

import (
	"net/http"

	"wander/activity"
	"wander/auth"
	"wander/directions"
	"wander/export"
	"wander/journeyctx"
	"wander/journeys"
	"wander/middleware"
	"wander/moments"
	"wander/nav"
	"wander/profile"
	"wander/ratelim"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/momentpic/*filepath", http.Dir("static/momentpic"))
	router.ServeFiles("/static/userpic/*filepath", http.Dir("static/userpic"))
	router.ServeFiles("/static/journeypic/*filepath", http.Dir("static/journeypic"))
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
	router.POST("/api/auth/token/refresh", rl.Limit(auth.RefreshToken))
}

func AddProfileRoutes(router *httprouter.Router) {
	router.GET("/api/profile", middleware.Authenticate(profile.GetProfile))
	router.PUT("/api/profile", middleware.Authenticate(profile.UpdateProfile))
	router.PUT("/api/profile/avatar", middleware.Authenticate(profile.UploadAvatar))
	router.GET("/api/activity", middleware.Authenticate(activity.GetActivityFeed))
}

// AddJourneyRoutes exposes the curated template catalog. Listing and reading
// are public; authenticated users additionally get saved-badge info.
func AddJourneyRoutes(router *httprouter.Router, catalog *journeys.Catalog, manager *journeyctx.Manager, rdxClient *redis.Client) {
	router.GET("/api/journeys", middleware.OptionalAuth(journeys.GetJourneys(catalog, manager)))
	router.GET("/api/journeys/all/:journeyid", journeys.GetJourney(catalog))
	router.GET("/api/journeys/search", journeys.SearchJourneys(catalog))
	router.GET("/api/journeys/autocomplete", journeys.AutocompleteJourneys(rdxClient))
	router.POST("/api/journeys", middleware.Authenticate(journeys.CreateJourney(catalog, rdxClient)))
}

// AddPlannerRoutes exposes the user-owned fork collection and the command
// surface operating on it. Everything here requires auth.
func AddPlannerRoutes(router *httprouter.Router, manager *journeyctx.Manager) {
	router.GET("/api/planner/journeys", middleware.Authenticate(journeys.GetPlannerJourneys(manager)))
	router.GET("/api/planner/journeys/:forkid", middleware.Authenticate(journeys.GetPlannerJourney(manager)))
	router.DELETE("/api/planner/journeys/:forkid", middleware.Authenticate(journeys.RemoveFork(manager)))

	router.POST("/api/planner/fork/:journeyid", middleware.Authenticate(journeys.ForkJourney(manager)))

	router.POST("/api/planner/journeys/:forkid/start", middleware.Authenticate(journeys.StartJourney(manager)))
	router.POST("/api/planner/journeys/:forkid/stop", middleware.Authenticate(journeys.StopJourney(manager)))
	router.POST("/api/planner/journeys/:forkid/complete", middleware.Authenticate(journeys.CompleteJourney(manager)))

	router.POST("/api/planner/journeys/:forkid/stops/:stopid/visited", middleware.Authenticate(journeys.ToggleStopVisited(manager)))
	router.PUT("/api/planner/journeys/:forkid/stops/:stopid/note", middleware.Authenticate(journeys.UpdateStopNote(manager)))
	router.POST("/api/planner/journeys/:forkid/stops/:stopid/move", middleware.Authenticate(journeys.MoveStop(manager)))
	router.DELETE("/api/planner/journeys/:forkid/stops/:stopid", middleware.Authenticate(journeys.RemoveStop(manager)))

	router.PUT("/api/planner/journeys/:forkid/title", middleware.Authenticate(journeys.RenameFork(manager)))
	router.PUT("/api/planner/journeys/:forkid/cover", middleware.Authenticate(journeys.UpdateForkCover(manager)))
	router.POST("/api/planner/journeys/:forkid/moments", middleware.Authenticate(moments.AddMoment(manager)))

	router.GET("/api/planner/journeys/:forkid/print", middleware.Authenticate(export.PrintJourney(manager)))
	router.GET("/api/planner/journeys/:forkid/share", middleware.Authenticate(export.ShareQR(manager)))

	router.POST("/api/planner/preview/:id", middleware.Authenticate(journeys.PreviewJourney(manager)))
	router.DELETE("/api/planner/preview", middleware.Authenticate(journeys.ClearPreview(manager)))
	router.GET("/api/planner/context", middleware.Authenticate(journeys.PlannerContext(manager)))
}

func AddNavRoutes(router *httprouter.Router, hub *nav.Hub, manager *journeyctx.Manager, dir *directions.Client) {
	router.GET("/api/nav/route/:forkid", middleware.Authenticate(nav.GetRoute(manager, dir)))
	router.GET("/api/geo/search", nav.SearchPlaces(dir))
	router.GET("/ws/nav", middleware.Authenticate(nav.WebSocketHandler(hub, manager, dir)))
}
