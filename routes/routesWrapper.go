package routes

import (
	"wander/directions"
	"wander/journeyctx"
	"wander/journeys"
	"wander/nav"
	"wander/ratelim"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

func RoutesWrapper(router *httprouter.Router, rateLimiter *ratelim.RateLimiter,
	catalog *journeys.Catalog, manager *journeyctx.Manager,
	dir *directions.Client, hub *nav.Hub, rdxClient *redis.Client) {
	AddStaticRoutes(router)
	AddAuthRoutes(router, rateLimiter)
	AddProfileRoutes(router)
	AddJourneyRoutes(router, catalog, manager, rdxClient)
	AddPlannerRoutes(router, manager)
	AddNavRoutes(router, hub, manager, dir)
}
