package globals

import (
	"context"
	"os"
)

var JwtSecret = []byte(envOr("JWT_SECRET", "wander_dev_secret"))

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"

var Ctx = context.Background()

// Env is the deployment environment; anything other than "production"
// counts as development and makes invariant violations fail loudly.
var Env = envOr("WANDER_ENV", "development")

func IsProduction() bool {
	return Env == "production"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
