package middleware

import "github.com/gin-gonic/gin"

// actorIDKey is the key used to store the acting user's ID in the context.
const actorIDKey = contextKey("actorID")

// saccoIDKey is the key used to store the tenant (SACCO) ID in the context.
const saccoIDKey = contextKey("saccoID")

// ActorContextMiddleware lifts the authenticated actor and SACCO from
// request headers into the context. Authentication itself happens upstream;
// the engine only needs the identifiers for audit fields and tenancy checks.
func ActorContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorID := c.GetHeader("X-Actor-ID"); actorID != "" {
			c.Set(string(actorIDKey), actorID)
		}
		if saccoID := c.GetHeader("X-Sacco-ID"); saccoID != "" {
			c.Set(string(saccoIDKey), saccoID)
		}
		c.Next()
	}
}

// GetActorIDFromContext retrieves the acting user ID from the Gin context.
func GetActorIDFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(string(actorIDKey))
	if !exists {
		return "", false
	}
	actorID, ok := v.(string)
	return actorID, ok && actorID != ""
}

// GetSaccoIDFromContext retrieves the SACCO ID from the Gin context.
func GetSaccoIDFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(string(saccoIDKey))
	if !exists {
		return "", false
	}
	saccoID, ok := v.(string)
	return saccoID, ok && saccoID != ""
}
