package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/server/auth"
)

const identityContextKey = "auth_identity"

// authMiddleware validates the bearer token and stores the verified identity
// in the request context. Handlers must take the user id from here, never
// from the request body.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeader)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		id, err := auth.ParseToken(strings.TrimSpace(header[len(common.BearerPrefix):]), s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(identityContextKey, id)
		c.Next()
	}
}

// identityFromContext retrieves the identity stored by authMiddleware.
func identityFromContext(c *gin.Context) (*auth.Identity, bool) {
	val, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	id, ok := val.(*auth.Identity)
	return id, ok
}
