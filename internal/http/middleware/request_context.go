package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cloudsim-backend/internal/platform/ctxutil"
)

// AttachRequestContext gives each request a GameData slot that handlers fill
// once the game id is known.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithGameData(c.Request.Context())
		if id := c.Param("gameId"); id != "" {
			ctxutil.GetGameData(ctx).GameID = id
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
