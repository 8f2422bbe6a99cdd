package public

import (
	handlershared "github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

func currentActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.MustActor(c)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseIDParam(c, name)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}
