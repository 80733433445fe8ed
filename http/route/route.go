package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/OrcaBus/service-filemanager/http/controller"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", ctrl.Healthz)
	r.GET("/readyz", ctrl.Readyz)

	return r
}
