package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz reports liveness unconditionally: the process is up and serving.
func (ctrl *Controller) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports readiness by checking the database connection the
// ingestion pipeline depends on for every write.
func (ctrl *Controller) Readyz(c *gin.Context) {
	if err := ctrl.Repository.Ping(); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Health] Readiness check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
