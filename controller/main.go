package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"editorshell/logging"
	"editorshell/metrics"
	"editorshell/middleware"
)

// NewRouter builds the HTTP surface. The returned SSHController owns remote
// connections and must be closed on shutdown.
func NewRouter(deps *Deps) (*gin.Engine, *SSHController) {
	logger := logging.Named("http")

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.Recovery(logger), middleware.OriginGuard(deps.checkOrigin()))

	sshController := NewSSHController(deps)
	SetupRoutes(r, deps, sshController)
	return r, sshController
}

func SetupRoutes(r *gin.Engine, deps *Deps, sshController *SSHController) {
	r.GET("/ws", LocalSession(deps))
	r.GET("/files/download", LocalDownload)

	remote := r.Group("/remote")
	{
		remote.POST("/ssh", sshController.LoginSSH)
		remote.GET("/ssh/:id", sshController.StartSSHSession)
		remote.DELETE("/ssh/:id", sshController.LogoutSSH)
		remote.GET("/ssh/:id/download", sshController.Download)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": deps.Notifier.Count(),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
