package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osvaldoandrade/tldw/internal/controllers"
	"github.com/osvaldoandrade/tldw/internal/middleware"
	"github.com/osvaldoandrade/tldw/pkg/config"
)

func SetupMappings(app *Application) {
	rpc := app.Engine.Group("/a2a")
	if app.Config.AuthMode != "" && app.Config.AuthMode != config.AuthModeNone {
		rpc.Use(middleware.BearerAuthMiddleware(app.Config))
	}
	rpc.POST("/summarize", controllers.NewRPCController(app.Pipeline).Handle)

	app.Engine.GET("/health", controllers.NewHealthController().Handle)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	app.Engine.GET("/.well-known/agent.json", controllers.NewAgentCardController(app.Card).Handle)
}
