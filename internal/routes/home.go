package routes

import (
	"net/http"

	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/babupakkakivellu/File-To-Link/internal/types"
	"github.com/gin-gonic/gin"
)

func (e *allRoutes) LoadHome(r *gin.Engine) {
	defer e.log.Sugar().Info("Loaded home route")
	r.GET("/", getHomeRoute)
}

func getHomeRoute(ctx *gin.Context) {
	botUsername := ""
	if worker := bot.GetDefaultWorker(); worker != nil {
		botUsername = "@" + worker.Self.Username
	}
	ctx.JSON(http.StatusOK, types.RootResponse{
		Status:  "ok",
		Bot:     botUsername,
		Version: config.Version,
		Endpoints: types.RootEndpoints{
			Download: "/dl/:token/:filename",
		},
	})
}
