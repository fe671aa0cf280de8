package routes

import (
	"net/http"
	"time"

	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/babupakkakivellu/File-To-Link/internal/utils"
	"github.com/gin-gonic/gin"
)

type workerStatus struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	ActiveStreams  int32  `json:"active_streams"`
	TotalRequests  int64  `json:"total_requests"`
	FailedRequests int64  `json:"failed_requests"`
	Uptime         string `json:"uptime"`
}

type statusResponse struct {
	Status  string         `json:"status"`
	Workers []workerStatus `json:"workers"`
}

func (e *allRoutes) LoadStatus(r *gin.Engine) {
	defer e.log.Sugar().Info("Loaded status route")
	r.GET("/status", getStatusRoute)
}

func getStatusRoute(ctx *gin.Context) {
	workers := make([]workerStatus, 0, len(bot.Workers.Bots))
	for _, worker := range bot.Workers.Bots {
		workers = append(workers, workerStatus{
			ID:             worker.ID,
			Username:       "@" + worker.Self.Username,
			ActiveStreams:  worker.Load(),
			TotalRequests:  worker.TotalRequests(),
			FailedRequests: worker.FailedRequests(),
			Uptime:         utils.TimeFormat(uint64(time.Since(worker.StartTime()).Seconds())),
		})
	}
	ctx.JSON(http.StatusOK, statusResponse{
		Status:  "ok",
		Workers: workers,
	})
}
