package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/babupakkakivellu/File-To-Link/internal/cache"
	"github.com/babupakkakivellu/File-To-Link/internal/commands"
	"github.com/babupakkakivellu/File-To-Link/internal/routes"
	"github.com/babupakkakivellu/File-To-Link/internal/streamer"
	"github.com/babupakkakivellu/File-To-Link/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot with the given configuration.",
	Run:   runApp,
}

const (
	keepAliveInterval = 20 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

func runApp(cmd *cobra.Command, args []string) {
	// Bootstrap logging with defaults so config loading itself is logged,
	// then re-initialize once the real settings are known.
	utils.InitLogger(false, "info")
	log := utils.Logger
	config.Load(log, cmd)
	utils.InitLogger(config.ValueOf.Dev, config.ValueOf.LogLevel)
	log = utils.Logger
	mainLogger := log.Named("Main")
	mainLogger.Info(versionString)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mainBot, err := bot.StartClient(log)
	if err != nil {
		mainLogger.Fatal("Failed to start main bot", zap.Error(err))
	}
	cache.InitCache(log)
	commands.Load(log, mainBot)

	workers, err := bot.StartWorkers(log)
	if err != nil {
		mainLogger.Fatal("Failed to start workers", zap.Error(err))
	}
	// The primary joins the pool last so worker indices stay stable, but
	// it must be registered before the HTTP server accepts requests.
	workers.AddDefaultClient(mainBot, mainBot.Self)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.ValueOf.Port),
		Handler: getRouter(log),
	}
	go func() {
		mainLogger.Sugar().Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go keepAlive(ctx, log)

	mainLogger.Sugar().Infof("Download links will use %s", config.ValueOf.BaseURL)

	<-ctx.Done()
	mainLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	cache.GetCache().Stop()
	streamer.CloseAll()
	for _, worker := range bot.Workers.Bots {
		worker.Client.Stop()
	}
	mainLogger.Info("Stopped")
}

func getRouter(log *zap.Logger) *gin.Engine {
	if config.ValueOf.Dev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// gin's own request log is noise above info level.
	var router *gin.Engine
	if config.ValueOf.LogLevel == "error" || config.ValueOf.LogLevel == "warn" {
		router = gin.New()
		router.Use(gin.Recovery())
		router.Use(gin.ErrorLogger())
	} else {
		router = gin.Default()
		router.Use(gin.ErrorLogger())
	}

	routes.Load(log, router)
	return router
}

// keepAlive pings the public URL on an interval so free-tier hosts that
// idle out HTTP services keep the process warm. Only runs when BASE_URL
// points somewhere routable.
func keepAlive(ctx context.Context, log *zap.Logger) {
	if config.ValueOf.BaseURL == "" || config.ValueOf.BaseURL == fmt.Sprintf("http://localhost:%d", config.ValueOf.Port) {
		return
	}
	log = log.Named("KeepAlive")
	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.ValueOf.BaseURL, nil)
			if err != nil {
				log.Debug("Failed to build ping request", zap.Error(err))
				continue
			}
			res, err := client.Do(req)
			if err != nil {
				log.Debug("Ping failed", zap.Error(err))
				continue
			}
			res.Body.Close()
			log.Debug("Ping", zap.Int("status", res.StatusCode))
		}
	}
}
