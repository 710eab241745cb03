package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"uptimeguard/config"
	"uptimeguard/db"
	"uptimeguard/model"
	"uptimeguard/monitor"
	"uptimeguard/notification"
	"uptimeguard/pkg/logger"
	"uptimeguard/server"

	"go.uber.org/zap"
)

func main() {
	if err := config.LoadConfig("config.yaml"); err != nil {
		log.Fatalf("failed to load config.yaml: %v", err)
	}

	if err := logger.Init("info"); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	logger.Info("starting uptimeguard")

	repo, err := db.Init("uptimeguard.db")
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	registry := monitor.NewRegistry(monitor.Deps{
		DefaultTimeout: time.Duration(config.GlobalConfig.Monitor.DefaultTimeoutSeconds) * time.Second,
		PushTolerance:  config.GlobalConfig.Monitor.PushToleranceMultiplier,
		PushLastCheck: func(monitorID string) (*time.Time, bool, error) {
			m, err := repo.GetMonitor(monitorID)
			if err != nil || m == nil {
				return nil, false, err
			}
			return m.LastCheckAt, m.LastCheckAt != nil, nil
		},
	})

	dispatchers := map[model.ChannelType]notification.Dispatcher{
		model.ChannelTypeEmail:    notification.EmailDispatcher{},
		model.ChannelTypeWebhook:  notification.WebhookDispatcher{},
		model.ChannelTypeWeChat:   notification.WeChatDispatcher{},
		model.ChannelTypeDingTalk: notification.DingTalkDispatcher{},
		model.ChannelTypeWeCom:    notification.WeComDispatcher{},
	}
	engine := notification.NewEngine(repo, dispatchers)

	scheduler := monitor.NewScheduler(repo, registry, engine)
	if err := scheduler.ResetAll(); err != nil {
		logger.Fatal("failed to start monitors", zap.Error(err))
	}

	cleaner := db.NewCleaner(repo, config.GlobalConfig.Retention.HistoryDays, config.GlobalConfig.Cleaner.IntervalHours)
	cleaner.Start()

	reportScheduler := notification.NewReportScheduler(repo)
	if err := reportScheduler.Start(); err != nil {
		logger.Error("failed to start daily report scheduler", zap.Error(err))
	}

	srv := server.New(repo, scheduler, engine)

	port := 3001
	if config.GlobalConfig.Server.Port != 0 {
		port = config.GlobalConfig.Server.Port
	}
	httpSrv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("server listening", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	scheduler.Stop()
	cleaner.Stop()
	reportScheduler.Stop()
	db.Close()

	logger.Info("exited")
}
