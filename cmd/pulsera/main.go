package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsera/internal/config"
	httpapi "pulsera/internal/http"
	"pulsera/internal/logger"
	"pulsera/internal/models"
	"pulsera/internal/mqtt"
	"pulsera/internal/pulsenet"
	"pulsera/internal/repository"
	"pulsera/internal/service"
	"pulsera/internal/store"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "pulsera")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 健康读数缓存：优先 Redis，未启用/不可达时回退内存 KV
	var kv store.KV = store.NewMemoryKV()
	if cfg.RedisEnabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis enabled but unreachable, falling back to in-memory KV", zap.Error(err))
		} else {
			kv = store.NewRedisKV(redisClient)
			log.Info("Redis enabled for pulsera", zap.String("addr", cfg.Redis.Addr))
		}
	}

	alerts := store.NewAlertStore()
	devices := repository.NewDeviceRegistry()
	groups := repository.NewMemoryGroupsRepo()
	readings := store.NewReadingStore(kv, log)

	// 报警归档（可选）：DB 可用时落盘留痕并在启动时回放
	var archive service.AlertArchive
	if cfg.DBEnabled {
		db, err := sql.Open("postgres", cfg.Database.GetDSN())
		if err == nil {
			if cfg.Database.MaxConns > 0 {
				db.SetMaxOpenConns(cfg.Database.MaxConns)
			}
			if cfg.Database.MaxIdle > 0 {
				db.SetMaxIdleConns(cfg.Database.MaxIdle)
			}
			err = db.Ping()
		}
		if err != nil {
			log.Warn("DB enabled but connection failed, running memory-only", zap.Error(err))
		} else {
			archiveRepo := repository.NewAlertArchiveRepository(db, log)
			archive = archiveRepo
			log.Info("DB enabled for pulsera")

			// 回放归档，内存表恢复到上次的状态
			restored, err := archiveRepo.LoadAll(context.Background())
			if err != nil {
				log.Warn("Failed to replay alert archive", zap.Error(err))
			} else {
				for i := len(restored) - 1; i >= 0; i-- {
					a := restored[i]
					if err := alerts.Insert(a); err != nil {
						log.Warn("Skipping archived alert on replay",
							zap.String("alert_id", a.ID),
							zap.Error(err),
						)
						continue
					}
					devices.Upsert(models.Device{DeviceID: a.DeviceID, ZoneID: a.ZoneID})
				}
				log.Info("Alert archive replayed", zap.Int("count", len(restored)))
			}
		}
	}

	alertSvc := service.NewAlertService(alerts, devices, archive, log)
	pulseSvc := service.NewPulseService(alerts, devices, groups, readings)
	pulsenetClient := pulsenet.NewClient(cfg.PulseNet.BaseURL, log)
	authStore := httpapi.NewAuthStore()

	router := httpapi.NewRouter(log)
	router.RegisterAlertRoutes(httpapi.NewAlertHandler(alertSvc, log))
	router.RegisterCommunityRoutes(httpapi.NewCommunityHandler(pulseSvc, log))
	router.RegisterGroupRoutes(httpapi.NewGroupHandler(groups, pulseSvc, authStore, log))
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authStore, log))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(readings, authStore, log))
	router.RegisterPulseNetRoutes(httpapi.NewPulseNetHandler(pulsenetClient, log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MQTT 评分摄入（可选）
	if cfg.MQTT.Enabled {
		consumer, err := mqtt.NewScoreConsumer(&cfg.MQTT, alertSvc, log)
		if err != nil {
			log.Warn("MQTT enabled but broker unreachable, HTTP ingestion only", zap.Error(err))
		} else {
			defer consumer.Stop()
			if err := consumer.Start(ctx); err != nil {
				log.Warn("Failed to start MQTT score consumer", zap.Error(err))
			}
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		log.Error("HTTP server error", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server cleanly", zap.Error(err))
	}

	log.Info("pulsera stopped")
}
