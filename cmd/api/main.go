package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"user-account-service/internal/core/cache"
	"user-account-service/internal/core/config"
	"user-account-service/internal/core/database"
	"user-account-service/internal/core/i18n"
	"user-account-service/internal/core/logger"
	"user-account-service/internal/core/server"
	"user-account-service/internal/domain"
	"user-account-service/internal/repo"
	"user-account-service/internal/service"
	"user-account-service/internal/transport/http/handler"
	"user-account-service/internal/transport/http/router"
	"user-account-service/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad("")

	log, cleanup := newLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("register validators", zap.Error(err))
	}

	checks := map[string]router.Check{}

	// 存储
	var store domain.UserRepository
	if cfg.DB.Driver == "memory" {
		store = repo.NewMemoryUserRepo()
		log.Warn("using in-memory user store, data is lost on restart")
	} else {
		db := mustOpenDB(cfg, log)
		defer func() { _ = database.Close(db) }()
		log.Info("database connected", zap.String("driver", cfg.DB.Driver))

		if cfg.DB.AutoMigrate {
			if err := repo.Migrate(db); err != nil {
				log.Fatal("automigrate failed", zap.Error(err))
			}
			log.Info("automigrate done")
		}
		checks["db"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
		store = repo.NewUserRepo(db)
	}

	// 可选的 redis 读缓存；连不上只告警，照常启动
	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		defer func() { _ = c.Close() }()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.Ping(ctx); err != nil {
			log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		checks["redis"] = c.Ping
		store = repo.NewCachedUserRepo(store, c, time.Duration(cfg.Redis.TTLSec)*time.Second, log.Named("cache"))
	}

	tr, err := i18n.New(cfg.I18n.MessagesFile)
	if err != nil {
		log.Fatal("load messages", zap.Error(err))
	}

	svc := service.NewUserService(store, utils.NewBcryptHasher(cfg.Security.BcryptCost), log.Named("user"))
	router.Register(handler.NewUserHandler(svc, tr, log))

	httpCfg := cfg.App.HTTP
	r := router.NewAPIEngine(log, router.APIOptions{
		Mode:           cfg.App.Mode,
		AllowOrigins:   httpCfg.AllowOrigins,
		RequestTimeout: time.Duration(httpCfg.RequestTimeoutSec) * time.Second,
		MaxBodyBytes:   httpCfg.MaxBodyBytes,
		MaxInFlight:    httpCfg.MaxInFlight,
		Checks:         checks,
	})

	// HTTP Server
	addr := server.Addr(httpCfg.Host, httpCfg.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(httpCfg.ReadTimeoutSec)*time.Second,
		time.Duration(httpCfg.WriteTimeoutSec)*time.Second,
		time.Duration(httpCfg.IdleTimeoutSec)*time.Second,
	)
	srv.ErrorLog = logger.ToStdLogger(log.Named("http"), zapcore.WarnLevel)

	// 启动日志
	host4human := httpCfg.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(httpCfg.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1/users"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("user api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("user api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	f := cfg.Log.File
	if !f.Enable {
		return logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Filename:   f.Filename,
		MaxSizeMB:  f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAgeDays: f.MaxAgeDays,
		Compress:   f.Compress,
	})
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l.Named("db"))
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
