package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	myPostgresRepo "github.com/jobfolio/auth-service/internal/adapters/db/postgres"
	myRedisRepo "github.com/jobfolio/auth-service/internal/adapters/db/redis"
	"github.com/jobfolio/auth-service/internal/adapters/mail"
	myHTTP "github.com/jobfolio/auth-service/internal/adapters/transport/http"
	httpmw "github.com/jobfolio/auth-service/internal/adapters/transport/http/middleware"
	appjwt "github.com/jobfolio/auth-service/internal/app/auth/jwt"
	appsvc "github.com/jobfolio/auth-service/internal/app/auth/service"
	"github.com/jobfolio/auth-service/internal/infra/config"
	lg "github.com/jobfolio/auth-service/internal/infra/log"
	"github.com/jobfolio/auth-service/internal/infra/migrate"
	"github.com/jobfolio/auth-service/internal/jobs"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	mailQueue := jobs.NewClient(redisOpts)
	defer mailQueue.Close()
	worker := jobs.NewWorker(redisOpts, mail.NewSMTPSender(cfg), zapLog)

	validate := validator.New()
	_ = validate.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		var hasUpper, hasDigit bool
		for _, r := range pwd {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return utf8.RuneCountInString(pwd) >= 8 && hasUpper && hasDigit
	})

	userRepo := myPostgresRepo.NewUserRepo(db)
	tokenRepo := myRedisRepo.NewTokenRepo(redisCli)
	jwtUtil, err := appjwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}
	svc := appsvc.New(userRepo, tokenRepo, mailQueue, jwtUtil, cfg, validate, zapLog)

	rootCtx, cancel := context.WithCancel(context.Background())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.NewRateLimitPerIP(rootCtx, 50, 100, 10_000, time.Hour))

	corsConfig := cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	myHTTP.NewHandler(svc, cfg, zapLog).Register(router)

	srv := &http.Server{
		Addr:         cfg.HTTPAddress,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return worker.Run(ctx)
	})

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
