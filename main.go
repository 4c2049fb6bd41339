package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"logit-backend/internal/db"
	"logit-backend/internal/middleware"
	"logit-backend/internal/models"
	"logit-backend/internal/routes"
	"logit-backend/internal/services"
	"logit-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration, log *zap.Logger) (*gorm.DB, error) {
	var gormDB *gorm.DB
	var err error

	for i := 0; i < maxAttempts; i++ {
		gormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Error),
			TranslateError: true,
		})
		if err == nil {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return nil, fmt.Errorf("не удалось получить доступ к sql.DB: %w", err)
			}

			maxOpenConns := 100
			maxIdleConns := 25
			connMaxLifetime := 60

			if val, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS")); err == nil && val > 0 {
				maxOpenConns = val
			}
			if val, err := strconv.Atoi(os.Getenv("DB_MAX_IDLE_CONNS")); err == nil && val > 0 {
				maxIdleConns = val
			}
			if val, err := strconv.Atoi(os.Getenv("DB_CONN_MAX_LIFETIME_MINUTES")); err == nil && val > 0 {
				connMaxLifetime = val
			}

			sqlDB.SetMaxOpenConns(maxOpenConns)
			sqlDB.SetMaxIdleConns(maxIdleConns)
			sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

			return gormDB, nil
		}
		log.Warn("попытка подключения к БД не удалась",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("не удалось подключиться к базе данных после %d попыток: %v", maxAttempts, err)
}

func newLogger() *zap.Logger {
	if os.Getenv("GIN_MODE") == "release" {
		log, _ := zap.NewProduction()
		return log
	}
	log, _ := zap.NewDevelopment()
	return log
}

func main() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := newLogger()
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Info("файл .env не найден, используем переменные окружения")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)

	gormDB, err := connectWithRetry(dsn, 5, 5*time.Second, log)
	if err != nil {
		log.Fatal("ошибка подключения к базе данных", zap.Error(err))
	}

	redisClient, err := db.NewRedisClient()
	if err != nil {
		log.Warn("Redis недоступен, продолжаем без кэширования", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.UserDocument{},
		&models.Location{},
		&models.Cargo{},
		&models.CargoDocument{},
		&models.CargoStatusHistory{},
		&models.Vehicle{},
		&models.VehicleDocument{},
		&models.VehicleAvailability{},
		&models.VehicleInspection{},
		&models.CarrierRequest{},
		&models.Notification{},
		&models.Favorite{},
		&models.Rating{},
		&models.TelegramGroup{},
		&models.TelegramMessage{},
		&models.SearchFilter{},
	); err != nil {
		log.Fatal("ошибка миграции базы данных", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Фоновые сервисы
	websocket.StartManager()

	telegramService := services.NewTelegramService(log)
	telegramService.Start(ctx)

	notifier := services.NewNotifier(gormDB, telegramService, log)
	locationService := services.NewLocationService(gormDB, redisClient, log)

	scheduler, err := services.NewScheduler(gormDB, notifier, log)
	if err != nil {
		log.Fatal("ошибка создания планировщика", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal("ошибка запуска планировщика", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.PrometheusMiddleware())

	r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Статическая директория для загруженных файлов
	r.Static("/uploads", "./uploads")

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	routes.SetupRoutes(r, gormDB, notifier, locationService, telegramService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("сервер запущен", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("получен сигнал завершения, закрываем соединения")

	if err := scheduler.Stop(); err != nil {
		log.Warn("ошибка остановки планировщика", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("ошибка при graceful shutdown", zap.Error(err))
	}

	log.Info("сервер корректно завершил работу")
}
