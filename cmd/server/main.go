package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/greenstay/hotelenergy/internal/config"
	"github.com/greenstay/hotelenergy/internal/db"
	"github.com/greenstay/hotelenergy/internal/es"
	"github.com/greenstay/hotelenergy/internal/events"
	"github.com/greenstay/hotelenergy/internal/handlers"
	"github.com/greenstay/hotelenergy/internal/logging"
	authmw "github.com/greenstay/hotelenergy/internal/middleware/auth"
	loggingmw "github.com/greenstay/hotelenergy/internal/middleware/logging"
	"github.com/greenstay/hotelenergy/internal/service"
	httpserver "github.com/greenstay/hotelenergy/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	database, err := db.Open(ctx, configuration.DSN())
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	searchHandler := &handlers.SearchHandler{Index: es.RoomDataIndex}
	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler.ES = client
	}

	tokenService := &service.TokenService{
		DB:            database,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
		AccessTTL:     configuration.AccessTTL(),
		RefreshTTL:    configuration.RefreshTTL(),
	}
	userService := &service.UserService{DB: database}
	metricsService := service.NewMetricsService()
	insightsService := service.NewInsightsService()

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Users: userService, Tokens: tokenService, Producer: producer},
		UserHandler:    &handlers.UserHandler{Users: userService, Producer: producer},
		DataHandler:    &handlers.DataHandler{DB: database, ES: searchHandler.ES, Producer: producer},
		MetricsHandler: &handlers.MetricsHandler{Metrics: metricsService, Insights: insightsService},
		SearchHandler:  searchHandler,
		AuthMW:         &authmw.Middleware{Tokens: tokenService},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
