package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"couples-workout-backend/internal/config"
	"couples-workout-backend/internal/handlers"
	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/repository"
	"couples-workout-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	coupleRepo := repository.NewCoupleRepository(db)
	shareRepo := repository.NewShareRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)

	// Initialize services
	tokenService := services.NewTokenService(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLDays)*24*time.Hour,
	)
	userService := services.NewUserService(userRepo, tokenService)
	coupleService := services.NewCoupleService(coupleRepo)
	shareService := services.NewShareService(shareRepo, userRepo)
	habitService := services.NewHabitService(habitRepo, coupleService, shareService)
	progressService := services.NewProgressService(progressRepo, coupleService, shareService, userRepo)
	workoutService := services.NewWorkoutService(workoutRepo, coupleService)
	mediaService, err := services.NewMediaService(userRepo, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}
	pushService, err := services.NewPushService(cfg.APNS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push service")
	}
	wsHub := services.NewWSHub(coupleService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, mediaService)
	coupleHandler := handlers.NewCoupleHandler(coupleService, userService, wsHub, pushService)
	shareHandler := handlers.NewShareHandler(shareService)
	habitHandler := handlers.NewHabitHandler(habitService)
	progressHandler := handlers.NewProgressHandler(progressService, shareService, userService, wsHub, pushService)
	workoutHandler := handlers.NewWorkoutHandler(workoutService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, tokenService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenService))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Post("/users/me/avatar", userHandler.UploadAvatar)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)

			r.Post("/couples", coupleHandler.Create)
			r.Post("/couples/{couple_id}/invite", coupleHandler.GenerateInvite)
			r.Post("/couples/{couple_id}/accept", coupleHandler.AcceptInvite)
			r.Get("/couples/{couple_id}/members", coupleHandler.ListMembers)
			r.Patch("/couples/{couple_id}/settings", coupleHandler.UpdateSettings)

			r.Post("/share/permissions", shareHandler.Grant)
			r.Get("/share/permissions", shareHandler.List)
			r.Delete("/share/permissions/{permission_id}", shareHandler.Revoke)
			r.Get("/share/available", shareHandler.Available)

			r.Post("/habits", habitHandler.Create)
			r.Get("/habits", habitHandler.List)
			r.Get("/habits/logs", habitHandler.ListLogs)
			r.Get("/habits/partner", habitHandler.PartnerLogs)
			r.Get("/habits/stats/weekly", habitHandler.WeeklyStats)
			r.Patch("/habits/{habit_id}", habitHandler.Update)
			r.Post("/habits/{habit_id}/logs", habitHandler.Log)

			r.Post("/progress/snapshots", progressHandler.Upsert)
			r.Get("/progress/snapshots", progressHandler.List)
			r.Get("/progress/partner", progressHandler.Partner)
			r.Get("/progress/summary", progressHandler.Summary)

			r.Post("/workout-templates", workoutHandler.CreateTemplate)
			r.Get("/workout-templates", workoutHandler.ListTemplates)
			r.Post("/workout-sessions", workoutHandler.CreateSession)
			r.Get("/workout-sessions", workoutHandler.ListSessions)
			r.Get("/workout-sessions/stats/weekly", workoutHandler.WeeklyStats)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
