package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"restaurant-match-backend/internal/catalog"
	"restaurant-match-backend/internal/config"
	"restaurant-match-backend/internal/handlers"
	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/repository"
	"restaurant-match-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"
)

func Run() {
	// Load configuration
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	// Connect to redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping redis")
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	swipeRepo := repository.NewSwipeRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	presenceRepo := repository.NewPresenceRepository(rdb)
	snapshotRepo := repository.NewMatchSnapshotRepository(rdb)

	catalogClient := catalog.New(cfg.Catalog, repository.NewCatalogCache(rdb))

	// Initialize services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	presenceService := services.NewPresenceService(presenceRepo, cfg.Presence.OnlineTTL)
	wsHub := services.NewWSHub(friendRepo, presenceService)
	notificationService := services.NewNotificationService(notificationRepo, wsHub, cfg.Notifications.CacheSize)
	matchService := services.NewMatchService(friendRepo, favoriteRepo, userRepo, snapshotRepo, notificationService)
	swipeService := services.NewSwipeService(swipeRepo, favoriteRepo, matchService, presenceService)
	friendService := services.NewFriendService(friendRepo, userRepo, presenceService, notificationService, matchService)
	discoveryService := services.NewDiscoveryService(catalogClient, swipeRepo, favoriteRepo)
	tournamentService := services.NewTournamentService(favoriteRepo, selectionRepo)

	// Initialize handlers
	h := routes{
		auth:         middleware.AuthMiddleware(userService),
		user:         handlers.NewUserHandler(userService),
		friend:       handlers.NewFriendHandler(friendService),
		discovery:    handlers.NewDiscoveryHandler(discoveryService),
		swipe:        handlers.NewSwipeHandler(swipeService),
		match:        handlers.NewMatchHandler(matchService),
		tournament:   handlers.NewTournamentHandler(tournamentService),
		notification: handlers.NewNotificationHandler(notificationService, friendService),
		presence:     handlers.NewPresenceHandler(presenceService),
		ws:           handlers.NewWebSocketHandler(wsHub, userService),
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      h.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Supervise the server and background tasks
	sup := suture.New("restaurant-match", suture.Spec{
		EventHook: logSupervisorEvent,
		Timeout:   cfg.Server.ShutdownTimeout,
	})
	sup.Add(newServerService(srv, srv.Addr, cfg.Server.ShutdownTimeout))
	sup.Add(notificationService.PruneTask(cfg.Notifications.PruneInterval))

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Supervisor stopped")
	}

	log.Info().Msg("Server exited")
}

// routes groups the handlers mounted on the router
type routes struct {
	auth         func(http.Handler) http.Handler
	user         *handlers.UserHandler
	friend       *handlers.FriendHandler
	discovery    *handlers.DiscoveryHandler
	swipe        *handlers.SwipeHandler
	match        *handlers.MatchHandler
	tournament   *handlers.TournamentHandler
	notification *handlers.NotificationHandler
	presence     *handlers.PresenceHandler
	ws           *handlers.WebSocketHandler
}

func (h routes) router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(middleware.Metrics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", h.user.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Get("/users/me", h.user.GetMe)

			r.Get("/restaurants", h.discovery.Feed)

			r.Post("/swipes", h.swipe.RecordSwipe)
			r.Get("/swipes/{restaurant_id}", h.swipe.GetSwipe)
			r.Delete("/swipes", h.swipe.ClearSwipes)

			r.Get("/favorites", h.swipe.ListFavorites)
			r.Get("/favorites/{restaurant_id}", h.swipe.GetFavorite)
			r.Delete("/favorites/{restaurant_id}", h.swipe.Unlike)
			r.Delete("/favorites", h.swipe.ResetFavorites)

			r.Get("/friends", h.friend.ListFriends)
			r.Post("/friends", h.friend.AddFriend)
			r.Delete("/friends/{friend_id}", h.friend.RemoveFriend)

			r.Get("/matches", h.match.ListMatches)
			r.Get("/matches/{restaurant_id}", h.match.RestaurantMatches)

			r.Post("/tournament", h.tournament.Start)
			r.Get("/tournament", h.tournament.Current)
			r.Post("/tournament/choice", h.tournament.Choose)
			r.Delete("/tournament", h.tournament.Abandon)

			r.Get("/selection", h.tournament.GetSelection)
			r.Post("/selection", h.tournament.SetSelection)
			r.Get("/selection/history", h.tournament.History)

			r.Get("/notifications", h.notification.ListNotifications)
			r.Post("/notifications", h.notification.CreateNotification)
			r.Put("/notifications/read", h.notification.MarkAllRead)
			r.Put("/notifications/{id}/read", h.notification.MarkRead)
			r.Delete("/notifications", h.notification.ClearAll)
			r.Delete("/notifications/{id}", h.notification.Remove)

			r.Post("/presence/heartbeat", h.presence.Heartbeat)
		})
	})

	// WebSocket route
	r.Get("/ws", h.ws.HandleWebSocket)

	return r
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func logSupervisorEvent(e suture.Event) {
	log.Warn().Fields(e.Map()).Msg(e.String())
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
