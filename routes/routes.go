package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tennis-tournament/handlers"
	"github.com/Dosada05/tennis-tournament/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Metrics        http.Handler
	Logger         *slog.Logger
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	bracketHandler *handlers.BracketHandler,
	matchHandler *handlers.MatchHandler,
	rankingHandler *handlers.RankingHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	organizerOnly := middleware.RequireRole(middleware.RoleOrganizer, middleware.RoleAdmin)

	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	router.Route("/brackets", func(r chi.Router) {
		r.Get("/structure", bracketHandler.GetStructureHandler)
		r.Get("/seeding", bracketHandler.GetSeedingHandler)
	})

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate, organizerOnly)
			r.Post("/draw", bracketHandler.GenerateDrawHandler)
			r.Post("/group-schedule", bracketHandler.GenerateGroupScheduleHandler)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/rules", matchHandler.GetRulesHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, organizerOnly)
			r.Post("/start", matchHandler.StartHandler)
			r.Post("/complete", matchHandler.CompleteHandler)
			r.Post("/cancel", matchHandler.CancelHandler)
		})
	})

	// Защищенные маршруты только для организаторов
	router.Group(func(r chi.Router) {
		r.Use(authenticate, organizerOnly)
		r.Put("/rules/{level}/{id}", matchHandler.SetOverridesHandler)
		r.Post("/categories/{categoryID}/rankings/recalculate", rankingHandler.RecalculateHandler)
	})

	router.Get("/categories/{categoryID}/leaderboard", rankingHandler.LeaderboardHandler)

	router.Route("/ws", func(r chi.Router) {
		r.Get("/tournaments/{tournamentID}", webSocketHandler.ServeTournamentWs)
		r.Get("/categories/{categoryID}", webSocketHandler.ServeCategoryWs)
	})
}
