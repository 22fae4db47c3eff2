package routes

import (
	"github.com/Dosada05/prediction-pool/handlers"
	"github.com/Dosada05/prediction-pool/middleware"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes собирает все маршруты приложения.
// Мутации результатов и пересчёты доступны админам, разблокировка -
// только суперадмину, чтение таблиц и журнала - любому вошедшему.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	resultHandler *handlers.ResultHandler,
	lifecycleHandler *handlers.LifecycleHandler,
	recomputeHandler *handlers.RecomputeHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	auditHandler *handlers.AuditHandler,
	scheduleHandler *handlers.ScheduleHandler,
	statsHandler *handlers.StatsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(string(models.RoleAdmin), string(models.RoleSuperadmin))
	superadminOnly := middleware.Authorize(string(models.RoleSuperadmin))

	router.Post("/auth/login", authHandler.Login)
	router.With(authenticate).Get("/auth/me", authHandler.Me)

	// WebSocket-подписки на обновления таблиц пулов.
	router.Get("/ws/pools/{poolID}", webSocketHandler.ServeWs)

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/result", lifecycleHandler.GetResult)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Put("/groups/{group}/standing", resultHandler.SetGroupStanding)
			r.Put("/result", resultHandler.SetTournamentResult)
			r.Put("/topscorer", resultHandler.SetTopscorer)
			r.Patch("/result/status", lifecycleHandler.TransitionStatus)

			r.Post("/recompute/{category}", recomputeHandler.Run)
			r.Post("/schedule/import", scheduleHandler.Import)
			r.Post("/finalize", statsHandler.FinalizeTournament)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(superadminOnly)
			r.Post("/result/unlock", lifecycleHandler.Unlock)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Put("/{matchID}/score", resultHandler.SetMatchScore)
	})

	router.Route("/pools/{poolID}/leaderboard", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", leaderboardHandler.GetLeaderboard)
		r.With(adminOnly).Post("/rebuild", leaderboardHandler.RebuildLeaderboard)
	})

	router.Route("/users/{userID}/stats", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", statsHandler.GetUserStats)
	})

	router.Route("/audit", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/", auditHandler.List)
	})
}
