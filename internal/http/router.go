package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/econara/econara-api/internal/auth"
	"github.com/econara/econara-api/internal/config"
	"github.com/econara/econara-api/internal/desa"
	"github.com/econara/econara-api/internal/donations"
	"github.com/econara/econara-api/internal/habits"
	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
	"github.com/econara/econara-api/internal/needs"
	"github.com/econara/econara-api/internal/profile"
	"github.com/econara/econara-api/internal/recipe"
	"github.com/econara/econara-api/internal/service"
	"github.com/econara/econara-api/internal/stock"
	"github.com/econara/econara-api/internal/storage"
)

// Handler carries the dependencies the top-level routes need.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	profiles      *profile.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter wires repositories, services and routes.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (http.Handler, error) {
	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.S3.AccessKey != "" {
		s3, err := storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			PublicDomain: cfg.S3.PublicDomain,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		uploader = s3
	}

	profileRepo := profile.NewRepository(pool)
	desaRepo := desa.NewRepository(pool)
	profileService := profile.NewService(profileRepo, desaRepo, redisClient)

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(profileRepo, redisClient, jwtMgr, cfg.JWTRefreshTTL)

	desaHandler := desa.NewHandler(desa.NewService(desaRepo))
	stockHandler := stock.NewHandler(stock.NewService(stock.NewRepository(pool), uploader))
	needsHandler := needs.NewHandler(needs.NewService(needs.NewRepository(pool)))
	donationsHandler := donations.NewHandler(donations.NewService(donations.NewRepository(pool)))
	habitsHandler := habits.NewHandler(habits.NewService(habits.NewRepository(pool), profileService))

	recipeClient := recipe.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
	recipeHandler := recipe.NewHandler(recipe.NewService(recipeClient, recipe.NewRepository(pool)))

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		profiles:      profileService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/healthz", h.Health)
		public.Get("/readyz", h.Ready)

		public.Route("/auth", func(authRouter chi.Router) {
			authRouter.Post("/register", h.Register)
			authRouter.Post("/login", h.Login)
			authRouter.Post("/refresh", h.Refresh)
			authRouter.Post("/logout", h.Logout)
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.Auth(jwtMgr, profileService))
		api.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		// Onboarding surface: reachable before the role is confirmed.
		api.Get("/me", h.Me)
		api.Put("/me", h.UpdateMe)
		api.Post("/user/set-role", h.SetRole)
		desaHandler.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(httpmiddleware.RequireConfirmedRole)

			stockHandler.RegisterRoutes(protected)
			needsHandler.RegisterRoutes(protected)
			donationsHandler.RegisterRoutes(protected)
			habitsHandler.RegisterRoutes(protected)
			recipeHandler.RegisterRoutes(protected)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireAdmin)

			desaHandler.RegisterAdminRoutes(admin)
		})
	})

	return r, nil
}

// Health answers a static liveness check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready checks Postgres and Redis connectivity.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependencies unavailable", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
