package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/studyabroad/internal/metrics"
	"github.com/hitoshi/studyabroad/internal/middleware"
	"github.com/hitoshi/studyabroad/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     *middleware.Authenticator
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	// TrustProxyHeadersがfalseの場合、レート制限はRemoteAddrのみをキーにする。
	TrustProxyHeaders bool

	// 監視
	Logger         *slog.Logger
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler
	HealthChecker  HealthChecker
	StartedAt      time.Time

	// ドメインサービス
	AuthService    AuthServiceInterface
	ProfileService ProfileServiceInterface
	PostService    PostServiceInterface
	CatalogService CatalogServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	[RealIP] → RequestID → Logging → Recovery → Metrics → CORS → SecurityHeaders → RateLimit
//
// RealIPはTrustProxyHeadersが有効な場合のみ適用する。
// 各ルートはRequireAuthまたはOptionalAuthを個別に適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(metrics.NewHTTPMiddleware(collector))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError())
	})

	authn := deps.Authenticator
	required := authn.RequireAuth
	optional := authn.OptionalAuth

	healthHandler := NewHealthHandler(deps.HealthChecker, deps.StartedAt)
	authHandler := NewAuthHandler(deps.AuthService, collector)
	profileHandler := NewProfileHandler(deps.ProfileService)
	postHandler := NewPostHandler(deps.PostService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler.Health)
	r.Get("/db-time", healthHandler.DBTime)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(required).Get("/me", authHandler.Me)
	})

	// プロフィール
	r.Route("/profiles", func(r chi.Router) {
		r.With(optional).Get("/", profileHandler.List)
		r.With(required).Post("/", profileHandler.Create)

		r.Route("/me", func(r chi.Router) {
			r.Use(required)
			r.Get("/", profileHandler.Mine)
			r.Put("/", profileHandler.ReplaceMine)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.With(optional).Get("/", profileHandler.Get)
			r.With(required).Patch("/", profileHandler.Patch)
			r.With(required).Post("/posts", postHandler.Create)
		})
	})

	// 投稿
	r.Route("/posts", func(r chi.Router) {
		r.With(optional).Get("/", postHandler.List)
		r.With(required).Post("/{id}/images", postHandler.AddImages)
	})

	// 大学
	r.Route("/universities", func(r chi.Router) {
		r.With(optional).Get("/", catalogHandler.ListUniversities)
		r.With(optional).Get("/{id}", catalogHandler.GetUniversity)
		r.With(required).Post("/{id}/reviews", catalogHandler.ReviewUniversity)
	})

	// コース
	r.Route("/courses", func(r chi.Router) {
		r.With(optional).Get("/", catalogHandler.ListCourses)
		r.With(optional).Get("/{id}", catalogHandler.GetCourse)
		r.With(required).Post("/{id}/reviews", catalogHandler.ReviewCourse)
	})

	return r
}
