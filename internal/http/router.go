package http

import (
	"log/slog"

	"github.com/geocoder89/worldofhackaton/internal/config"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/http/handlers"
	"github.com/geocoder89/worldofhackaton/internal/http/middlewares"
	"github.com/geocoder89/worldofhackaton/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Services are the collaborators the routes dispatch to. Prom and Readiness
// are optional.
type Services struct {
	Registrar handlers.Registrar
	Issuer    handlers.Issuer
	Profiles  handlers.ProfileService
	Tokens    middlewares.TokenVerifier
	Prom      *observability.Prom
	Readiness map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, cfg config.Config, svc Services) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	if svc.Prom != nil {
		r.Use(svc.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(svc.Prom.Handler()))
	}

	// health
	h := handlers.NewHealthHandler(svc.Readiness)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// docs
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	usersHandler := handlers.NewUsersHandler(svc.Registrar, svc.Issuer, svc.Profiles, log)
	authMW := middlewares.NewAuthMiddleware(svc.Tokens)

	users := r.Group("/users")
	users.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes), middlewares.RequireJSON())

	users.POST("/register", usersHandler.Register)
	users.POST("/login", usersHandler.Login)

	// authenticated
	users.GET("/me", authMW.RequireAuth(), usersHandler.Me)
	users.PUT("/:id", authMW.RequireAuth(), usersHandler.Update)
	users.GET("", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin), usersHandler.List)

	return r
}
