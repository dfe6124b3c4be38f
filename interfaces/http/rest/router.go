package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mgmtapi/application/services"
	"mgmtapi/infrastructure/config"
	"mgmtapi/interfaces/http/rest/handlers"
	"mgmtapi/interfaces/http/rest/middleware"
	"mgmtapi/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg               *config.Config
	apiKeyService     *services.ApiKeyService
	groupService      *services.GroupService
	membershipService *services.MembershipService
	logger            *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	apiKeyService *services.ApiKeyService,
	groupService *services.GroupService,
	membershipService *services.MembershipService,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:               cfg,
		apiKeyService:     apiKeyService,
		groupService:      groupService,
		membershipService: membershipService,
		logger:            logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() (http.Handler, error) {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: rt.cfg.JWTSecret,
		Issuer:    rt.cfg.JWTIssuer,
	})
	if err != nil {
		return nil, err
	}

	router.Route("/management/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(validator, rt.logger))

		// Api key endpoints
		r.Route("/apikeys", func(r chi.Router) {
			apiKeyHandler := handlers.NewApiKeyHandler(rt.apiKeyService, rt.logger)
			r.Post("/", apiKeyHandler.Create)
			r.Get("/", apiKeyHandler.List)
			r.Post("/_search", apiKeyHandler.Search)
			r.Get("/{key}", apiKeyHandler.Get)
			r.Put("/{key}", apiKeyHandler.Update)
			r.Post("/{key}/_revoke", apiKeyHandler.Revoke)
		})

		// Group endpoints
		r.Route("/groups", func(r chi.Router) {
			groupHandler := handlers.NewGroupHandler(rt.groupService, rt.logger)
			r.Get("/", groupHandler.List)
			r.Post("/", groupHandler.Create)
			r.Get("/{groupID}", groupHandler.Get)
			r.Put("/{groupID}", groupHandler.Update)
			r.Delete("/{groupID}", groupHandler.Delete)
		})

		// Membership endpoints
		membershipHandler := handlers.NewMembershipHandler(rt.membershipService, rt.logger)
		r.Route("/memberships", func(r chi.Router) {
			r.Post("/", membershipHandler.Create)
			r.Put("/", membershipHandler.Update)
			r.Post("/{referenceType}/_search", membershipHandler.SearchByReferences)
			r.Get("/{referenceType}/{referenceID}", membershipHandler.ListByReference)
			r.Get("/{referenceType}/{referenceID}/{userID}", membershipHandler.Get)
			r.Delete("/{referenceType}/{referenceID}/{userID}", membershipHandler.Delete)
		})
		r.Get("/users/{userID}/memberships", membershipHandler.ListByUser)
	})

	return router, nil
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
