package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/infrastructure/logger"
	"github.com/crosslist/backend/internal/interfaces/http/middleware"
)

// defaultBodyLimit bounds inbound request bodies. Listing payloads and
// webhook events are small.
const defaultBodyLimit = 1 << 20 // 1MB

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under the versioned API group
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// NewEngine builds a gin engine with the standard middleware chain:
// request id, structured request logging, panic recovery, body limit.
func NewEngine(log *zap.Logger, maxBodySize int64, corsCfg *middleware.CORSConfig) *gin.Engine {
	if maxBodySize <= 0 {
		maxBodySize = defaultBodyLimit
	}

	engine := gin.New()

	engine.Use(logger.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.BodyLimit(maxBodySize))
	if corsCfg != nil {
		engine.Use(middleware.CORS(*corsCfg))
	}

	return engine
}
