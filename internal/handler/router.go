package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/auth"
	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/logging"
	"github.com/web-casa/topoviz/internal/service"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs from the process
type Deps struct {
	DB        *gorm.DB
	Logger    *slog.Logger
	Bus       *event.Bus
	Hub       *event.Hub
	Limiter   *auth.RateLimiter
	JWTSecret string
	StaticDir string
}

// NewRouter wires services, handlers and middleware into a gin engine.
// Reads are public so the visualization works without a login; every
// mutation requires a bearer token.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(d.Logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: false,
	}))

	servers := service.NewServerService(d.DB, d.Bus)
	links := service.NewServerConnectionService(d.DB, d.Bus)
	stacks := service.NewStackService(d.DB, d.Bus, d.Logger)
	containers := service.NewContainerService(d.DB, d.Bus)
	graph := service.NewGraphService(d.DB, d.Bus)
	topology := service.NewTopologyService(servers, links, stacks, graph)

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(auth.Middleware(d.JWTSecret))

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := NewAuthHandler(d.DB, d.JWTSecret, d.Limiter, d.Logger)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/setup", authH.Setup)
	api.GET("/auth/need-setup", authH.NeedSetup)
	protected.GET("/auth/me", authH.Me)
	protected.PUT("/auth/password", authH.ChangePassword)

	serverH := NewServerHandler(servers, d.DB)
	api.GET("/servers", serverH.List)
	api.GET("/servers/:id", serverH.Get)
	protected.POST("/servers", serverH.Create)
	protected.PUT("/servers/:id", serverH.Update)
	protected.PATCH("/servers/:id/position", serverH.Move)
	protected.DELETE("/servers/:id", serverH.Delete)

	linkH := NewServerConnectionHandler(links, d.DB)
	api.GET("/server-connections", linkH.List)
	api.GET("/server-connections/:id", linkH.Get)
	protected.POST("/server-connections", linkH.Create)
	protected.PUT("/server-connections/:id", linkH.Update)
	protected.PATCH("/server-connections/:id/health", linkH.SetHealth)
	protected.DELETE("/server-connections/:id", linkH.Delete)

	stackH := NewStackHandler(stacks, d.DB)
	api.GET("/stacks", stackH.List)
	api.GET("/stacks/:id", stackH.Get)
	protected.POST("/stacks", stackH.Create)
	protected.PUT("/stacks/:id", stackH.Update)
	protected.DELETE("/stacks/:id", stackH.Delete)
	protected.POST("/stacks/:id/parse_compose", stackH.ParseCompose)
	protected.POST("/stacks/:id/lint", stackH.Lint)

	containerH := NewContainerHandler(containers, d.DB)
	api.GET("/container-services", containerH.List)
	api.GET("/container-services/:id", containerH.Get)
	protected.DELETE("/container-services/:id", containerH.Delete)

	graphH := NewGraphHandler(graph, d.DB)
	api.GET("/services", graphH.ListServices)
	api.GET("/services/:id", graphH.GetService)
	protected.POST("/services", graphH.CreateService)
	protected.PUT("/services/:id", graphH.UpdateService)
	protected.DELETE("/services/:id", graphH.DeleteService)
	api.GET("/connections", graphH.ListConnections)
	api.GET("/connections/:id", graphH.GetConnection)
	protected.POST("/connections", graphH.CreateConnection)
	protected.PUT("/connections/:id", graphH.UpdateConnection)
	protected.DELETE("/connections/:id", graphH.DeleteConnection)

	api.GET("/topology", NewTopologyHandler(topology).Get)
	if d.Hub != nil {
		api.GET("/events", d.Hub.ServeWS)
	}

	auditH := NewAuditHandler(d.DB)
	protected.GET("/audit/logs", auditH.List)

	setupFrontend(r, d.StaticDir, d.Logger)
	return r
}

// setupFrontend serves the built single-page app from dir, falling back to
// index.html for client-side routes
func setupFrontend(r *gin.Engine, dir string, logger *slog.Logger) {
	if dir == "" {
		r.NoRoute(apiNotFound)
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Warn("frontend dist not found; serving API only", "dir", dir)
		r.NoRoute(apiNotFound)
		return
	}

	r.Static("/assets", filepath.Join(dir, "assets"))
	r.StaticFile("/favicon.ico", filepath.Join(dir, "favicon.ico"))

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") {
			apiNotFound(c)
			return
		}

		filePath := filepath.Join(dir, filepath.Clean("/"+path))
		if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
			c.File(filePath)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})

	logger.Info("serving frontend", "dir", dir)
}

func apiNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "error_key": "error.not_found"})
}
