// Package gateway assembles the HTTP API, the event stream and the static
// pages into one gin engine.
package gateway

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"resto-system/config"
	"resto-system/internal/auth"
	"resto-system/internal/broadcast"
	"resto-system/internal/database/models"
	"resto-system/internal/gateway/handlers"
	"resto-system/internal/gateway/middleware"
	"resto-system/internal/menu"
	"resto-system/internal/orders"

	"github.com/gin-gonic/gin"
)

const LOGIN_RATE = "10-M"

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Aggregator *orders.Aggregator
	Orders     handlers.OrderReader
	Hub        *broadcast.Hub
	Menu       *menu.Service
	Accounts   *auth.Service

	Assets      config.AssetsConfig
	CORSOrigins []string
	Health      map[string]HealthCheck
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.Authenticate(d.Accounts))

	policy := d.Accounts.StepUp()
	admin := []models.Role{models.RoleAdmin}
	floor := []models.Role{models.RoleStaff, models.RoleAdmin}
	kitchen := []models.Role{models.RoleKitchen, models.RoleAdmin}
	everyone := []models.Role{models.RoleStaff, models.RoleKitchen, models.RoleAdmin}

	orderHandler := handlers.NewOrderHTTPHandler(d.Aggregator, d.Orders, d.Hub)
	productHandler := handlers.NewProductHTTPHandler(d.Menu, d.Assets.UploadDir)
	accountHandler := handlers.NewAccountHTTPHandler(d.Accounts)
	statsHandler := handlers.NewStatsHTTPHandler(d.Orders)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", middleware.RateLimit(LOGIN_RATE), accountHandler.Login)
			authGroup.POST("/second-auth", middleware.RateLimit(LOGIN_RATE), accountHandler.StepUp)
			authGroup.POST("/logout", accountHandler.Logout)
			authGroup.GET("/me", accountHandler.Me)
		}

		api.GET("/products", productHandler.PublicMenu)
		api.GET("/orders/pending/:table", orderHandler.PendingByTable)

		ordersGroup := api.Group("/orders")
		{
			ordersGroup.GET("/pending-all", middleware.RequireRoles(policy, everyone...), orderHandler.PendingAll)
			ordersGroup.GET("/history", middleware.RequireRoles(policy, floor...), orderHandler.History)
		}

		events := api.Group("/events")
		{
			events.POST("/send_order", orderHandler.SendOrder)
			events.POST("/pay_order", middleware.RequireRoles(policy, floor...), orderHandler.PayOrder)
			events.POST("/kitchen_finish", middleware.RequireRoles(policy, kitchen...), orderHandler.KitchenFinish)
			events.GET("/stream", middleware.RequireRoles(policy, everyone...), orderHandler.Stream)
		}

		adminGroup := api.Group("/admin", middleware.RequireRoles(policy, admin...))
		{
			adminGroup.GET("/products", productHandler.ListAll)
			adminGroup.POST("/products", productHandler.Save)
			adminGroup.PATCH("/products/:id/toggle", productHandler.ToggleVisibility)
			adminGroup.DELETE("/products/:id", productHandler.Delete)

			adminGroup.GET("/accounts", accountHandler.ListAccounts)
			adminGroup.POST("/accounts", accountHandler.CreateAccount)
		}

		api.GET("/stats/revenue", middleware.RequireRoles(policy, admin...), statsHandler.Revenue)
	}

	r.GET("/admin.html", middleware.RequirePage(policy, admin...), privatePage(d.Assets.PrivateDir, "admin.html"))
	r.GET("/kitchen.html", middleware.RequirePage(policy, kitchen...), privatePage(d.Assets.PrivateDir, "kitchen.html"))
	r.GET("/staff.html", middleware.RequirePage(policy, floor...), privatePage(d.Assets.PrivateDir, "staff.html"))

	r.GET("/health", healthCheckHandler())
	r.GET("/health/detailed", detailedHealthCheckHandler(d.Health))

	r.Static(strings.TrimSuffix(handlers.UPLOAD_URL_PREFIX, "/"), d.Assets.UploadDir)
	r.NoRoute(publicFiles(d.Assets.PublicDir))

	return r
}

func privatePage(dir, name string) gin.HandlerFunc {
	path := filepath.Join(dir, name)
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.File(path)
	}
}

// publicFiles serves the public directory for any GET that matched no route.
func publicFiles(dir string) gin.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		get := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead
		if !get || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	}
}

func detailedHealthCheckHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		overallStatus := "healthy"
		services := make(map[string]interface{}, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				overallStatus = "degraded"
				services[name] = map[string]interface{}{
					"status":  "unavailable",
					"message": err.Error(),
				}
				continue
			}
			services[name] = map[string]interface{}{
				"status":  "healthy",
				"message": "Service is responding",
			}
		}

		httpStatus := http.StatusOK
		if overallStatus != "healthy" {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"overall_status": overallStatus,
			"services":       services,
			"timestamp":      time.Now(),
		})
	}
}
