package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/doc0/internal/api/admin"
	"github.com/liliang-cn/doc0/internal/api/middleware"
	"github.com/liliang-cn/doc0/internal/api/widget"
	"github.com/liliang-cn/doc0/internal/service"
	"go.uber.org/zap"
)

// ChatPath is the chat page. Legacy links are redirected here.
const ChatPath = "/chat"

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
	NResults     int
}

// Services groups what the handlers call into.
type Services struct {
	Chat   *service.ChatService
	Widget *service.WidgetService
	Auth   *service.AuthService
	Admin  *service.AdminService
	Docs   widget.DocSearcher
}

// SetupRouter sets up the Gin router
func SetupRouter(svc Services, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LegacyRedirect(ChatPath))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	widgetHandler := widget.NewHandler(svc.Chat, svc.Widget, svc.Auth, svc.Docs, cfg.NResults)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, ChatPath)
	})
	r.GET(ChatPath, widgetHandler.Snapshot)
	widgetHandler.RegisterRoutes(r.Group("/api"))

	adminHandler := admin.NewHandler(svc.Admin)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.Auth(cfg.APIKey))
	adminHandler.RegisterRoutes(adminGroup)

	return r
}
