package handlers

import (
	"net/http"

	"greenguile/internal/logger"
	"greenguile/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Config tunes the HTTP layer.
type Config struct {
	// SMSRatePerMin caps commands accepted per sender per minute. Zero disables the limit.
	SMSRatePerMin float64
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
	limiter  *senderLimiter
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg Config) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		services: services,
		log:      log,
		metrics:  cfg.Metrics,
		limiter:  newSenderLimiter(cfg.SMSRatePerMin),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	// SMS gateway callback; authenticated by sender number, not token
	router.POST("/sms", h.receiveSMS)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.operatorMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorMiddleware)
	{
		api.POST("/commands", h.postCommand)
		api.GET("/status", h.getStatus)

		settings := api.Group("/settings")
		{
			settings.GET("", h.getSettings)
			settings.GET("/:key", h.getSetting)
			settings.PUT("/:key", h.putSetting)
		}

		patterns := api.Group("/patterns")
		{
			patterns.GET("", h.getPatterns)
			patterns.POST("/reload", h.reloadPatterns)
		}

		api.GET("/logs", h.getLogs)
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...any) {
	if err != nil {
		fields := append([]any{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
