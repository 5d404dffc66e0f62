package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the upload dashboard. Uploads are parsed in memory and
// never stored.
type Handler struct {
	logger    *zap.Logger
	maxUpload int64
}

// NewHandler creates a handler accepting uploads up to maxUpload bytes.
func NewHandler(logger *zap.Logger, maxUpload int64) *Handler {
	return &Handler{
		logger:    logger,
		maxUpload: maxUpload,
	}
}

// RegisterRoutes registers the dashboard and API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Index)
	r.POST("/upload", h.Upload)

	api := r.Group("/api/v1")
	{
		api.POST("/report", h.Report)
	}

	r.GET("/health", h.HealthCheck)
}

// NewRouter builds the gin engine with templates, middleware and routes.
func NewRouter(h *Handler) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger), cors())
	router.MaxMultipartMemory = h.maxUpload
	router.SetHTMLTemplate(tmpl)

	h.RegisterRoutes(router)
	return router, nil
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
