package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.RecordHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	api := r.Group("/api")
	api.GET("/health", handler.Health)

	coconut := api.Group("/coconut")
	coconut.GET("", handler.ListPurchaseInputs)
	coconut.POST("", handler.CreatePurchaseInput)
	coconut.PUT("/:id", handler.UpdatePurchaseInput)
	coconut.DELETE("/:id", handler.DeletePurchaseInput)

	labour := api.Group("/labour")
	labour.GET("", handler.ListLabourWages)
	labour.POST("", handler.CreateLabourWage)
	labour.PUT("/:id", handler.UpdateLabourWage)
	labour.DELETE("/:id", handler.DeleteLabourWage)

	clients := api.Group("/clients")
	clients.GET("", handler.ListClients)
	clients.POST("", handler.CreateClient)
	clients.DELETE("/:id", handler.DeleteClient)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
