// Package webapp serves the JSON API behind the Telegram Mini App dashboard.
package webapp

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/pet"
	"foodgpt-bot/internal/summary"
	"foodgpt-bot/internal/user"
)

// Server holds the services the API handlers depend on.
type Server struct {
	log       *zap.Logger
	auth      *Authenticator
	users     *user.Repository
	logs      *foodlog.Repository
	summaries *summary.Service
	pets      *pet.Service
}

// NewServer creates the webapp API server.
func NewServer(
	log *zap.Logger,
	auth *Authenticator,
	users *user.Repository,
	logs *foodlog.Repository,
	summaries *summary.Service,
	pets *pet.Service,
) *Server {
	return &Server{
		log:       log,
		auth:      auth,
		users:     users,
		logs:      logs,
		summaries: summaries,
		pets:      pets,
	}
}

// Router builds the gin engine with all API routes mounted under /api.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	api := router.Group("/api")
	api.POST("/auth/token", s.handleAuthToken)

	protected := api.Group("/")
	protected.Use(s.requireAuth())
	{
		protected.GET("/auth/me", s.handleMe)
		protected.GET("/dashboard/today", s.handleDashboardToday)
		protected.GET("/calendar", s.handleCalendar)
		protected.GET("/calendar/:day", s.handleCalendarDay)
		protected.GET("/charts/calories", s.handleChartCalories)
		protected.GET("/charts/macros", s.handleChartMacros)
		protected.GET("/charts/trend", s.handleChartTrend)
		protected.GET("/summary", s.handleSummary)
		protected.GET("/user/profile", s.handleGetProfile)
		protected.PUT("/user/profile", s.handleUpdateProfile)
		protected.POST("/user/profile/reset-macros", s.handleResetMacros)
		protected.GET("/pet", s.handlePet)
		protected.POST("/pet/rename", s.handlePetRename)
		protected.DELETE("/meals/:id", s.handleDeleteMeal)
	}

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

const userIDKey = "telegram_id"

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) <= 7 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		id, err := s.auth.VerifyToken(header[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
