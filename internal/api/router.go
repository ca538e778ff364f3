// Package api serves the engine operations over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/internal/logger"
)

// NewRouter wires every engine operation under /api plus /health.
func NewRouter(eng *engine.Engine, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	h := &Handler{engine: eng, log: log.With("component", "api")}

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		learner := api.Group("/learners/:learner")
		{
			learner.POST("/courses/:course/concepts", h.InitializeConcepts)
			learner.POST("/courses/:course/attempts", h.RecordAttempt)
			learner.GET("/courses/:course/due", h.GetDueQueue)
			learner.GET("/courses/:course/summary", h.GetSummary)
			learner.POST("/courses/:course/assessments", h.RecordAssessment)
			learner.GET("/courses/:course/concepts/:concept/forecast", h.ForecastMastery)

			learner.GET("/profile", h.GetProfile)
			learner.POST("/profile/refresh", h.RefreshProfile)
			learner.GET("/onboarding", h.GetOnboardingStatus)
			learner.GET("/settings", h.GetOptimalSettings)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.StartSession)
			sessions.POST("/:id/activity", h.RecordSessionActivity)
			sessions.POST("/:id/close", h.CloseSession)
			sessions.GET("/:id/adaptation", h.GetAdaptation)
		}

		api.POST("/adaptive/frustration-intervention", h.FrustrationIntervention)
	}
	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "status", status)
		} else {
			log.Debug("request", "method", c.Request.Method, "path", c.FullPath(), "status", status)
		}
	}
}
