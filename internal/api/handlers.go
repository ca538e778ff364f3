package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/internal/profile"
	"github.com/example/masterybot/pkg/models"
)

type Handler struct {
	engine *engine.Engine
	log    *logger.Logger
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(op+" failed", "error", err, "learner_id", c.Param("learner"))
	}
	RespondError(c, status, code, err)
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type initializeRequest struct {
	Concepts []models.ConceptSpec `json:"concepts" binding:"required"`
}

// POST /api/learners/:learner/courses/:course/concepts
func (h *Handler) InitializeConcepts(c *gin.Context) {
	var req initializeRequest
	if !h.bind(c, &req) {
		return
	}
	cs, err := h.engine.InitializeConcepts(c.Request.Context(), c.Param("learner"), c.Param("course"), req.Concepts)
	if err != nil {
		h.fail(c, "InitializeConcepts", err)
		return
	}
	RespondOK(c, cs)
}

type attemptRequest struct {
	ConceptID      string  `json:"concept_id" binding:"required"`
	IsCorrect      *bool   `json:"is_correct" binding:"required"`
	ResponseTimeMs float64 `json:"response_time_ms"`
}

// POST /api/learners/:learner/courses/:course/attempts
func (h *Handler) RecordAttempt(c *gin.Context) {
	var req attemptRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.engine.RecordAttempt(c.Request.Context(), c.Param("learner"), c.Param("course"),
		req.ConceptID, *req.IsCorrect, req.ResponseTimeMs)
	if err != nil {
		h.fail(c, "RecordAttempt", err)
		return
	}
	RespondOK(c, res)
}

// GET /api/learners/:learner/courses/:course/due
func (h *Handler) GetDueQueue(c *gin.Context) {
	queue, err := h.engine.GetDueQueue(c.Request.Context(), c.Param("learner"), c.Param("course"))
	if err != nil {
		h.fail(c, "GetDueQueue", err)
		return
	}
	RespondOK(c, gin.H{"concepts": queue})
}

// GET /api/learners/:learner/courses/:course/summary
func (h *Handler) GetSummary(c *gin.Context) {
	s, err := h.engine.GetSummary(c.Request.Context(), c.Param("learner"), c.Param("course"))
	if err != nil {
		h.fail(c, "GetSummary", err)
		return
	}
	RespondOK(c, s)
}

type assessmentRequest struct {
	Kind  models.AssessmentKind `json:"kind" binding:"required"`
	Score *float64              `json:"score" binding:"required"`
}

// POST /api/learners/:learner/courses/:course/assessments
func (h *Handler) RecordAssessment(c *gin.Context) {
	var req assessmentRequest
	if !h.bind(c, &req) {
		return
	}
	cs, err := h.engine.RecordAssessment(c.Request.Context(), c.Param("learner"), c.Param("course"), req.Kind, *req.Score)
	if err != nil {
		h.fail(c, "RecordAssessment", err)
		return
	}
	RespondOK(c, cs)
}

// GET /api/learners/:learner/courses/:course/concepts/:concept/forecast
func (h *Handler) ForecastMastery(c *gin.Context) {
	f, err := h.engine.ForecastMastery(c.Request.Context(), c.Param("learner"), c.Param("course"), c.Param("concept"))
	if err != nil {
		h.fail(c, "ForecastMastery", err)
		return
	}
	RespondOK(c, f)
}

// GET /api/learners/:learner/profile
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.engine.GetProfile(c.Request.Context(), c.Param("learner"))
	if err != nil {
		h.fail(c, "GetProfile", err)
		return
	}
	RespondOK(c, p)
}

type refreshRequest struct {
	Conditions []string `json:"conditions"`
}

// POST /api/learners/:learner/profile/refresh
func (h *Handler) RefreshProfile(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	p, err := h.engine.RefreshProfile(c.Request.Context(), c.Param("learner"), req.Conditions)
	if err != nil {
		h.fail(c, "RefreshProfile", err)
		return
	}
	RespondOK(c, p)
}

// GET /api/learners/:learner/onboarding
func (h *Handler) GetOnboardingStatus(c *gin.Context) {
	st, err := h.engine.GetOnboardingStatus(c.Request.Context(), c.Param("learner"))
	if err != nil {
		h.fail(c, "GetOnboardingStatus", err)
		return
	}
	RespondOK(c, st)
}

// GET /api/learners/:learner/settings?device=mobile
func (h *Handler) GetOptimalSettings(c *gin.Context) {
	s, err := h.engine.OptimalSettings(c.Request.Context(), c.Param("learner"), c.DefaultQuery("device", "desktop"))
	if err != nil {
		h.fail(c, "GetOptimalSettings", err)
		return
	}
	RespondOK(c, s)
}

// POST /api/sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req engine.SessionStart
	if !h.bind(c, &req) {
		return
	}
	s, err := h.engine.StartSession(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "StartSession", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// POST /api/sessions/:id/activity
func (h *Handler) RecordSessionActivity(c *gin.Context) {
	var req engine.SessionActivity
	if !h.bind(c, &req) {
		return
	}
	s, err := h.engine.RecordSessionActivity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, "RecordSessionActivity", err)
		return
	}
	RespondOK(c, s)
}

// POST /api/sessions/:id/close
func (h *Handler) CloseSession(c *gin.Context) {
	var req engine.SessionClose
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	s, p, err := h.engine.CloseSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, "CloseSession", err)
		return
	}
	RespondOK(c, gin.H{"session": s, "profile": p})
}

// GET /api/sessions/:id/adaptation
func (h *Handler) GetAdaptation(c *gin.Context) {
	a, err := h.engine.Adapt(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "GetAdaptation", err)
		return
	}
	RespondOK(c, a)
}

type interventionRequest struct {
	FrustrationLevel   *float64 `json:"frustration_level" binding:"required"`
	Conditions         []string `json:"conditions"`
	CurrentContentType string   `json:"current_content_type"`
}

// POST /api/adaptive/frustration-intervention
func (h *Handler) FrustrationIntervention(c *gin.Context) {
	var req interventionRequest
	if !h.bind(c, &req) {
		return
	}
	if lvl := *req.FrustrationLevel; lvl < 0 || lvl > 100 {
		RespondError(c, http.StatusBadRequest, "validation_failed",
			apperr.Validationf("frustration level %v out of range [0,100]", lvl))
		return
	}
	RespondOK(c, profile.FrustrationIntervention(*req.FrustrationLevel, req.Conditions, req.CurrentContentType))
}
