package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/complexchaos/internal/adapter/dto/common"
	"github.com/johnquangdev/complexchaos/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	sessionHandler   *Session
	synthesisHandler *Synthesis
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, sessionHandler *Session, synthesisHandler *Synthesis) *Router {
	return &Router{
		cfg:              cfg,
		sessionHandler:   sessionHandler,
		synthesisHandler: synthesisHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupSessionRoutes(v1)
	rt.setupSynthesisRoutes(v1)
}

// setupSessionRoutes configures session, submission and generation routes
func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessions := g.Group("/sessions")

	sessions.POST("", rt.sessionHandler.CreateSession)
	sessions.GET("/:id", rt.sessionHandler.GetSession)
	sessions.PATCH("/:id/status", rt.sessionHandler.UpdateStatus)
	sessions.POST("/:id/stakeholders", rt.sessionHandler.AddStakeholder)
	sessions.POST("/:id/submissions", rt.sessionHandler.SubmitPerspective)
	sessions.POST("/:id/submissions/upload", rt.sessionHandler.UploadSubmission)
	sessions.GET("/:id/diversity", rt.sessionHandler.Diversity)
	sessions.GET("/:id/syntheses", rt.sessionHandler.ListSyntheses)

	sessions.POST("/:id/syntheses", rt.synthesisHandler.Generate)
	sessions.POST("/:id/syntheses/stream", rt.synthesisHandler.Stream)
}

// setupSynthesisRoutes configures routes addressed by synthesis id
func (rt *Router) setupSynthesisRoutes(g *echo.Group) {
	syntheses := g.Group("/syntheses")

	syntheses.GET("/:id", rt.synthesisHandler.GetSynthesis)
	syntheses.POST("/:id/critiques", rt.synthesisHandler.AddCritique)
	syntheses.POST("/:id/refine", rt.synthesisHandler.Refine)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := ""
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, common.HealthResponse{
		Status:      "ok",
		Environment: env,
	})
}
