// README: HTTP router registration and middleware stack.
package http

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"aidlink/internal/config"
	"aidlink/internal/http/middleware"
	"aidlink/internal/modules/assignment"
	"aidlink/internal/modules/matching"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
)

type RouterDeps struct {
	Tickets     *ticket.Service
	Providers   *provider.Service
	Matching    *matching.Service
	Assignments *assignment.Service
}

func NewRouter(cfg config.Config, deps RouterDeps, logger zerolog.Logger) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	corsCfg := cors.DefaultConfig()
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.CORSAllowed, ",")
	}
	r.Use(cors.New(corsCfg))

	ticketH := NewTicketHandler(deps.Tickets, deps.Matching, deps.Assignments)
	providerH := NewProviderHandler(deps.Providers)
	assignmentH := NewAssignmentHandler(deps.Assignments)

	api := r.Group("/api")
	{
		api.POST("/tickets", ticketH.Create)
		api.GET("/tickets/:id", ticketH.Get)
		api.GET("/tickets/:id/history", ticketH.History)
		api.POST("/tickets/:id/status", ticketH.UpdateStatus)
		api.GET("/tickets/:id/matches", ticketH.Matches)
		api.GET("/tickets/:id/combinations", ticketH.Combinations)
		api.GET("/tickets/:id/assignments", assignmentH.ListByTicket)

		api.POST("/providers", providerH.Register)
		api.GET("/providers/:id", providerH.Get)
		api.PUT("/providers/:id/location", providerH.UpdateLocation)

		api.POST("/assignments/:id/accept", assignmentH.Accept)
		api.POST("/assignments/:id/reject", assignmentH.Reject)
		api.POST("/assignments/:id/complete", assignmentH.Complete)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
