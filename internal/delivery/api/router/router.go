// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"kinwatch/config"
	"kinwatch/internal/delivery/api/middleware"
	"kinwatch/internal/delivery/api/router/handler"
	"kinwatch/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	EndpointHandler   *handler.EndpointHandler
	PreferenceHandler *handler.PreferenceHandler
	StealthHandler    *handler.StealthHandler
	EventHandler      *handler.EventHandler
	JobHandler        *handler.JobHandler
	AuthMiddleware    *middleware.AuthMiddleware
	Config            *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	endpointHandler   *handler.EndpointHandler
	preferenceHandler *handler.PreferenceHandler
	stealthHandler    *handler.StealthHandler
	eventHandler      *handler.EventHandler
	jobHandler        *handler.JobHandler
	authMiddleware    *middleware.AuthMiddleware
	adminRole         string
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	adminRole := string(entity.RoleSafetyAdmin)
	if params.Config.Auth != nil && params.Config.Auth.AdminRole != "" {
		adminRole = params.Config.Auth.AdminRole
	}

	return &router{
		endpointHandler:   params.EndpointHandler,
		preferenceHandler: params.PreferenceHandler,
		stealthHandler:    params.StealthHandler,
		eventHandler:      params.EventHandler,
		jobHandler:        params.JobHandler,
		authMiddleware:    params.AuthMiddleware,
		adminRole:         adminRole,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate)

	apiV1.GET("/me", handler.WhoAmI)

	// Recipient-scoped routes; the token subject is the recipient
	preferencesGroup := apiV1.Group("/preferences")
	{
		preferencesGroup.GET("", r.preferenceHandler.GetPreferences)
		preferencesGroup.PATCH("", r.preferenceHandler.UpdatePreferences)
	}

	endpointsGroup := apiV1.Group("/endpoints")
	{
		endpointsGroup.POST("", r.endpointHandler.RegisterEndpoint)
		endpointsGroup.GET("", r.endpointHandler.ListEndpoints)
		endpointsGroup.PUT("/:id/token", r.endpointHandler.UpdateToken)
		endpointsGroup.DELETE("/:id", r.endpointHandler.DeactivateEndpoint)
	}

	// Producer and operator routes
	adminGroup := apiV1.Group("/admin")
	adminGroup.Use(r.authMiddleware.RequireRole(r.adminRole))
	{
		adminGroup.POST("/events", r.eventHandler.Submit)

		adminGroup.GET("/families/:familyId/stealth", r.stealthHandler.Status)
		adminGroup.POST("/families/:familyId/stealth", r.stealthHandler.Activate)
		adminGroup.DELETE("/families/:familyId/stealth", r.stealthHandler.Clear)

		adminGroup.POST("/jobs/:job", r.jobHandler.Run)
	}
}
