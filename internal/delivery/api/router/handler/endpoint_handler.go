package handler

import (
	"log/slog"
	"net/http"

	"kinwatch/internal/delivery/api/middleware"
	"kinwatch/internal/delivery/api/response"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// EndpointHandlerParams holds dependencies for EndpointHandler, injected by Fx.
type EndpointHandlerParams struct {
	fx.In

	DeviceUC usecase.DeviceUsecase
	Logger   *slog.Logger
}

// EndpointHandler serves the caller's push endpoints.
type EndpointHandler struct {
	deviceUC usecase.DeviceUsecase
	logger   *slog.Logger
}

// NewEndpointHandler is the constructor for EndpointHandler
func NewEndpointHandler(params EndpointHandlerParams) *EndpointHandler {
	return &EndpointHandler{
		deviceUC: params.DeviceUC,
		logger:   params.Logger,
	}
}

// RegisterEndpointRequest represents the request body for registering a push endpoint
type RegisterEndpointRequest struct {
	Token    string `json:"token" validate:"required"`
	DeviceID string `json:"device_id" validate:"required,max=255"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

// UpdateTokenRequest represents the request body for refreshing a push token
type UpdateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// RegisterEndpoint handles endpoint registration; re-registering a device refreshes its token.
func (h *EndpointHandler) RegisterEndpoint(c echo.Context) error {
	recipientID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req RegisterEndpointRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid endpoint input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	endpoint, err := h.deviceUC.RegisterEndpoint(c.Request().Context(), recipientID, &usecase.EndpointInfo{
		Token:    req.Token,
		DeviceID: req.DeviceID,
		Platform: req.Platform,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, endpoint)
}

// ListEndpoints returns the caller's active endpoints
func (h *EndpointHandler) ListEndpoints(c echo.Context) error {
	recipientID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	endpoints, err := h.deviceUC.ListEndpoints(c.Request().Context(), recipientID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, endpoints)
}

// UpdateToken replaces the token of one of the caller's endpoints
func (h *EndpointHandler) UpdateToken(c echo.Context) error {
	recipientID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	endpointID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid endpoint ID")
	}

	var req UpdateTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid token input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.deviceUC.UpdateToken(c.Request().Context(), recipientID, endpointID, req.Token); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// DeactivateEndpoint stops delivery to one of the caller's endpoints
func (h *EndpointHandler) DeactivateEndpoint(c echo.Context) error {
	recipientID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	endpointID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid endpoint ID")
	}

	if err := h.deviceUC.DeactivateEndpoint(c.Request().Context(), recipientID, endpointID); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
