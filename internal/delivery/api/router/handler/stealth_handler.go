package handler

import (
	"net/http"

	"kinwatch/internal/delivery/api/response"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const unknownActor = "admin"

// StealthHandlerParams holds dependencies for StealthHandler, injected by Fx.
type StealthHandlerParams struct {
	fx.In

	StealthUC usecase.StealthUsecase
	Clock     service.Clock
}

// StealthHandler lets safety admins open, inspect and clear stealth windows.
type StealthHandler struct {
	stealthUC usecase.StealthUsecase
	clock     service.Clock
}

// NewStealthHandler is the constructor for StealthHandler
func NewStealthHandler(params StealthHandlerParams) *StealthHandler {
	return &StealthHandler{
		stealthUC: params.StealthUC,
		clock:     params.Clock,
	}
}

// ActivateStealthRequest opens or extends a family's stealth window.
type ActivateStealthRequest struct {
	TicketID        string      `json:"ticket_id" validate:"required,max=128"`
	AffectedUserIDs []uuid.UUID `json:"affected_user_ids" validate:"required,min=1,dive,required"`
}

// StealthStatusResponse reports whether a family is currently shielded.
type StealthStatusResponse struct {
	FamilyID uuid.UUID `json:"family_id"`
	Active   bool      `json:"active"`
}

// Activate handles POST /admin/families/:familyId/stealth
func (h *StealthHandler) Activate(c echo.Context) error {
	familyID, err := uuid.Parse(c.Param("familyId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid family ID")
	}

	var req ActivateStealthRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid stealth input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	window, err := h.stealthUC.Activate(ctx, &usecase.ActivateStealthInput{
		FamilyID:        familyID,
		TicketID:        req.TicketID,
		AffectedUserIDs: req.AffectedUserIDs,
		Actor:           deliverycontext.GetActor(ctx, unknownActor),
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, window)
}

// Status handles GET /admin/families/:familyId/stealth
func (h *StealthHandler) Status(c echo.Context) error {
	familyID, err := uuid.Parse(c.Param("familyId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid family ID")
	}

	active, err := h.stealthUC.IsActive(c.Request().Context(), familyID, h.clock.Now())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, StealthStatusResponse{FamilyID: familyID, Active: active})
}

// Clear handles DELETE /admin/families/:familyId/stealth. Clearing an
// inactive window succeeds.
func (h *StealthHandler) Clear(c echo.Context) error {
	familyID, err := uuid.Parse(c.Param("familyId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid family ID")
	}

	ctx := c.Request().Context()
	if err := h.stealthUC.Clear(ctx, familyID, deliverycontext.GetActor(ctx, unknownActor)); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
