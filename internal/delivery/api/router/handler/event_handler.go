package handler

import (
	"time"

	"kinwatch/internal/delivery/api/response"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EventHandler accepts family events from upstream producers.
type EventHandler struct {
	eventUC usecase.EventUsecase
}

// NewEventHandler is the constructor for EventHandler
func NewEventHandler(eventUC usecase.EventUsecase) *EventHandler {
	return &EventHandler{eventUC: eventUC}
}

// ThrottleSignalRequest describes a rate-limited event.
type ThrottleSignalRequest struct {
	Kind          entity.ThrottleKind `json:"kind" validate:"required,oneof=status_transition login_fingerprint sync_threshold"`
	Subject       string              `json:"subject"`
	Discriminator string              `json:"discriminator"`
	ThresholdHrs  int                 `json:"threshold_hours" validate:"gte=0"`
}

// SubmitEventRequest is one producer event about a child.
type SubmitEventRequest struct {
	EventID          uuid.UUID              `json:"event_id"`
	FamilyID         uuid.UUID              `json:"family_id" validate:"required"`
	RecipientIDs     []uuid.UUID            `json:"recipient_ids" validate:"omitempty,dive,required"`
	ChildID          uuid.UUID              `json:"child_id"`
	ChildName        string                 `json:"child_name" validate:"max=128"`
	Category         entity.Category        `json:"category" validate:"required,category"`
	Severity         entity.Severity        `json:"severity" validate:"required,severity"`
	Priority         entity.Priority        `json:"priority" validate:"omitempty,oneof=normal critical"`
	BypassQuietHours bool                   `json:"bypass_quiet_hours"`
	Params           map[string]string      `json:"params"`
	Signal           *ThrottleSignalRequest `json:"signal"`
	DailyOnceKey     string                 `json:"daily_once_key"`
	OccurredAt       time.Time              `json:"occurred_at"`
}

// SubmitEventResponse acknowledges an accepted event.
type SubmitEventResponse struct {
	EventID   uuid.UUID `json:"event_id"`
	RequestID string    `json:"request_id,omitempty"`
}

func (r *SubmitEventRequest) toEntity() *entity.FamilyEvent {
	fe := &entity.FamilyEvent{
		EventID:          r.EventID,
		FamilyID:         r.FamilyID,
		RecipientIDs:     r.RecipientIDs,
		ChildID:          r.ChildID,
		ChildName:        r.ChildName,
		Category:         r.Category,
		Severity:         r.Severity,
		Priority:         r.Priority,
		BypassQuietHours: r.BypassQuietHours,
		Params:           r.Params,
		DailyOnceKey:     r.DailyOnceKey,
		OccurredAt:       r.OccurredAt,
	}
	if r.Signal != nil {
		fe.Signal = &entity.ThrottleSignal{
			Kind:          r.Signal.Kind,
			Subject:       r.Signal.Subject,
			Discriminator: r.Signal.Discriminator,
			ThresholdHrs:  r.Signal.ThresholdHrs,
		}
	}

	return fe
}

// Submit handles POST /events. The event is published for asynchronous
// fan-out, so the response only acknowledges acceptance.
func (h *EventHandler) Submit(c echo.Context) error {
	var req SubmitEventRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid event input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	accepted, err := h.eventUC.Submit(c.Request().Context(), req.toEntity())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Accepted(c, SubmitEventResponse{
		EventID:   accepted.EventID,
		RequestID: accepted.RequestID,
	})
}
