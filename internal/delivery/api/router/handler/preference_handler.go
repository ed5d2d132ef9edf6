package handler

import (
	"net/http"

	"kinwatch/internal/delivery/api/middleware"
	"kinwatch/internal/delivery/api/response"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/usecase"

	"github.com/labstack/echo/v4"
)

// PreferenceHandler serves the caller's notification preferences.
type PreferenceHandler struct {
	preferenceUC usecase.PreferenceUsecase
}

// NewPreferenceHandler is the constructor for PreferenceHandler
func NewPreferenceHandler(preferenceUC usecase.PreferenceUsecase) *PreferenceHandler {
	return &PreferenceHandler{preferenceUC: preferenceUC}
}

// UpdatePreferencesRequest is a partial update; omitted fields are left alone.
type UpdatePreferencesRequest struct {
	Categories       map[entity.Category]bool `json:"categories,omitempty" validate:"omitempty,dive,keys,category,endkeys"`
	CriticalEnabled  *bool                    `json:"critical_enabled,omitempty"`
	MediumMode       *entity.MediumMode       `json:"medium_mode,omitempty" validate:"omitempty,oneof=immediate digest off"`
	LowEnabled       *bool                    `json:"low_enabled,omitempty"`
	QuietHours       *entity.QuietHours       `json:"quiet_hours,omitempty"`
	Channels         *entity.Channels         `json:"channels,omitempty"`
	SecurityChannels *entity.Channels         `json:"security_channels,omitempty"`
	Timezone         *string                  `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// GetPreferences returns the caller's preferences, creating role defaults on first read
func (h *PreferenceHandler) GetPreferences(c echo.Context) error {
	recipientID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	prefs, err := h.preferenceUC.GetPreferences(c.Request().Context(), recipientID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, prefs)
}

// UpdatePreferences merges a partial update into the caller's preferences
func (h *PreferenceHandler) UpdatePreferences(c echo.Context) error {
	recipientID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid preferences input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	prefs, err := h.preferenceUC.UpdatePreferences(c.Request().Context(), recipientID, &entity.PreferencesUpdate{
		Categories:       req.Categories,
		CriticalEnabled:  req.CriticalEnabled,
		MediumMode:       req.MediumMode,
		LowEnabled:       req.LowEnabled,
		QuietHours:       req.QuietHours,
		Channels:         req.Channels,
		SecurityChannels: req.SecurityChannels,
		Timezone:         req.Timezone,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, prefs)
}
