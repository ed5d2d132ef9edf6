package handler

import (
	"net/http"

	"kinwatch/internal/delivery/api/middleware"
	"kinwatch/internal/delivery/api/response"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports liveness
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}

// WhoAmI echoes the identity carried by the caller's token
func WhoAmI(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "CONTEXT_ERROR", "User ID not found in context")
	}
	roles, _ := middleware.GetRoles(c)

	return response.Success(c, http.StatusOK, map[string]any{
		"user_id": userID,
		"roles":   roles,
	})
}
