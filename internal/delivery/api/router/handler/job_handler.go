package handler

import (
	"log/slog"
	"net/http"

	"kinwatch/internal/delivery/api/response"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/usecase"

	"github.com/labstack/echo/v4"
)

// JobHandler exposes the scheduler entry points for external triggers such
// as Cloud Scheduler. Every job is idempotent.
type JobHandler struct {
	jobsUC usecase.JobsUsecase
	logger *slog.Logger
}

// NewJobHandler is the constructor for JobHandler
func NewJobHandler(jobsUC usecase.JobsUsecase, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobsUC: jobsUC, logger: logger}
}

// Run handles POST /admin/jobs/:job
func (h *JobHandler) Run(c echo.Context) error {
	job := c.Param("job")
	ctx := c.Request().Context()

	deliverycontext.GetLoggerOrDefault(ctx, h.logger).Info("Job triggered over HTTP",
		slog.String("job", job),
		slog.String("actor", deliverycontext.GetActor(ctx, unknownActor)),
	)

	report, err := h.jobsUC.Run(ctx, job)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, report)
}
