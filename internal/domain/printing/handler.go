package printing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentiq/dentiq/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "dentist", "assistant"))
	readGroup.GET("/patients/:patientId/visits/:visitId/print-plan", h.GetPrintPlan)
}

// GetPrintPlan computes the pagination plan for a visit's prescription.
// Query params: history (default true) includes the continuity chain; mode is
// "full" (default) or "current" for the current-only projection.
func (h *Handler) GetPrintPlan(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	opts := Options{History: true, Mode: "full"}
	if c.QueryParam("history") == "false" {
		opts.History = false
	}
	if mode := c.QueryParam("mode"); mode != "" {
		if mode != "full" && mode != "current" {
			return echo.NewHTTPError(http.StatusBadRequest, "mode must be full or current")
		}
		opts.Mode = mode
	}

	plan, err := h.svc.BuildPlan(c.Request().Context(), patientID, c.Param("visitId"), opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, plan)
}
