package server

import (
	"net/http"

	"github.com/aretw0/introspection"
	"github.com/labstack/echo/v4"

	"github.com/aretw0/journal/pkg/core"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StateResponse is the response body for GET /api/state.
type StateResponse struct {
	Service    any `json:"service"`
	Repository any `json:"repository,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleList returns every stored reflection in store order.
func (s *Server) handleList(c echo.Context) error {
	entries, err := s.svc.ListEntries(c.Request().Context())
	if err != nil {
		s.logger.Error("failed to list reflections", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load reflections")
	}
	return c.JSON(http.StatusOK, entries)
}

// handleSubmit validates and stores a reflection.
// Rejected input is a 400 with the user-facing reason; storage failures are
// a 500 that does not leak the underlying error.
func (s *Server) handleSubmit(c echo.Context) error {
	var in core.Input
	if err := c.Bind(&in); err != nil {
		s.logger.Debug("invalid reflection request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entry, err := s.svc.SubmitEntry(c.Request().Context(), in)
	switch {
	case core.IsRejected(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save reflection")
	}

	return c.JSON(http.StatusCreated, entry)
}

// handleState returns the introspection snapshot of the service and store.
func (s *Server) handleState(c echo.Context) error {
	resp := StateResponse{Service: s.svc.State()}
	if in, ok := s.svc.Repository().(introspection.Introspectable); ok {
		resp.Repository = in.State()
	}
	return c.JSON(http.StatusOK, resp)
}
