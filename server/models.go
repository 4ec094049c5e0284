package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type modelsResponse struct {
	Available    bool     `json:"available"`
	Success      bool     `json:"success"`
	Models       []string `json:"models"`
	Count        int      `json:"count"`
	DefaultModel string   `json:"defaultModel"`
	Message      string   `json:"message,omitempty"`
}

// listModels reports the models installed on the model server. It always
// answers 200; availability is part of the body.
func (s *Server) listModels(c echo.Context) error {
	resp := modelsResponse{Models: []string{}, DefaultModel: s.models.DefaultName()}
	if s.lister == nil {
		resp.Message = "model listing is not supported by the configured provider"
		return c.JSON(http.StatusOK, resp)
	}

	models, err := s.lister.ListModels(c.Request().Context())
	if err != nil {
		s.logger.Warn("failed to list models", "err", err)
		resp.Message = "model server unavailable: " + err.Error()
		return c.JSON(http.StatusOK, resp)
	}

	resp.Available = true
	resp.Success = true
	resp.Models = append(resp.Models, models...)
	resp.Count = len(models)
	return c.JSON(http.StatusOK, resp)
}
