package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/kavos113/assistant-artifacts/domain"
	"github.com/labstack/echo/v4"
)

type LinkGenerator interface {
	GenerateDownloadLinkForFile(ctx context.Context, assistantVersion, serviceName, serviceVersion, fileName string, expiryInSec int) (domain.DownloadLink, error)
}

type LinkHandler struct {
	lg LinkGenerator
}

func NewLinkHandler(lg LinkGenerator) *LinkHandler {
	return &LinkHandler{lg: lg}
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetLink handles GET /v1/links/:assistant_version/:service_name/:service_version.
// Optional query: expiry (seconds), file (leaf name, defaults to the service name).
func (h *LinkHandler) GetLink(c echo.Context) error {
	expiry := 0
	if s := c.QueryParam("expiry"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "expiry must be an integer"})
		}
		expiry = n
	}

	link, err := h.lg.GenerateDownloadLinkForFile(
		c.Request().Context(),
		c.Param("assistant_version"),
		c.Param("service_name"),
		c.Param("service_version"),
		c.QueryParam("file"),
		expiry,
	)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownService) ||
			errors.Is(err, domain.ErrInvalidVersionFormat) ||
			errors.Is(err, domain.ErrInvalidExpiry) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		c.Logger().Errorf("failed to generate link: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to generate link"})
	}

	return c.JSON(http.StatusOK, link)
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{})
}

func Register(e *echo.Echo, h *LinkHandler) {
	e.GET("/healthz", Health)
	e.GET("/v1/links/:assistant_version/:service_name/:service_version", h.GetLink)
}
