package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/cowork/internal/thumbnail"
)

// HandleThumbnail serves the placeholder tile for a listing name,
// e.g. /thumbnails/Sunny%20Loft.png
func HandleThumbnail(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid thumbnail name")
	}
	name = strings.TrimSuffix(name, ".png")

	data, err := thumbnail.Render(name)
	if err != nil {
		slog.Error("failed to render thumbnail", "name", name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render thumbnail")
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return c.Blob(http.StatusOK, "image/png", data)
}
