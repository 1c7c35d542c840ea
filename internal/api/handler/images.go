package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// ServeImage streams a stored profile photo. Photos are overwritten in place
// when a user uploads a new one, so clients revalidate with If-Modified-Since.
func (h *Handler) ServeImage(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")

	rc, info, err := h.photos.Open(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			log.Error("failed to close photo", "name", name, "error", err)
		}
	}()

	c.Header("Cache-Control", "no-cache")
	if !info.ModTime.IsZero() {
		c.Header("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
		if modifiedSince := c.GetHeader("If-Modified-Since"); modifiedSince != "" {
			if t, err := time.Parse(http.TimeFormat, modifiedSince); err == nil {
				if info.ModTime.Before(t.Add(1 * time.Second)) {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
}
