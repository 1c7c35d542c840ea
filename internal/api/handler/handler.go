package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/rhymednick/inw-radio-log/internal/inventory"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/rhymednick/inw-radio-log/internal/photo"
	"github.com/rhymednick/inw-radio-log/internal/users"
)

// Handler serves the user, radio, checkout log and photo endpoints.
type Handler struct {
	users     *users.Registry
	inventory *inventory.Inventory
	ledger    *ledger.Ledger
	photos    photo.Store
	now       func() time.Time
}

func New(registry *users.Registry, inv *inventory.Inventory, l *ledger.Ledger, photos photo.Store) *Handler {
	return &Handler{
		users:     registry,
		inventory: inv,
		ledger:    l,
		photos:    photos,
		now:       time.Now,
	}
}

// StatusFor maps an error returned by the domain packages to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, photo.ErrInvalidName),
		errors.Is(err, photo.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, photo.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error response. Internal failures are
// logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(status, gin.H{
			"success": false,
			"error":   "internal server error",
		})
		return
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// bindJSON decodes the request body into v and answers 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return false
	}
	return true
}

// withWarning adds the photo failure of a partially successful request to the response.
func withWarning(body gin.H, photoErr error) gin.H {
	if photoErr != nil {
		body["warning"] = photoErr.Error()
	}
	return body
}
