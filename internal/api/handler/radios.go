package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rhymednick/inw-radio-log/internal/api/models"
	"github.com/rhymednick/inw-radio-log/internal/inventory"
	domain "github.com/rhymednick/inw-radio-log/internal/models"
)

// GetRadios lists the radios, optionally restricted by radioID or userID.
func (h *Handler) GetRadios(c *gin.Context) {
	radios, err := h.inventory.List(c.Request.Context(), inventory.Filter{
		RadioID: c.Query("radioID"),
		UserID:  c.Query("userID"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"radios":  radios,
	})
}

// CreateRadio adds a new radio.
func (h *Handler) CreateRadio(c *gin.Context) {
	var req models.CreateRadioRequest
	if !bindJSON(c, &req) {
		return
	}
	radio, err := h.inventory.Create(c.Request.Context(), req.ID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Radio added successfully",
		"radio":   radio,
	})
}

// UpsertRadio applies the fields present in the body to the radio with the
// body's ID, creating it if needed.
func (h *Handler) UpsertRadio(c *gin.Context) {
	var patch domain.RadioPatch
	if !bindJSON(c, &patch) {
		return
	}
	radio, err := h.inventory.Upsert(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Radio updated successfully",
		"radio":   radio,
	})
}

// DeleteRadio removes the radio named in the body.
func (h *Handler) DeleteRadio(c *gin.Context) {
	var req models.DeleteRadioRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "ID is required",
		})
		return
	}
	if err := h.inventory.Delete(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Radio deleted successfully",
	})
}

// CheckOutRadio assigns the radio to a user.
func (h *Handler) CheckOutRadio(c *gin.Context) {
	var req models.CheckOutRequest
	if !bindJSON(c, &req) {
		return
	}
	radio, err := h.inventory.CheckOut(c.Request.Context(), c.Param("id"), req.UserID, req.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Radio checked out",
		"radio":   radio,
	})
}

// CheckInRadio returns the radio.
func (h *Handler) CheckInRadio(c *gin.Context) {
	radio, err := h.inventory.CheckIn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Radio checked in",
		"radio":   radio,
	})
}

// AddRadioComment appends a comment or a damage report to the radio.
func (h *Handler) AddRadioComment(c *gin.Context) {
	var req models.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	author := req.Author
	if author == "" && req.UserID != "" {
		author = h.users.DisplayName(c.Request.Context(), req.UserID)
	}

	var (
		radio domain.Radio
		err   error
	)
	if req.Kind == "" {
		radio, err = h.inventory.AppendComment(c.Request.Context(), c.Param("id"), author, req.Text)
	} else {
		radio, err = h.inventory.Report(c.Request.Context(), c.Param("id"), author, inventory.ReportKind(req.Kind), req.Text)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment added",
		"radio":   radio,
	})
}
