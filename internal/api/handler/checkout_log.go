package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rhymednick/inw-radio-log/internal/api/models"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
)

// GetCheckoutLog returns the log entries matching every given query parameter.
func (h *Handler) GetCheckoutLog(c *gin.Context) {
	entries, err := h.ledger.Query(c.Request.Context(), ledger.Filter{
		RadioID: c.Query("radioID"),
		UserID:  c.Query("userID"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": entries,
	})
}

// AppendCheckoutLog records a log entry.
func (h *Handler) AppendCheckoutLog(c *gin.Context) {
	var req models.AppendLogRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.ledger.Append(c.Request.Context(), req.RadioID, req.UserID, req.Operation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Log entry added successfully",
		"entry":   entry,
	})
}
