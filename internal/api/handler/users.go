package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rhymednick/inw-radio-log/internal/api/models"
	"github.com/rhymednick/inw-radio-log/internal/inventory"
	"github.com/rhymednick/inw-radio-log/internal/photo"
)

// GetUsers returns all users, or the single user named by the userID query parameter.
func (h *Handler) GetUsers(c *gin.Context) {
	if userID := c.Query("userID"); userID != "" {
		user, err := h.users.Get(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    user,
		})
		return
	}

	sorted, _ := strconv.ParseBool(c.Query("sorted"))
	list, err := h.users.List(c.Request.Context(), sorted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   list,
	})
}

// SaveUser creates a user when the body has no id and updates the user otherwise.
func (h *Handler) SaveUser(c *gin.Context) {
	var req models.SaveUserRequest
	if !bindJSON(c, &req) {
		return
	}

	var photoData []byte
	if req.ProfilePhoto != "" {
		var err error
		if photoData, err = photo.DecodeDataURL(req.ProfilePhoto); err != nil {
			respondError(c, err)
			return
		}
	}

	if req.ID == "" {
		name := ""
		if req.Name != nil {
			name = *req.Name
		}
		res, err := h.users.Create(c.Request.Context(), name, photoData)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, withWarning(gin.H{
			"success": true,
			"message": "User successfully added",
			"user":    res.User,
		}, res.PhotoErr))
		return
	}

	res, err := h.users.Update(c.Request.Context(), req.ID, req.Name, photoData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{
		"success": true,
		"message": "User successfully updated",
		"user":    res.User,
	}, res.PhotoErr))
}

// DeleteUser removes the user named in the body.
func (h *Handler) DeleteUser(c *gin.Context) {
	var req models.DeleteUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "User ID is required",
		})
		return
	}

	res, err := h.users.Delete(c.Request.Context(), req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{
		"success": true,
		"message": "User deleted successfully",
	}, res.PhotoErr))
}

// GetUserRadios returns the radios checked out to a user with the age of each checkout.
func (h *Handler) GetUserRadios(c *gin.Context) {
	userID := c.Param("id")
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	radios, err := h.inventory.List(c.Request.Context(), inventory.Filter{UserID: userID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"radios":  models.ToHeldRadios(radios, h.now()),
	})
}
