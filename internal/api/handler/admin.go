package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rhymednick/inw-radio-log/internal/api/models"
	"github.com/rhymednick/inw-radio-log/internal/archive"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
	"github.com/rhymednick/inw-radio-log/internal/scheduler"
	"github.com/rhymednick/inw-radio-log/internal/users"
)

// AdminHandler serves the maintenance endpoints.
type AdminHandler struct {
	maintainer *archive.Maintainer
	ledger     *ledger.Ledger
	users      *users.Registry
	scheduler  *scheduler.Scheduler
}

func NewAdmin(m *archive.Maintainer, l *ledger.Ledger, registry *users.Registry, s *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{
		maintainer: m,
		ledger:     l,
		users:      registry,
		scheduler:  s,
	}
}

// BackupUsers copies the user registry into a timestamped backup.
func (h *AdminHandler) BackupUsers(c *gin.Context) {
	snap, err := h.maintainer.BackupUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User database backed up successfully",
		"backup":  snap,
	})
}

// GetBackups lists the user backups.
func (h *AdminHandler) GetBackups(c *gin.Context) {
	names, err := h.maintainer.Backups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"backups": names,
	})
}

// InitUsers rebuilds the user registry from a directory of photos. An empty
// body uses the configured import directory.
func (h *AdminHandler) InitUsers(c *gin.Context) {
	var req models.InitUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	snap, count, err := h.maintainer.ReinitializeUsers(c.Request.Context(), req.Dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User database initialized successfully",
		"backup":  snap,
		"users":   count,
	})
}

// ArchiveLog moves the checkout log into a timestamped archive.
func (h *AdminHandler) ArchiveLog(c *gin.Context) {
	archived, err := h.maintainer.ArchiveLog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Checkout log archived successfully",
		"archive": archived,
	})
}

// InitInventory creates the configured default radios.
func (h *AdminHandler) InitInventory(c *gin.Context) {
	created, err := h.maintainer.InitializeInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Inventory initialized successfully",
		"created": created,
	})
}

// GetArchives lists the checkout log archives.
func (h *AdminHandler) GetArchives(c *gin.Context) {
	names, err := h.ledger.Archives(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"archives": names,
	})
}

// GetArchive returns the entries of a single checkout log archive.
func (h *AdminHandler) GetArchive(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	entries, err := h.ledger.ReadArchive(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"name":    name,
		"entries": entries,
	})
}

// GetSchedulerJobs returns all scheduler jobs as JSON.
func (h *AdminHandler) GetSchedulerJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobs":    h.scheduler.GetJobs(),
	})
}

// RunSchedulerJob manually triggers a scheduler job.
func (h *AdminHandler) RunSchedulerJob(c *gin.Context) {
	jobID := c.Param("id")
	if _, ok := h.scheduler.GetJob(jobID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "job " + jobID + " not found",
		})
		return
	}

	if err := h.scheduler.RunJobNow(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job triggered successfully",
	})
}

// GetCacheStats returns the user cache statistics.
func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.users.CacheStats(),
	})
}
