package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/nextbet/internal/models"
	"github.com/codyseavey/nextbet/internal/services"
)

type HistoryHandler struct {
	controller *services.AppController
}

func NewHistoryHandler(controller *services.AppController) *HistoryHandler {
	return &HistoryHandler{controller: controller}
}

// HistoryEntry is a history item with its display timestamp
type HistoryEntry struct {
	*models.AnalysisResult
	RelativeTime string `json:"relative_time"`
}

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	now := time.Now()
	history := h.controller.History()

	entries := make([]HistoryEntry, 0, len(history))
	for _, r := range history {
		entries = append(entries, HistoryEntry{
			AnalysisResult: r,
			RelativeTime:   services.FormatRelative(r.Timestamp, now),
		})
	}
	c.JSON(http.StatusOK, entries)
}

func (h *HistoryHandler) DeleteEntry(c *gin.Context) {
	h.controller.RemoveHistoryEntry(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *HistoryHandler) ClearHistory(c *gin.Context) {
	h.controller.ClearHistory()
	c.Status(http.StatusNoContent)
}
