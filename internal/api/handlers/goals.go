package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/nextbet/internal/services"
)

type GoalHandler struct {
	controller *services.AppController
}

func NewGoalHandler(controller *services.AppController) *GoalHandler {
	return &GoalHandler{controller: controller}
}

func (h *GoalHandler) GetGoals(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Goals())
}

func (h *GoalHandler) RecordProgress(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrInvalidAmount.Error()})
		return
	}

	goals, err := h.controller.RecordProgress(req.Amount.String())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *GoalHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.ResetDailyGoal())
}
