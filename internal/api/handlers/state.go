package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/nextbet/internal/models"
	"github.com/codyseavey/nextbet/internal/services"
)

type StateHandler struct {
	controller *services.AppController
}

func NewStateHandler(controller *services.AppController) *StateHandler {
	return &StateHandler{controller: controller}
}

func (h *StateHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State())
}

type navigateRequest struct {
	Screen models.Screen `json:"screen" binding:"required"`
}

func (h *StateHandler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shown, err := h.controller.Navigate(req.Screen)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"screen": shown})
}

// amountRequest accepts the amount as typed, either a JSON number or a string
type amountRequest struct {
	Amount json.Number `json:"amount"`
}

func (h *StateHandler) UpdateBankroll(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrInvalidAmount.Error()})
		return
	}

	if err := h.controller.UpdateBankroll(req.Amount.String()); err != nil {
		respondError(c, err)
		return
	}

	st := h.controller.State()
	c.JSON(http.StatusOK, gin.H{
		"bankroll": st.Bankroll,
		"goals":    st.Goals,
	})
}

type modeRequest struct {
	Mode models.Mode `json:"mode" binding:"required"`
}

func (h *StateHandler) SelectMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.controller.SelectMode(req.Mode); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": req.Mode})
}

type premiumRequest struct {
	Premium *bool `json:"premium"`
}

func (h *StateHandler) SetPremium(c *gin.Context) {
	var req premiumRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Premium == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "premium must be true or false"})
		return
	}

	h.controller.SetPremium(*req.Premium)
	c.JSON(http.StatusOK, gin.H{"premium": *req.Premium})
}
