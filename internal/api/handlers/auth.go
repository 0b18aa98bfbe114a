package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/nextbet/internal/services"
)

// AuthHandler exposes the local session flows. There are no credentials to
// check; a session is just the stored identifier.
type AuthHandler struct {
	controller *services.AppController
}

func NewAuthHandler(controller *services.AppController) *AuthHandler {
	return &AuthHandler{controller: controller}
}

func (h *AuthHandler) GetSession(c *gin.Context) {
	id, ok, err := h.controller.CurrentSession()
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": id})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.controller.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"authenticated": true, "user": id})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.controller.Login(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": id})
}

func (h *AuthHandler) Demo(c *gin.Context) {
	id, err := h.controller.DemoLogin()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": id})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.controller.Logout(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
