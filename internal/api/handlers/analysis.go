package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/nextbet/internal/models"
	"github.com/codyseavey/nextbet/internal/services"
)

type AnalysisHandler struct {
	controller *services.AppController
	maxBytes   int
}

func NewAnalysisHandler(controller *services.AppController, maxUploadBytes int) *AnalysisHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = services.DefaultMaxUploadBytes
	}
	return &AnalysisHandler{controller: controller, maxBytes: maxUploadBytes}
}

type uploadRequest struct {
	Image string `json:"image"` // data URL or bare base64
}

// UploadImage accepts a screenshot as a multipart "image" file or as JSON
func (h *AnalysisHandler) UploadImage(c *gin.Context) {
	data, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	upload, err := h.controller.UploadImage(data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *AnalysisHandler) readUpload(c *gin.Context) ([]byte, error) {
	if c.ContentType() == "multipart/form-data" {
		file, err := c.FormFile("image")
		if err != nil {
			return nil, services.ErrEmptyImage
		}
		if file.Size > int64(h.maxBytes) {
			return nil, services.ErrImageTooLarge
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		// One extra byte lets the size check downstream see oversize files
		return io.ReadAll(io.LimitReader(f, int64(h.maxBytes)+1))
	}

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		return nil, services.ErrEmptyImage
	}
	data, err := services.DecodeImageRef(req.Image)
	if err != nil {
		return nil, services.ErrUnsupportedImage
	}
	return data, nil
}

func (h *AnalysisHandler) ClearUpload(c *gin.Context) {
	h.controller.ClearUpload()
	c.Status(http.StatusNoContent)
}

type analysisRequest struct {
	Question string `json:"question"`
}

func (h *AnalysisHandler) RunAnalysis(c *gin.Context) {
	var req analysisRequest
	// The body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.controller.RunAnalysis(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type outcomeRequest struct {
	Outcome models.Outcome `json:"outcome" binding:"required"`
}

func (h *AnalysisHandler) SubmitOutcome(c *gin.Context) {
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.controller.SubmitOutcome(req.Outcome)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
