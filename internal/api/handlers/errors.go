package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/nextbet/internal/services"
)

// statusFor maps controller errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidScreen),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrInvalidOutcome),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrEmptyImage),
		errors.Is(err, services.ErrUnsupportedImage),
		errors.Is(err, services.ErrNoImage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrPremiumRequired):
		return http.StatusForbidden
	case errors.Is(err, services.ErrCooldownActive),
		errors.Is(err, services.ErrAnalysisInFlight),
		errors.Is(err, services.ErrNoCurrentAnalysis),
		errors.Is(err, services.ErrOutcomeRecorded):
		return http.StatusConflict
	case errors.Is(err, services.ErrMalformedImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("API: %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
