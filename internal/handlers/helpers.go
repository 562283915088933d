package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/michval1/calendar-backend/internal/services"
	"gorm.io/gorm"
)

func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// rangeParams reads the optional start/end query pair (RFC 3339). Both must
// be present for a range to apply.
func rangeParams(ctx *gin.Context) (*time.Time, *time.Time, bool) {
	startParam := ctx.Query("start")
	endParam := ctx.Query("end")

	if startParam == "" || endParam == "" {
		return nil, nil, true
	}

	start, err := time.Parse(time.RFC3339, startParam)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time"})
		return nil, nil, false
	}
	end, err := time.Parse(time.RFC3339, endParam)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end time"})
		return nil, nil, false
	}
	return &start, &end, true
}

func respondServiceError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEndNotAfterStart):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
