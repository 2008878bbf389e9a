package api

import (
	"errors"
	"net/http"

	"github.com/MikeHotel0815/casa-belegung-app/internal/service/booking"
	"github.com/MikeHotel0815/casa-belegung-app/internal/service/users"
	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrInvalidDateRange),
		errors.Is(err, booking.ErrMissingOwner),
		errors.Is(err, booking.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrCommittedOverlap):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
