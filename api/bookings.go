package api

import (
	"net/http"

	"github.com/MikeHotel0815/casa-belegung-app/internal/dateutil"
	"github.com/MikeHotel0815/casa-belegung-app/internal/domain"
	"github.com/MikeHotel0815/casa-belegung-app/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Status    string `json:"status"`
	UserID    string `json:"user_id"`
}

type updateBookingRequest struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Status    *string `json:"status"`
	UserID    *string `json:"user_id"`
}

type segmentResponse struct {
	ID                string `json:"id"`
	OriginalRequestID string `json:"original_request_id,omitempty"`
	UserID            string `json:"user_id"`
	UserName          string `json:"user_name"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Status            string `json:"status"`
	PropertyID        string `json:"property_id"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.remove)
}

func (h *BookingHandler) list(c *gin.Context) {
	filter := booking.ListFilter{
		Status: domain.SegmentStatus(c.Query("status")),
		Query:  c.Query("q"),
	}

	segments, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSegmentResponses(segments))
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		abortWithError(c, booking.ErrMissingOwner)
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := dateutil.ParseDate(req.StartDate)
	if err != nil {
		abortWithError(c, booking.ErrInvalidDateRange)
		return
	}
	end, err := dateutil.ParseDate(req.EndDate)
	if err != nil {
		abortWithError(c, booking.ErrInvalidDateRange)
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), actor, booking.CreateBookingInput{
		StartDate: start,
		EndDate:   end,
		Status:    domain.SegmentStatus(req.Status),
		UserID:    req.UserID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSegmentResponses(created))
}

func (h *BookingHandler) update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		abortWithError(c, booking.ErrMissingOwner)
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := booking.UpdateBookingInput{UserID: req.UserID}
	if req.StartDate != nil {
		start, err := dateutil.ParseDate(*req.StartDate)
		if err != nil {
			abortWithError(c, booking.ErrInvalidDateRange)
			return
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := dateutil.ParseDate(*req.EndDate)
		if err != nil {
			abortWithError(c, booking.ErrInvalidDateRange)
			return
		}
		patch.EndDate = &end
	}
	if req.Status != nil {
		status := domain.SegmentStatus(*req.Status)
		patch.Status = &status
	}

	updated, err := h.service.UpdateBooking(c.Request.Context(), actor, c.Param("id"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSegmentResponse(*updated))
}

func (h *BookingHandler) remove(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		abortWithError(c, booking.ErrMissingOwner)
		return
	}

	removed, err := h.service.DeleteBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": toSegmentResponses(removed)})
}

// Availability reports whether a range is free of committed segments.
func (h *BookingHandler) Availability(c *gin.Context) {
	start, err := dateutil.ParseDate(c.Query("start"))
	if err != nil {
		abortWithError(c, booking.ErrInvalidDateRange)
		return
	}
	end, err := dateutil.ParseDate(c.Query("end"))
	if err != nil {
		abortWithError(c, booking.ErrInvalidDateRange)
		return
	}

	available, err := h.service.IsRangeAvailable(c.Request.Context(), start, end, c.Query("exclude"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

func toSegmentResponse(seg domain.Segment) segmentResponse {
	return segmentResponse{
		ID:                seg.ID,
		OriginalRequestID: seg.OriginalRequestID,
		UserID:            seg.UserID,
		UserName:          seg.UserName,
		StartDate:         seg.StartDate.String(),
		EndDate:           seg.EndDate.String(),
		Status:            string(seg.Status),
		PropertyID:        seg.PropertyID,
	}
}

func toSegmentResponses(segments []domain.Segment) []segmentResponse {
	out := make([]segmentResponse, 0, len(segments))
	for _, seg := range segments {
		out = append(out, toSegmentResponse(seg))
	}
	return out
}
