package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	service booking.BookingUseCase
}

type calendarDayResponse struct {
	Date     string            `json:"date"`
	Segments []segmentResponse `json:"segments"`
}

type calendarResponse struct {
	Year  int                   `json:"year"`
	Month int                   `json:"month"`
	Days  []calendarDayResponse `json:"days"`
}

func NewCalendarHandler(service booking.BookingUseCase) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Month renders the per-day segment lists backing the calendar grid.
func (h *CalendarHandler) Month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	cal, err := h.service.MonthCalendar(c.Request.Context(), year, time.Month(month))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := calendarResponse{Year: cal.Year, Month: int(cal.Month)}
	for _, day := range cal.Days {
		resp.Days = append(resp.Days, calendarDayResponse{
			Date:     day.Date.String(),
			Segments: toSegmentResponses(day.Segments),
		})
	}
	c.JSON(http.StatusOK, resp)
}
