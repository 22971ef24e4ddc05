package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/booking"
	"hotel-ops-backend/internal/model"
)

// GetAvailableRooms handles GET /public/hotels/{hotelId}/rooms/available.
func (h *Handler) GetAvailableRooms(c *gin.Context) {
	hotelID, ok := pathID(c, "hotelId")
	if !ok {
		return
	}
	start, end, ok := queryPeriod(c)
	if !ok {
		return
	}
	rooms, err := h.booking.ListAvailable(c.Request.Context(), hotelID, start, end)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

type publicReservationRequest struct {
	HotelID   int64     `json:"hotelId" binding:"required"`
	RoomID    int64     `json:"roomId" binding:"required"`
	FirstName string    `json:"firstName" binding:"required"`
	LastName  string    `json:"lastName" binding:"required"`
	StartAt   time.Time `json:"startAt" binding:"required"`
	EndAt     time.Time `json:"endAt" binding:"required"`
}

type publicReservationResponse struct {
	ReservationID     string `json:"reservationId"`
	Email             string `json:"email"`
	GeneratedPassword string `json:"generatedPassword"`
}

// PostPublicReservation handles POST /public/reservations. The generated
// password appears in this response only.
func (h *Handler) PostPublicReservation(c *gin.Context) {
	var req publicReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.booking.Reserve(c.Request.Context(), booking.Request{
		HotelID:   req.HotelID,
		RoomID:    req.RoomID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Start:     req.StartAt,
		End:       req.EndAt,
		Channel:   model.ChannelPublic,
	})
	if err != nil {
		writeProblem(c, err)
		return
	}

	resp := publicReservationResponse{ReservationID: res.Reservation.ID}
	if res.Credentials != nil {
		resp.Email = res.Credentials.Email
		resp.GeneratedPassword = res.Credentials.Password
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, resp)
}
