package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/booking"
	"hotel-ops-backend/internal/model"
)

type reservationRequest struct {
	RoomID    int64     `json:"roomId" binding:"required"`
	FirstName string    `json:"firstName" binding:"required"`
	LastName  string    `json:"lastName" binding:"required"`
	StartAt   time.Time `json:"startAt" binding:"required"`
	EndAt     time.Time `json:"endAt" binding:"required"`
}

// PostReservation handles POST /reservations for staff bookings.
func (h *Handler) PostReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.booking.Reserve(c.Request.Context(), booking.Request{
		HotelID:   principal(c).HotelID,
		RoomID:    req.RoomID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Start:     req.StartAt,
		End:       req.EndAt,
		Channel:   model.ChannelStaff,
	})
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, res.Reservation)
}

// GetReservations handles GET /reservations?start&end.
func (h *Handler) GetReservations(c *gin.Context) {
	start, end, ok := queryPeriod(c)
	if !ok {
		return
	}
	list, err := h.booking.List(c.Request.Context(), principal(c).HotelID, start, end)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetReservation(c *gin.Context) {
	r, err := h.booking.Get(c.Request.Context(), principal(c).HotelID, c.Param("id"))
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetAllowedStatus handles GET /reservations/{id}/allowed-status.
func (h *Handler) GetAllowedStatus(c *gin.Context) {
	statuses, err := h.booking.AllowedStatuses(c.Request.Context(), principal(c).HotelID, c.Param("id"))
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

type patchReservationStatusRequest struct {
	Status  model.ReservationStatus `json:"status" binding:"required"`
	Version *int64                  `json:"version"`
}

// PatchReservationStatus handles PATCH /reservations/{id}/status.
func (h *Handler) PatchReservationStatus(c *gin.Context) {
	var req patchReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	hotelID := principal(c).HotelID
	id := c.Param("id")

	var version int64
	if req.Version != nil {
		version = *req.Version
	} else {
		current, err := h.booking.Get(ctx, hotelID, id)
		if err != nil {
			writeProblem(c, err)
			return
		}
		version = current.Version
	}

	if _, err := h.booking.UpdateStatus(ctx, hotelID, id, req.Status, version); err != nil {
		writeProblem(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
