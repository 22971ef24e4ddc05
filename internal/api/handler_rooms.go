package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/roomfsm"
)

// GetRooms handles GET /rooms.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms, err := h.rooms.List(c.Request.Context(), principal(c).HotelID)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.rooms.Get(c.Request.Context(), principal(c).HotelID, id)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetAllowedStates handles GET /rooms/{id}/allowed-states.
func (h *Handler) GetAllowedStates(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	states, err := h.rooms.AllowedTargets(c.Request.Context(), principal(c).HotelID, id)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, states)
}

type patchRoomStateRequest struct {
	State   model.RoomState `json:"state" binding:"required"`
	Version *int64          `json:"version"`
}

// PatchRoomState handles PATCH /rooms/{id}/state.
func (h *Handler) PatchRoomState(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req patchRoomStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	hotelID := principal(c).HotelID
	version, ok := h.roomVersion(c, hotelID, id, req.Version)
	if !ok {
		return
	}
	room, err := h.rooms.RequestTransition(ctx, hotelID, id, req.State, version)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// roomVersion returns the caller's version, or the one current at the
// start of the request when the caller sent none.
func (h *Handler) roomVersion(c *gin.Context, hotelID, roomID int64, presented *int64) (int64, bool) {
	if presented != nil {
		return *presented, true
	}
	room, err := h.rooms.Get(c.Request.Context(), hotelID, roomID)
	if err != nil {
		writeProblem(c, err)
		return 0, false
	}
	return room.Version, true
}

type patchRoomActiveRequest struct {
	Active  *bool  `json:"active" binding:"required"`
	Version *int64 `json:"version"`
}

// PatchRoomActive handles PATCH /rooms/{id}/active.
func (h *Handler) PatchRoomActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req patchRoomActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	hotelID := principal(c).HotelID
	version, ok := h.roomVersion(c, hotelID, id, req.Version)
	if !ok {
		return
	}
	room, err := h.rooms.SetActive(c.Request.Context(), hotelID, id, *req.Active, version)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /rooms/{id}.
func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rooms.Delete(c.Request.Context(), principal(c).HotelID, id); err != nil {
		writeProblem(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setupRequest struct {
	Floors        int      `json:"floors" binding:"required,min=1"`
	RoomsPerFloor int      `json:"roomsPerFloor" binding:"required,min=1"`
	RoomTypes     []string `json:"roomTypes"`
}

// PostSetup handles POST /rooms/setup.
func (h *Handler) PostSetup(c *gin.Context) {
	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rooms, err := h.rooms.SetupStructure(c.Request.Context(), principal(c).HotelID, roomfsm.Structure{
		Floors:        req.Floors,
		RoomsPerFloor: req.RoomsPerFloor,
		RoomTypes:     req.RoomTypes,
	})
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, rooms)
}
