package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"hotel-ops-backend/internal/attendance"
	"hotel-ops-backend/internal/booking"
	"hotel-ops-backend/internal/roomfsm"
	"hotel-ops-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	rooms      *roomfsm.Service
	booking    *booking.Engine
	attendance *attendance.Service
	webpush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, rooms *roomfsm.Service, engine *booking.Engine, att *attendance.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:      s,
		rooms:      rooms,
		booking:    engine,
		attendance: att,
		webpush:    webpushOptions,
	}
}
