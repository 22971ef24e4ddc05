// Package roomfsm owns the room lifecycle: the single authoritative
// transition table and the service that applies version-checked
// transitions to rooms.
package roomfsm

import "hotel-ops-backend/internal/model"

// States lists every room state in declaration order.
var States = []model.RoomState{
	model.RoomLibre,
	model.RoomReservee,
	model.RoomCheckin,
	model.RoomRoomService,
	model.RoomCheckout,
	model.RoomAValiderLibre,
	model.RoomANettoyer,
	model.RoomEnNettoyage,
	model.RoomAValiderClean,
	model.RoomMaintenance,
	model.RoomInactive,
}

// transitions is the canonical table. LIBRE does not lead to ROOM_SERVICE.
var transitions = map[model.RoomState][]model.RoomState{
	model.RoomLibre:         {model.RoomReservee, model.RoomCheckin, model.RoomMaintenance, model.RoomInactive},
	model.RoomReservee:      {model.RoomCheckin, model.RoomAValiderLibre, model.RoomLibre},
	model.RoomCheckin:       {model.RoomRoomService, model.RoomCheckout},
	model.RoomRoomService:   {model.RoomCheckin, model.RoomCheckout},
	model.RoomCheckout:      {model.RoomAValiderLibre, model.RoomANettoyer},
	model.RoomAValiderLibre: {model.RoomCheckin, model.RoomANettoyer},
	model.RoomANettoyer:     {model.RoomEnNettoyage},
	model.RoomEnNettoyage:   {model.RoomAValiderClean},
	model.RoomAValiderClean: {model.RoomLibre, model.RoomANettoyer},
	model.RoomMaintenance:   {model.RoomLibre},
	model.RoomInactive:      {model.RoomLibre},
}

// Valid reports whether s is a known room state.
func Valid(s model.RoomState) bool {
	_, ok := transitions[s]
	return ok
}

// AllowedTargets returns the states reachable from s in one step. The
// result is a fresh slice in table order; unknown states have none.
func AllowedTargets(s model.RoomState) []model.RoomState {
	targets := transitions[s]
	out := make([]model.RoomState, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to model.RoomState) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
