package booking

import "hotel-ops-backend/internal/model"

var statusTransitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.ReservationPending:   {model.ReservationConfirmed, model.ReservationCanceled},
	model.ReservationConfirmed: {model.ReservationCheckedIn, model.ReservationNoShow, model.ReservationCanceled},
	model.ReservationCheckedIn: {model.ReservationCompleted},
	model.ReservationNoShow:    {},
	model.ReservationCanceled:  {},
	model.ReservationCompleted: {},
}

// ValidStatus reports whether s is a known reservation status.
func ValidStatus(s model.ReservationStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// AllowedStatuses returns the statuses a reservation in s may move to.
// Terminal statuses yield an empty slice.
func AllowedStatuses(s model.ReservationStatus) []model.ReservationStatus {
	targets := statusTransitions[s]
	out := make([]model.ReservationStatus, len(targets))
	copy(out, targets)
	return out
}

func CanChangeStatus(from, to model.ReservationStatus) bool {
	for _, t := range statusTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// roomEffect is the room state a reservation status drives, if any.
func roomEffect(to model.ReservationStatus) (model.RoomState, bool) {
	switch to {
	case model.ReservationCheckedIn:
		return model.RoomCheckin, true
	case model.ReservationCompleted:
		return model.RoomCheckout, true
	case model.ReservationCanceled, model.ReservationNoShow:
		return model.RoomLibre, true
	}
	return "", false
}
