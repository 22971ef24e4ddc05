package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/roomfsm"
)

type putSubscriptionRequest struct {
	Endpoint string            `json:"endpoint" binding:"required"`
	P256DH   string            `json:"p256dh" binding:"required"`
	Auth     string            `json:"auth" binding:"required"`
	States   []model.RoomState `json:"states"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	for _, s := range req.States {
		if !roomfsm.Valid(s) {
			writeProblem(c, apperr.Validation("unknown room state %q", s))
			return
		}
	}

	p := principal(c)
	if existing, err := h.store.GetSubscription(c.Request.Context(), req.Endpoint); err == nil && existing.HotelID != p.HotelID {
		writeProblem(c, apperr.Conflict("endpoint is registered for another hotel"))
		return
	}

	sub := model.PushSubscription{
		Endpoint:   req.Endpoint,
		P256DH:     req.P256DH,
		Auth:       req.Auth,
		HotelID:    p.HotelID,
		EmployeeID: p.EmployeeID,
	}
	if err := h.store.SaveSubscription(c.Request.Context(), sub, req.States); err != nil {
		writeProblem(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, ok := h.ownSubscription(c, req.Endpoint); !ok {
		return
	}
	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		writeProblem(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// rawQueryParam returns key from the raw query without URL decoding, so
// endpoints containing encoded characters are matched byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription. The endpoint
// may be sent raw or percent-encoded.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		writeProblem(c, apperr.Validation("endpoint is required"))
		return
	}
	endpoint := raw
	if !strings.Contains(raw, "://") {
		if decoded, err := url.QueryUnescape(raw); err == nil {
			endpoint = decoded
		}
	}

	sub, ok := h.ownSubscription(c, endpoint)
	if !ok {
		return
	}
	states := make([]model.RoomState, len(sub.Topics))
	for i, topic := range sub.Topics {
		states[i] = topic.State
	}
	c.JSON(http.StatusOK, gin.H{"states": states})
}

func (h *Handler) ownSubscription(c *gin.Context, endpoint string) (model.PushSubscription, bool) {
	sub, err := h.store.GetSubscription(c.Request.Context(), endpoint)
	if err == nil && sub.HotelID != principal(c).HotelID {
		err = apperr.NotFound("subscription not found")
	}
	if err != nil {
		writeProblem(c, err)
		return model.PushSubscription{}, false
	}
	return sub, true
}
