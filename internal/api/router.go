package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/mw"
)

const (
	roleManager = "manager"
	roleAdmin   = "admin"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, server config.ServerConfig, auth config.AuthConfig) *gin.Engine {
	// Request bodies are strict contracts.
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.Default()
	r.SetTrustedProxies(nil)

	corsConfig := cors.DefaultConfig()
	corsConfig.AddAllowHeaders("Authorization")
	if len(server.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = server.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	rateLimiter := mw.RateLimiter(rate.Limit(server.RateLimitPerSec), server.RateLimitBurst)

	ttl := time.Duration(server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	public := r.Group("/public")
	public.Use(rateLimiter)
	{
		public.GET("/hotels/:hotelId/rooms/available", caching, h.GetAvailableRooms)
		public.POST("/reservations", h.PostPublicReservation)
	}

	r.GET("/push/vapid-public-key", h.GetVAPIDPublicKey)

	authed := r.Group("/")
	authed.Use(mw.Auth(auth.JWTSecret))
	managers := mw.RequireRoles(roleManager, roleAdmin)
	{
		authed.GET("/rooms", h.GetRooms)
		authed.POST("/rooms/setup", managers, h.PostSetup)
		authed.GET("/rooms/:id", h.GetRoom)
		authed.GET("/rooms/:id/allowed-states", h.GetAllowedStates)
		authed.PATCH("/rooms/:id/state", h.PatchRoomState)
		authed.PATCH("/rooms/:id/active", managers, h.PatchRoomActive)
		authed.DELETE("/rooms/:id", managers, h.DeleteRoom)

		authed.POST("/reservations", h.PostReservation)
		authed.GET("/reservations", h.GetReservations)
		authed.GET("/reservations/:id", h.GetReservation)
		authed.GET("/reservations/:id/allowed-status", h.GetAllowedStatus)
		authed.PATCH("/reservations/:id/status", h.PatchReservationStatus)

		authed.GET("/attendance/codes/current", h.GetCurrentCode)
		authed.POST("/attendance/codes/regenerate", managers, h.PostRegenerateCode)
		authed.POST("/attendance/check-in", h.PostCheckIn)
		authed.POST("/attendance/check-out", h.PostCheckOut)
		authed.PATCH("/attendance/check-out", h.PostCheckOut)
		authed.GET("/attendance", managers, h.GetAttendance)
		authed.GET("/attendance/me", h.GetMyAttendance)

		authed.GET("/push/subscriptions", h.GetSubscription)
		authed.PUT("/push/subscriptions", h.PutSubscription)
		authed.DELETE("/push/subscriptions", h.DeleteSubscription)
	}

	return r
}
