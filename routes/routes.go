package routes

import (
	"github.com/julienschmidt/httprouter"

	"thangd/auth"
	"thangd/booking"
	"thangd/changefeed"
	"thangd/middleware"
	"thangd/ratelim"
	"thangd/thang"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *auth.Handler) {
	router.POST("/api/auth/register", rl.Limit(h.Register))
	router.POST("/api/auth/login", rl.Limit(h.Login))
}

func AddThangRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *thang.Handler) {
	router.POST("/api/thangs", rl.Limit(middleware.Authenticate(h.Create)))
	router.GET("/api/me/thangs", middleware.Authenticate(h.Mine))
	router.GET("/api/thangs/:id", h.Get)
	router.PUT("/api/thangs/:id", rl.Limit(middleware.Authenticate(h.Update)))
	router.DELETE("/api/thangs/:id", middleware.Authenticate(h.Delete))
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *booking.Handler) {
	router.POST("/api/bookings", rl.Limit(middleware.Authenticate(h.Create)))
	router.DELETE("/api/bookings/:id", middleware.Authenticate(h.Delete))
	router.GET("/api/thangs/:id/bookings", h.List)
}

func AddFeedRoutes(router *httprouter.Router, h *changefeed.WSHandler) {
	router.GET("/ws/bookings/:thangid", h.BookingChanges)
	router.GET("/ws/thangs/:target", h.ThangChanges)
}
