package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"hogar360/internal/delivery/http/controllers"
	"hogar360/internal/delivery/http/helpers"
	"hogar360/internal/delivery/http/middleware"
	"hogar360/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Seller slot management requires a Bearer token; availability search
// and booking are public, with the reserve endpoint rate-limited.
func NewRouter(
	logger *slog.Logger,
	slotController *controllers.SlotController,
	reservationController *controllers.ReservationController,
	verifier domain.TokenVerifier,
	limiter *middleware.RateLimiter,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Seller slot management
	mux.HandleFunc("POST /slots", auth(slotController.CreateSlot))
	mux.HandleFunc("GET /slots", auth(slotController.ListMySlots))
	mux.HandleFunc("DELETE /slots/{slotID}", auth(slotController.DeleteSlot))
	mux.HandleFunc("GET /slots/{slotID}/reservations", auth(reservationController.ListForSlot))

	// Buyer-facing
	mux.HandleFunc("POST /slots/{slotID}/reservations", limiter.Limit(reservationController.Reserve))
	mux.HandleFunc("GET /slots/{slotID}/occupancy", reservationController.Occupancy)
	mux.HandleFunc("GET /visits/available", slotController.SearchAvailable)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
