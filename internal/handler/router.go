package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/safarly/booking-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса бронирования.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/hotels", h.SearchHotels)
		r.Get("/hotels/{hotelID}", h.GetHotelDetails)

		r.Get("/orders/{orderRef}/status", h.GetOrderStatus)

		r.Group(func(r chi.Router) {
			r.Use(h.sessionMiddleware.Middleware)

			r.Route("/drafts", func(r chi.Router) {
				r.Post("/", h.CreateDraft)

				r.Route("/{draftID}", func(r chi.Router) {
					r.Get("/", h.GetDraft)

					r.Post("/rates", h.SelectRate)
					r.Delete("/rates/{matchHash}", h.DeselectRate)

					r.Post("/next", h.NextStep)
					r.Post("/previous", h.PreviousStep)

					r.Post("/guests", h.AddGuest)
					r.Delete("/guests/{index}", h.RemoveGuest)

					r.Get("/quote", h.GetQuote)

					r.Post("/promo", h.ApplyPromo)
					r.Delete("/promo", h.ClearPromo)

					r.Post("/checkout", h.Checkout)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
