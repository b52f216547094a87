package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tradepulse/settlement-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for settlement use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers settlement HTTP routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/settlement/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Post("/users", handler.createUser)
			r.Get("/users/{id}", handler.getUser)
			r.Get("/users/{id}/balance", handler.getBalance)
			r.Get("/users/{id}/commissions", handler.listCommissions)
			r.Get("/users/{id}/entitlements", handler.listEntitlements)

			r.Post("/orders", handler.createOrder)
			r.Get("/orders/{id}", handler.getOrder)
			r.Post("/orders/{id}/settle", handler.settleOrder)
			r.Post("/orders/{id}/fail", handler.failOrder)
			r.Post("/orders/{id}/refund", handler.refundOrder)

			r.Post("/withdrawals", handler.requestWithdrawal)
			r.Get("/withdrawals", handler.listWithdrawals)
			r.Get("/withdrawals/{id}", handler.getWithdrawal)
			r.Post("/withdrawals/{id}/confirm", handler.confirmWithdrawal)
			r.Post("/withdrawals/{id}/approve", handler.approveWithdrawal)
			r.Post("/withdrawals/{id}/reject", handler.rejectWithdrawal)
			r.Post("/withdrawals/{id}/paid", handler.markWithdrawalPaid)
		})
	})
	return r
}
