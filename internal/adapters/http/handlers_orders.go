package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/application"
	"github.com/tradepulse/settlement-service/internal/contracts"
	"github.com/tradepulse/settlement-service/internal/domain"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	buyerID, err := uuid.Parse(strings.TrimSpace(req.BuyerID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed buyer_id", requestIDFromContext(r.Context()))
		return
	}
	order, err := h.service.CreateOrder(r.Context(), actor, application.CreateOrderInput{
		BuyerID:         buyerID,
		Kind:            domain.ProductKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Amount:          req.Amount,
		PurchasedMonths: req.PurchasedMonths,
		BonusMonths:     req.BonusMonths,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", order)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.service.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", order)
}

func (h *Handler) settleOrder(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.service.SettleOrder(r.Context(), actor, orderID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.SettleOrderResponse{
		OrderID:          out.Order.OrderID.String(),
		Status:           string(out.Order.Status),
		DistributedCount: out.DistributedCount,
		DistributedTotal: out.DistributedTotal,
	})
}

func (h *Handler) failOrder(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.service.FailOrder(r.Context(), actor, orderID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", order)
}

func (h *Handler) refundOrder(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.service.RefundOrder(r.Context(), actor, orderID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", order)
}
