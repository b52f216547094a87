package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/application"
	"github.com/tradepulse/settlement-service/internal/contracts"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	user, err := h.service.CreateUser(r.Context(), actor, application.CreateUserInput{
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		ReferrerCode: strings.TrimSpace(req.ReferrerCode),
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", user)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), actor, userID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", user)
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	balance, err := h.service.GetBalance(r.Context(), actor, userID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.BalanceResponse{
		UserID:  userID.String(),
		Balance: balance,
	})
}

func (h *Handler) listCommissions(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntOrDefault(r.URL.Query().Get("offset"), 0)
	out, err := h.service.ListCommissionsByUser(r.Context(), actor, userID, limit, offset)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items":      out.Items,
		"pagination": contracts.Pagination{Limit: limit, Offset: offset, Total: out.Total},
	})
}

func (h *Handler) listEntitlements(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	items, err := h.service.ListEntitlementsByUser(r.Context(), actor, userID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"items": items})
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "malformed identifier", requestIDFromContext(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}

func parseIntOrDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
