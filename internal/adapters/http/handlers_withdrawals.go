package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/application"
	"github.com/tradepulse/settlement-service/internal/contracts"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
)

func (h *Handler) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.RequestWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed user_id", requestIDFromContext(r.Context()))
		return
	}
	withdrawal, err := h.service.RequestWithdrawal(r.Context(), actor, application.RequestWithdrawalInput{
		UserID: userID,
		Amount: req.Amount,
		Destination: domain.BankDestination{
			BankName:      strings.TrimSpace(req.Destination.BankName),
			AccountName:   strings.TrimSpace(req.Destination.AccountName),
			AccountNumber: strings.TrimSpace(req.Destination.AccountNumber),
		},
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", withdrawal)
}

func (h *Handler) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	query := ports.WithdrawalQuery{
		Status: domain.WithdrawalStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))),
		Limit:  parseIntOrDefault(r.URL.Query().Get("limit"), 20),
		Offset: parseIntOrDefault(r.URL.Query().Get("offset"), 0),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "malformed user_id", requestIDFromContext(r.Context()))
			return
		}
		query.UserID = userID
	}
	out, err := h.service.ListWithdrawals(r.Context(), actor, query)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items":      out.Items,
		"pagination": contracts.Pagination{Limit: query.Limit, Offset: query.Offset, Total: out.Total},
	})
}

func (h *Handler) getWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	withdrawalID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	withdrawal, err := h.service.GetWithdrawal(r.Context(), actor, withdrawalID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", withdrawal)
}

func (h *Handler) confirmWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	withdrawalID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req contracts.ConfirmWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	result, withdrawal, err := h.service.ConfirmWithdrawalCode(r.Context(), actor, withdrawalID, req.Code)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	status := http.StatusOK
	if result != application.ConfirmResultOK {
		status = http.StatusUnprocessableEntity
	}
	writeSuccess(w, status, "", contracts.ConfirmWithdrawalResponse{
		WithdrawalID: withdrawalID.String(),
		Result:       string(result),
		Status:       string(withdrawal.Status),
	})
}

func (h *Handler) approveWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	withdrawalID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	withdrawal, err := h.service.ApproveWithdrawal(r.Context(), actor, withdrawalID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", withdrawal)
}

func (h *Handler) rejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	withdrawalID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req contracts.RejectWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	withdrawal, err := h.service.RejectWithdrawal(r.Context(), actor, withdrawalID, req.Reason)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", withdrawal)
}

func (h *Handler) markWithdrawalPaid(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	withdrawalID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	withdrawal, err := h.service.MarkWithdrawalPaid(r.Context(), actor, withdrawalID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", withdrawal)
}
