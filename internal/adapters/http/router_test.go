package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/adapters/memory"
	"github.com/tradepulse/settlement-service/internal/application"
	"github.com/tradepulse/settlement-service/internal/contracts"
	"github.com/tradepulse/settlement-service/internal/domain"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	repos := memory.NewRepositories(nil)
	svc := application.NewService(application.Dependencies{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Users:        repos.Users,
		Orders:       repos.Orders,
		Commissions:  repos.Commissions,
		Entitlements: repos.Entitlements,
		Withdrawals:  repos.Withdrawals,
		Idempotency:  repos.Idempotency,
		Outbox:       repos.Outbox,
		Codes:        memory.NewCodeStore(nil),
		Limiter:      memory.NewDispatchLimiter(nil),
		Notifier:     memory.NewNotifier(),
	})
	return NewRouter(NewHandler(svc))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func adminHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + uuid.NewString(),
		"X-Actor-Role":  domain.RoleAdmin,
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) contracts.ErrorResponse {
	t.Helper()
	var out contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error envelope: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, router, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s returned %d", path, rec.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/settlement/v1/users/"+uuid.NewString(), nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "unauthorized" {
		t.Errorf("expected unauthorized code, got %q", env.Error.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("every response carries a request id")
	}
}

func TestCreateUserEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/settlement/v1/users", contracts.CreateUserRequest{
		Email: "somchai@example.com",
		Phone: "+66801112222",
	}, adminHeaders())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Status string      `json:"status"`
		Data   domain.User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != "success" {
		t.Errorf("expected success envelope, got %q", envelope.Status)
	}
	if envelope.Data.ReferralCode == "" {
		t.Error("created user must carry a referral code")
	}

	// Same email again maps to a 409 conflict.
	rec = doJSON(t, router, http.MethodPost, "/settlement/v1/users", contracts.CreateUserRequest{
		Email: "somchai@example.com",
		Phone: "+66801112222",
	}, adminHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", rec.Code)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/settlement/v1/users/not-a-uuid", nil, adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/settlement/v1/users/"+uuid.NewString(), nil, adminHeaders())
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "not_found" {
		t.Errorf("expected not_found code, got %q", env.Error.Code)
	}

	// Member settling an order is a policy violation regardless of the order.
	memberHeaders := map[string]string{"Authorization": "Bearer " + uuid.NewString()}
	rec = doJSON(t, router, http.MethodPost, "/settlement/v1/orders/"+uuid.NewString()+"/settle", nil, memberHeaders)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member settle: expected 403, got %d", rec.Code)
	}

	// Withdrawal requests demand an idempotency key up front.
	rec = doJSON(t, router, http.MethodPost, "/settlement/v1/withdrawals", contracts.RequestWithdrawalRequest{
		UserID: uuid.NewString(),
		Amount: 400,
		Destination: contracts.BankDestinationRequest{
			BankName:      "Kasikorn",
			AccountName:   "Somchai J.",
			AccountNumber: "1234567890",
		},
	}, adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing idempotency key: expected 400, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "idempotency_key_required" {
		t.Errorf("expected idempotency_key_required, got %q", env.Error.Code)
	}
}
