package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adesina-dev/panelpay/internal/config"
	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testJWTSecret = "0123456789abcdef0123456789abcdef"
	testHMACKey   = "whsec_router_test"
)

// routerStore is a minimal in-memory store behind the routed services.
type routerStore struct {
	profiles    map[uuid.UUID]*models.Profile
	byCode      map[string]*models.Profile
	services    map[int64]*models.Service
	withdrawals []*models.Withdrawal
	orders      []*models.Order
	settlements map[string]*models.Settlement
}

func newRouterStore() *routerStore {
	return &routerStore{
		profiles:    make(map[uuid.UUID]*models.Profile),
		byCode:      make(map[string]*models.Profile),
		services:    make(map[int64]*models.Service),
		settlements: make(map[string]*models.Settlement),
	}
}

func (s *routerStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (s *routerStore) GetProfileByReferralCode(_ context.Context, code string) (*models.Profile, error) {
	p, ok := s.byCode[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (s *routerStore) CreateProfile(_ context.Context, p *models.Profile) error {
	s.profiles[p.ID] = p
	s.byCode[p.ReferralCode] = p
	return nil
}

func (s *routerStore) CreateReferral(_ context.Context, _, _ uuid.UUID) error { return nil }

func (s *routerStore) SettleDeposit(_ context.Context, reference string, _ decimal.Decimal) (*models.Settlement, error) {
	settlement, ok := s.settlements[reference]
	if !ok {
		return nil, models.ErrNotFound
	}
	return settlement, nil
}

func (s *routerStore) CreateWithdrawal(_ context.Context, w *models.Withdrawal) error {
	s.withdrawals = append(s.withdrawals, w)
	return nil
}

func (s *routerStore) GetService(_ context.Context, id int64) (*models.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return svc, nil
}

func (s *routerStore) PlaceOrder(_ context.Context, order *models.Order) error {
	p, ok := s.profiles[order.UserID]
	if !ok {
		return models.ErrNotFound
	}
	if p.Balance.LessThan(order.TotalPrice) {
		return models.ErrInsufficientFunds
	}
	p.Balance = p.Balance.Sub(order.TotalPrice)
	s.orders = append(s.orders, order)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          testJWTSecret,
		JWTIssuer:          "panelpay",
		JWTAudience:        "panelpay-api",
		WebhookHMACKey:     testHMACKey,
		PublicRateLimitRPS: 100,
		AuthRateLimitRPS:   100,
	}
}

func newTestServer(t *testing.T, store *routerStore) *httptest.Server {
	t.Helper()
	svcs := Services{
		Reconciler:  service.NewReconcilerService(store, testHMACKey, false),
		Orders:      service.NewOrderService(store),
		Withdrawals: service.NewWithdrawalService(store),
		Profiles:    service.NewProfileService(store),
	}
	router := NewRouter(testConfig(), zap.NewNop(), nil, nil, nil, nil, svcs)
	srv := httptest.NewServer(router.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func mintToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"sub":     userID.String(),
		"iss":     "panelpay",
		"aud":     "panelpay-api",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func signWebhook(body []byte) string {
	h := hmac.New(sha256.New, []byte(testHMACKey))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebhookSettlesDeposit(t *testing.T) {
	store := newRouterStore()
	owner := uuid.New()
	store.settlements["DEP_1"] = &models.Settlement{Reference: "DEP_1", OwnerID: owner, Credited: true}
	srv := newTestServer(t, store)

	body := []byte(`{"event":"charge.success","data":{"reference":"DEP_1","amount":500000}}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/webhooks/deposits", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Webhook-Signature", signWebhook(body))

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result service.WebhookResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, service.OutcomeSettled, result.Outcome)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	srv := newTestServer(t, newRouterStore())

	body := []byte(`{"event":"charge.success","data":{"reference":"DEP_1","amount":500000}}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/webhooks/deposits", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Webhook-Signature", "deadbeef")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticatedRoutesRejectMissingToken(t *testing.T) {
	srv := newTestServer(t, newRouterStore())

	resp := doJSON(t, srv, http.MethodPost, "/v1/orders", "", map[string]any{"service_id": 1})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPlaceOrderEndpoint(t *testing.T) {
	store := newRouterStore()
	userID := uuid.New()
	store.profiles[userID] = &models.Profile{ID: userID, Balance: decimal.RequireFromString("1000"), Role: "user"}
	store.services[1] = &models.Service{ID: 1, PricePerUnit: decimal.RequireFromString("2.5"), MinQuantity: 10, MaxQuantity: 1000, ProviderServiceID: "p-1"}
	srv := newTestServer(t, store)

	resp := doJSON(t, srv, http.MethodPost, "/v1/orders", mintToken(t, userID, "user"), map[string]any{
		"service_id": 1,
		"quantity":   100,
		"link":       "https://example.com/p/1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	require.Equal(t, domain.OrderPending, order.Status)
	require.Equal(t, "750", store.profiles[userID].Balance.String())
}

func TestWithdrawalResponseEnvelope(t *testing.T) {
	store := newRouterStore()
	userID := uuid.New()
	store.profiles[userID] = &models.Profile{ID: userID, Balance: decimal.RequireFromString("5000"), Role: "user"}
	srv := newTestServer(t, store)

	resp := doJSON(t, srv, http.MethodPost, "/v1/withdrawals", mintToken(t, userID, "user"), map[string]any{
		"amount":        "2000",
		"accountName":   "Ada Obi",
		"accountNumber": "0123456789",
		"bank":          "GTB",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success    bool              `json:"success"`
		Withdrawal models.Withdrawal `json:"withdrawal"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.Equal(t, domain.WithdrawalPending, envelope.Withdrawal.Status)
}

func TestEnrollEndpoint(t *testing.T) {
	store := newRouterStore()
	srv := newTestServer(t, store)
	userID := uuid.New()

	resp := doJSON(t, srv, http.MethodPost, "/v1/profiles", mintToken(t, userID, "user"), map[string]string{
		"email": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var profile models.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	require.Equal(t, userID, profile.ID)
	require.Contains(t, store.profiles, userID)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	srv := newTestServer(t, newRouterStore())

	resp := doJSON(t, srv, http.MethodPost, "/v1/admin/dispatch/run", mintToken(t, uuid.New(), "user"), nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, newRouterStore())

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
