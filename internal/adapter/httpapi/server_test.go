package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pod-fulfillment-service/internal/adapter/cache"
	"github.com/example/pod-fulfillment-service/internal/domain"
	"github.com/example/pod-fulfillment-service/internal/mapping"
	"github.com/example/pod-fulfillment-service/internal/signature"
	"github.com/example/pod-fulfillment-service/internal/usecase"
)

type stubOrders struct {
	orders      []domain.Order
	transitions []domain.FulfillmentState
}

func (s *stubOrders) ListOrders(context.Context, domain.OrderListOptions) ([]domain.Order, error) {
	return s.orders, nil
}

func (s *stubOrders) OrderByCode(_ context.Context, code string) (domain.Order, bool, error) {
	for _, o := range s.orders {
		if o.Code == code {
			return o, true, nil
		}
	}
	return domain.Order{}, false, nil
}

func (s *stubOrders) FulfillmentCapability(context.Context) (domain.MutationShape, error) {
	return domain.MutationModern, nil
}

func (s *stubOrders) CreateFulfillment(context.Context, domain.MutationShape, domain.FulfillmentInput) (domain.FulfillmentResult, error) {
	return domain.FulfillmentResult{Success: true, FulfillmentID: "F1", State: domain.FulfillmentPending}, nil
}

func (s *stubOrders) TransitionFulfillment(_ context.Context, id string, state domain.FulfillmentState) (domain.Fulfillment, error) {
	s.transitions = append(s.transitions, state)
	return domain.Fulfillment{ID: id, State: state}, nil
}

func (s *stubOrders) UpdateFulfillmentTracking(context.Context, string, domain.TrackingInfo) error {
	return nil
}

func (s *stubOrders) ProductByID(context.Context, string) (domain.Product, bool, error) {
	return domain.Product{}, false, nil
}

func (s *stubOrders) ProductBySlug(context.Context, string) (domain.Product, bool, error) {
	return domain.Product{}, false, nil
}

type stubPartner struct {
	err error
}

func (p stubPartner) CreateOrder(_ context.Context, req domain.PartnerOrderRequest) (domain.PartnerOrder, error) {
	if p.err != nil {
		return domain.PartnerOrder{}, p.err
	}
	return domain.PartnerOrder{ID: "P-" + req.ExternalID}, nil
}

const webhookSecret = "whsec"

type fixture struct {
	server  *Server
	orders  *stubOrders
	journal *cache.MemoryJournal
}

func newFixture(t *testing.T, partner stubPartner) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table, err := mapping.NewTable(map[string]mapping.Entry{"TEE": {ProductID: "p1", VariantID: 1}})
	require.NoError(t, err)

	orders := &stubOrders{orders: []domain.Order{
		{
			ID:    "1",
			Code:  "ORD1",
			State: domain.OrderPaymentSettled,
			Lines: []domain.OrderLine{{ID: "L1", Quantity: 1, Variant: domain.ProductVariant{SKU: "TEE"}}},
		},
		{
			ID:    "2",
			Code:  "ORD2",
			State: domain.OrderPaymentSettled,
			Lines: []domain.OrderLine{{ID: "L2", Quantity: 1, Variant: domain.ProductVariant{SKU: "TEE"}}},
			Fulfillments: []domain.Fulfillment{
				{ID: "F2", State: domain.FulfillmentPending},
			},
		},
	}}
	journal := cache.NewMemoryJournal()

	factories := Factories{
		SyncOrders: func() (usecase.SyncOrders, error) {
			return usecase.SyncOrders{
				Orders:   orders,
				Partner:  partner,
				Mapping:  table,
				Journal:  journal,
				Options:  usecase.SyncOptions{MaxOrders: 10, EligibleStates: []domain.OrderState{domain.OrderPaymentSettled}},
				Logger:   logger,
				NewRunID: func() string { return "run-1" },
			}, nil
		},
		Reconcile: func() (usecase.ReconcileWebhook, error) {
			return usecase.ReconcileWebhook{Orders: orders, Journal: journal, Logger: logger}, nil
		},
	}
	verifier := signature.NewVerifier(webhookSecret, "letmein", logger)
	server := NewServer(factories, usecase.GetSyncRecord{Journal: journal}, verifier, "jobsecret", logger)
	return fixture{server: server, orders: orders, journal: journal}
}

func (f fixture) do(method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRunRequiresJobSecret(t *testing.T) {
	f := newFixture(t, stubPartner{})

	tests := []struct {
		name     string
		target   string
		headers  map[string]string
		wantCode int
	}{
		{name: "missing", target: "/api/fulfillment/run", wantCode: http.StatusUnauthorized},
		{name: "wrong", target: "/api/fulfillment/run?secret=nope", wantCode: http.StatusUnauthorized},
		{name: "query", target: "/api/fulfillment/run?secret=jobsecret", wantCode: http.StatusOK},
		{name: "header", target: "/api/fulfillment/run", headers: map[string]string{"X-Job-Secret": "jobsecret"}, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, tt.target, "", tt.headers)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestRunReturnsSummary(t *testing.T) {
	f := newFixture(t, stubPartner{})

	w := f.do(http.MethodPost, "/api/fulfillment/run?secret=jobsecret", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, "run-1", out["run_id"])
	assert.Equal(t, float64(2), out["processed"])
	assert.Equal(t, float64(2), out["succeeded"])

	rec, ok, err := f.journal.Get(context.Background(), "ORD1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeSynced, rec.Outcome)
}

func TestRunWrongMethod(t *testing.T) {
	f := newFixture(t, stubPartner{})

	w := f.do(http.MethodGet, "/api/fulfillment/run", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "method not allowed", decode(t, w)["error"])
}

func TestRunOneStatuses(t *testing.T) {
	f := newFixture(t, stubPartner{})
	w := f.do(http.MethodPost, "/api/fulfillment/orders/ORD1?secret=jobsecret", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/fulfillment/orders/NOPE?secret=jobsecret", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	conflicted := newFixture(t, stubPartner{err: &domain.ConflictError{Message: "out of stock"}})
	w = conflicted.do(http.MethodPost, "/api/fulfillment/orders/ORD1?secret=jobsecret", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	out := decode(t, w)
	assert.Contains(t, out["error"], "out of stock")
	assert.NotNil(t, out["result"])
}

func TestRunOneIneligibleOrder(t *testing.T) {
	f := newFixture(t, stubPartner{err: errors.New("partner must not be called")})
	f.orders.orders = append(f.orders.orders, domain.Order{
		ID:    "3",
		Code:  "ORD3",
		State: domain.OrderArrangingPayment,
		Lines: []domain.OrderLine{{ID: "L3", Quantity: 1, Variant: domain.ProductVariant{SKU: "TEE"}}},
	})

	w := f.do(http.MethodPost, "/api/fulfillment/orders/ORD3?secret=jobsecret", "", nil)

	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["error"], "not eligible")
	rec, ok, err := f.journal.Get(context.Background(), "ORD3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeSkipped, rec.Outcome)
}

func TestWebhookSignature(t *testing.T) {
	f := newFixture(t, stubPartner{})
	body := `{"event":"order:shipment:delivered","data":{"external_id":"ORD2"}}`

	w := f.do(http.MethodPost, "/api/webhooks/partner", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/webhooks/partner", body, map[string]string{"X-Partner-Signature": "sha256=deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.orders.transitions, "rejected before any processing")

	sig := signature.Sign([]byte(webhookSecret), []byte(body))
	w = f.do(http.MethodPost, "/api/webhooks/partner", body, map[string]string{"X-Partner-Signature": "sha256=" + sig})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "F2", out["fulfillment_id"])
	assert.Equal(t, "Delivered", out["state"])

	w = f.do(http.MethodPost, "/api/webhooks/partner", body, map[string]string{"X-Webhook-Bypass": "letmein"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookStatuses(t *testing.T) {
	f := newFixture(t, stubPartner{})
	bypass := map[string]string{"X-Webhook-Bypass": "letmein"}

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "malformed json", body: `{"event":`, wantCode: http.StatusBadRequest},
		{name: "missing external id", body: `{"event":"order:shipment:created","data":{}}`, wantCode: http.StatusBadRequest},
		{name: "unknown order", body: `{"event":"order:shipment:created","data":{"external_id":"NOPE"}}`, wantCode: http.StatusNotFound},
		{name: "no fulfillment", body: `{"event":"order:shipment:created","data":{"external_id":"ORD1"}}`, wantCode: http.StatusNotFound},
		{name: "ignored", body: `{"event":"order:created","data":{"external_id":"ORD1"}}`, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/webhooks/partner", tt.body, bypass)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestGetSyncRecord(t *testing.T) {
	f := newFixture(t, stubPartner{})
	require.NoError(t, f.journal.Record(context.Background(), domain.SyncRecord{OrderCode: "ORD1", Outcome: domain.OutcomeFailed, Reason: "x"}))

	w := f.do(http.MethodGet, "/api/orders/ORD1/sync", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failed", decode(t, w)["outcome"])

	w = f.do(http.MethodGet, "/api/orders/NOPE/sync", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, stubPartner{})

	w := f.do(http.MethodGet, "/healthz", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "enforced", decode(t, w)["signature_mode"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(errors.Join(errors.New("login"), domain.ErrUnauthorized)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.ErrUnsupportedBackend))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&domain.MissingMappingError{Key: "X"}))
	assert.Equal(t, http.StatusConflict, statusFor(&domain.IneligibleOrderError{Code: "A", State: domain.OrderCancelled}))
}
