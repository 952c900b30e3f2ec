package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/pod-fulfillment-service/internal/domain"
	"github.com/example/pod-fulfillment-service/internal/signature"
	"github.com/example/pod-fulfillment-service/internal/usecase"
)

const (
	signatureHeader = "X-Partner-Signature"
	bypassHeader    = "X-Webhook-Bypass"
	jobSecretHeader = "X-Job-Secret"

	maxWebhookBody = 1 << 20
)

// Factories собирают сценарии на один запрос: у каждого запроса свой
// клиент Order System со своей сессией.
type Factories struct {
	SyncOrders func() (usecase.SyncOrders, error)
	Reconcile  func() (usecase.ReconcileWebhook, error)
}

type Server struct {
	Router    *mux.Router
	Factories Factories
	UCRecord  usecase.GetSyncRecord
	Verifier  *signature.Verifier
	JobSecret string
	Logger    *slog.Logger
}

func NewServer(f Factories, records usecase.GetSyncRecord, verifier *signature.Verifier, jobSecret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Router:    mux.NewRouter(),
		Factories: f,
		UCRecord:  records,
		Verifier:  verifier,
		JobSecret: jobSecret,
		Logger:    logger.With("component", "httpapi"),
	}
	s.Router.HandleFunc("/api/fulfillment/run", s.handleRun).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/fulfillment/orders/{code}", s.handleRunOne).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/webhooks/partner", s.handleWebhook).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/orders/{code}/sync", s.handleGetRecord).Methods(http.MethodGet)
	s.Router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.Router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.Router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) authorizeJob(r *http.Request) bool {
	if s.JobSecret == "" {
		return true
	}
	provided := r.URL.Query().Get("secret")
	if provided == "" {
		provided = r.Header.Get(jobSecretHeader)
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.JobSecret)) == 1
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeJob(r) {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}
	uc, err := s.Factories.SyncOrders()
	if err != nil {
		s.fail(w, "build sync orders", err)
		return
	}
	res, err := uc.Execute(r.Context())
	if err != nil {
		s.fail(w, "fulfillment run", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRunOne(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeJob(r) {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}
	code := mux.Vars(r)["code"]
	uc, err := s.Factories.SyncOrders()
	if err != nil {
		s.fail(w, "build sync orders", err)
		return
	}
	res, err := uc.ExecuteOne(r.Context(), code)
	if err != nil {
		status := statusFor(err)
		s.Logger.Warn("single order run failed", "order_code", code, "status", status, "err", err)
		writeJSON(w, status, errorBody{Error: err.Error(), Result: &res})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	verdict := s.Verifier.Verify(body, r.Header.Get(signatureHeader), r.Header.Get(bypassHeader))
	if !verdict.OK() {
		s.Logger.Warn("partner webhook rejected", "verdict", string(verdict))
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidSignature.Error())
		return
	}

	uc, err := s.Factories.Reconcile()
	if err != nil {
		s.fail(w, "build reconcile webhook", err)
		return
	}
	out, err := uc.ExecuteRaw(r.Context(), body)
	if err != nil {
		s.fail(w, "partner webhook", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	rec, ok, err := s.UCRecord.Execute(r.Context(), code)
	if err != nil {
		s.fail(w, "get sync record", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"signature_mode": string(s.Verifier.Mode()),
	})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Warn(op+" failed", "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}

// statusFor сопоставляет ошибку со статусом ответа.
func statusFor(err error) int {
	var (
		malformed  *domain.MalformedEventError
		notFound   *domain.OrderNotFoundError
		noFulfill  *domain.NoFulfillmentError
		conflict   *domain.ConflictError
		ineligible *domain.IneligibleOrderError
	)
	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.As(err, &notFound), errors.As(err, &noFulfill):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &ineligible):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error  string              `json:"error"`
	Result *usecase.SyncResult `json:"result,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
