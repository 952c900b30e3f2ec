package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/pod-fulfillment-service/internal/config"
	"github.com/example/pod-fulfillment-service/internal/domain"
)

const userAgent = "pod-fulfillment-service/1.0"

// Client — REST-клиент партнёра печати.
type Client struct {
	config     config.PartnerConfig
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.PartnerClient = (*Client)(nil)

func NewClient(cfg config.PartnerConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "partner"),
	}
}

// HTTPStatusError — партнёр ответил статусом вне 2xx.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("partner request failed: %s", e.Status)
	}
	return fmt.Sprintf("partner request failed: %s: %s", e.Status, e.Body)
}

type errorPayload struct {
	Message string `json:"message"`
	Errors  struct {
		Reason string `json:"reason"`
	} `json:"errors"`
}

type orderResponse struct {
	ID        any               `json:"id"`
	Status    string            `json:"status"`
	Shipments []domain.Shipment `json:"shipments"`
}

// CreateOrder создаёт заказ у партнёра. 409 и отказ по наличию
// возвращаются как *domain.ConflictError.
func (c *Client) CreateOrder(ctx context.Context, req domain.PartnerOrderRequest) (domain.PartnerOrder, error) {
	if strings.TrimSpace(c.config.ShopID) == "" {
		return domain.PartnerOrder{}, errors.New("partner shop id is empty")
	}
	endpoint := strings.TrimRight(c.config.BaseUrl, "/") + "/v1/shops/" + url.PathEscape(c.config.ShopID) + "/orders.json"

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return domain.PartnerOrder{}, err
	}
	raw, err := c.apiRequest(ctx, http.MethodPost, endpoint, bodyBytes)
	if err != nil {
		return domain.PartnerOrder{}, classify(err)
	}

	var resp orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.PartnerOrder{}, fmt.Errorf("decode partner order: %w", err)
	}
	id := idString(resp.ID)
	if id == "" {
		return domain.PartnerOrder{}, errors.New("partner order response missing id")
	}
	c.logger.Info("partner order created", "external_id", req.ExternalID, "partner_order_id", id)
	return domain.PartnerOrder{ID: id, Status: resp.Status, Shipments: resp.Shipments}, nil
}

func (c *Client) apiRequest(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	return respBody, nil
}

func classify(err error) error {
	var httpErr *HTTPStatusError
	if !errors.As(err, &httpErr) {
		return err
	}
	msg := httpErr.Body
	var payload errorPayload
	if json.Unmarshal([]byte(httpErr.Body), &payload) == nil {
		parts := make([]string, 0, 2)
		for _, s := range []string{payload.Message, payload.Errors.Reason} {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			msg = strings.Join(parts, ": ")
		}
	}
	if httpErr.StatusCode == http.StatusConflict || isOutOfStock(httpErr.Body) {
		return fmt.Errorf("%w (%s)", &domain.ConflictError{Message: msg}, httpErr.Status)
	}
	return err
}

func isOutOfStock(body string) bool {
	l := strings.ToLower(body)
	return strings.Contains(l, "out of stock") || strings.Contains(l, "out_of_stock") || strings.Contains(l, "out-of-stock")
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}
