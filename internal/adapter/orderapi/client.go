package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/example/pod-fulfillment-service/internal/config"
	"github.com/example/pod-fulfillment-service/internal/domain"
)

const authTokenHeader = "vendure-auth-token"

// Client — клиент GraphQL admin API Order System. Создаётся на одно
// обращение (прогон или вебхук): сессия и результат проверки возможностей
// живут только в нём.
type Client struct {
	config     config.OrderAPIConfig
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	session  session
	shape    domain.MutationShape
	shapeSet bool
}

// session — состояние аутентификации. Меняется только в authenticate.
type session struct {
	loggedIn bool
	token    string
}

var _ domain.OrderSystem = (*Client)(nil)

func NewClient(cfg config.OrderAPIConfig, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseUrl) == "" {
		return nil, errors.New("order api base url is empty")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Jar: jar},
		logger:     logger.With("component", "orderapi"),
	}, nil
}

// HTTPStatusError — Order System ответил статусом вне 2xx.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("order api request failed: %s", e.Status)
	}
	return fmt.Sprintf("order api request failed: %s: %s", e.Status, e.Body)
}

const loginMutation = `
mutation login($username: String!, $password: String!) {
	login(username: $username, password: $password, rememberMe: false) {
		__typename
		... on CurrentUser { id identifier }
		... on ErrorResult { errorCode message }
	}
}`

func (c *Client) authenticate(ctx context.Context) error {
	c.mu.Lock()
	loggedIn := c.session.loggedIn
	c.mu.Unlock()
	if loggedIn {
		return nil
	}

	var data loginData
	token, err := c.do(ctx, loginMutation, map[string]any{
		"username": c.config.Username,
		"password": c.config.Password,
	}, &data)
	if err != nil {
		return fmt.Errorf("order api login: %w", err)
	}
	if data.Login.Typename != "CurrentUser" && data.Login.ID == "" {
		msg := strings.TrimSpace(data.Login.Message)
		if msg == "" {
			msg = data.Login.ErrorCode
		}
		return fmt.Errorf("order api login rejected: %s: %w", msg, domain.ErrUnauthorized)
	}

	c.mu.Lock()
	c.session = session{loggedIn: true, token: token}
	c.mu.Unlock()
	c.logger.Debug("authenticated", "identifier", data.Login.Identifier)
	return nil
}

// graphqlRequest выполняет аутентифицированный запрос.
func (c *Client) graphqlRequest(ctx context.Context, query string, variables map[string]any, out any) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}
	_, err := c.do(ctx, query, variables, out)
	return err
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) (string, error) {
	payload := graphQLRequest{
		Query:     strings.TrimSpace(query),
		Variables: variables,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(c.config.BaseUrl, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.mu.Lock()
	token := c.session.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var gqlResp graphQLResponse[json.RawMessage]
	if err := json.Unmarshal(raw, &gqlResp); err != nil {
		return "", fmt.Errorf("decode order api response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return "", fmt.Errorf("order api graphql errors: %s", formatGraphQLErrors(gqlResp.Errors))
	}
	if out != nil {
		if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
			return "", errors.New("order api graphql response missing data")
		}
		if err := json.Unmarshal(gqlResp.Data, out); err != nil {
			return "", fmt.Errorf("decode order api data: %w", err)
		}
	}
	return resp.Header.Get(authTokenHeader), nil
}

func formatGraphQLErrors(errs []graphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %v)", msg, e.Path)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "unknown graphql error"
	}
	return strings.Join(parts, "; ")
}
