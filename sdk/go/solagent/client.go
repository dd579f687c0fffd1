// Package solagent is the Go client for the settlement service.
package solagent

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const APIVersion = "v1"

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Error is the decoded wire error for any non-2xx response.
type Error struct {
	StatusCode int
	ErrorCode  string
	Message    string
	RequestID  string
	Details    map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("solagent sdk error: status=%d code=%s message=%s", e.StatusCode, e.ErrorCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      RetryConfig
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithToken sets the bearer token. Registration does not need one; every
// other mutating call does.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      RetryConfig{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.MaxAttempts < 1 {
		c.retry.MaxAttempts = 1
	}
	if c.retry.BaseDelay <= 0 {
		c.retry.BaseDelay = 200 * time.Millisecond
	}
	if c.retry.MaxDelay <= 0 {
		c.retry.MaxDelay = 5 * time.Second
	}
	return c
}

func NewIdempotencyKey() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// SetToken swaps the bearer token on an existing client, typically right
// after RegisterAgent.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) RegisterAgent(ctx context.Context, req RegisterAgentRequest) (*RegisterAgentResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/agents", req, nil, false)
	if err != nil {
		return nil, err
	}
	var out RegisterAgentResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/agents/"+url.PathEscape(agentID), nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Agent Agent `json:"agent"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Agent, nil
}

func (c *Client) GetBalance(ctx context.Context, agentID string) (*Balance, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/agents/"+url.PathEscape(agentID)+"/balance", nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out Balance
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stake(ctx context.Context, agentID string, amount uint64, idempotencyKey string) (*StakeResult, error) {
	body := map[string]any{"amount": amount}
	raw, err := c.do(ctx, http.MethodPost, "/v1/agents/"+url.PathEscape(agentID)+"/stake", body, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out StakeResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateService(ctx context.Context, req CreateServiceRequest, idempotencyKey string) (*Service, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/services", req, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out struct {
		Service Service `json:"service"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Service, nil
}

func (c *Client) ListServices(ctx context.Context, tag string, limit int) ([]Service, error) {
	v := url.Values{}
	if tag != "" {
		v.Set("tag", tag)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/services"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	raw, err := c.do(ctx, http.MethodGet, path, nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Services []Service `json:"services"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

func (c *Client) GetService(ctx context.Context, serviceID string) (*Service, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/services/"+url.PathEscape(serviceID), nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Service Service `json:"service"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Service, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, req SubmitFeedbackRequest, idempotencyKey string) (*FeedbackResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/feedback", req, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out FeedbackResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFeedback(ctx context.Context, agentID string) ([]Feedback, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/agents/"+url.PathEscape(agentID)+"/feedback", nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Feedbacks []Feedback `json:"feedbacks"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out.Feedbacks, nil
}

func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest, idempotencyKey string) (*Payment, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/payments", req, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out struct {
		Payment Payment `json:"payment"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Payment Payment `json:"payment"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

func (c *Client) ReleasePayment(ctx context.Context, paymentID, idempotencyKey string) (*ReleaseResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/release", nil, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out ReleaseResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefundPayment(ctx context.Context, paymentID, idempotencyKey string) (*RefundResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/refund", nil, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out RefundResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OpenStream(ctx context.Context, req OpenStreamRequest, idempotencyKey string) (*Stream, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/streams", req, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out struct {
		Stream Stream `json:"stream"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Stream, nil
}

func (c *Client) GetStream(ctx context.Context, streamID string) (*Stream, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/streams/"+url.PathEscape(streamID), nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Stream Stream `json:"stream"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Stream, nil
}

func (c *Client) WithdrawStream(ctx context.Context, streamID, idempotencyKey string) (*WithdrawResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/streams/"+url.PathEscape(streamID)+"/withdraw", nil, idemHeader(idempotencyKey), false)
	if err != nil {
		return nil, err
	}
	var out WithdrawResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InitProtocol(ctx context.Context, authority string) (*Protocol, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/protocol/init", map[string]any{"authority": authority}, nil, false)
	if err != nil {
		return nil, err
	}
	var out struct {
		Protocol Protocol `json:"protocol"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Protocol, nil
}

func (c *Client) GetProtocol(ctx context.Context) (*Protocol, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/protocol", nil, nil, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Protocol Protocol `json:"protocol"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out.Protocol, nil
}

// Faucet mints into a ledger account on dev deployments.
func (c *Client) Faucet(ctx context.Context, account string, amount uint64) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/dev/faucet", map[string]any{"account": account, "amount": amount}, nil, false)
	return err
}

func idemHeader(key string) map[string]string {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return map[string]string{"Idempotency-Key": key}
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, retryable bool) ([]byte, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}
	attempts := 1
	if retryable {
		attempts = c.retry.MaxAttempts
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "solagent-go-sdk/0.1.0 (api:"+APIVersion+")")
		if len(bodyBytes) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < attempts {
				sleepWithBackoff(c.retry, attempt, "")
				continue
			}
			return nil, err
		}
		respBody, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return respBody, nil
		}
		if shouldRetryStatus(resp.StatusCode) && attempt < attempts {
			sleepWithBackoff(c.retry, attempt, resp.Header.Get("Retry-After"))
			continue
		}
		return nil, parseSDKError(resp.StatusCode, respBody)
	}
	return nil, errors.New("unreachable")
}

func shouldRetryStatus(status int) bool {
	return status == 429 || status == 502 || status == 503 || status == 504
}

func sleepWithBackoff(cfg RetryConfig, attempt int, retryAfter string) {
	if strings.TrimSpace(retryAfter) != "" {
		if sec, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil {
			d := time.Duration(sec) * time.Second
			if d > cfg.MaxDelay {
				d = cfg.MaxDelay
			}
			time.Sleep(d)
			return
		}
	}
	ceil := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	if ceil > float64(cfg.MaxDelay) {
		ceil = float64(cfg.MaxDelay)
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(ceil)))
	time.Sleep(time.Duration(n.Int64()))
}

func parseSDKError(status int, body []byte) error {
	out := &Error{StatusCode: status}
	var obj struct {
		RequestID string `json:"request_id"`
		Error     struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &obj); err != nil || obj.Error.Code == "" {
		out.Message = strings.TrimSpace(string(body))
		if out.Message == "" {
			out.Message = http.StatusText(status)
		}
		return out
	}
	out.RequestID = obj.RequestID
	out.ErrorCode = obj.Error.Code
	out.Message = obj.Error.Message
	out.Details = obj.Error.Details
	return out
}
