// Package gateway is a client for the card/PIX payment gateway REST API
// (Pagar.me v5 resource shapes). Amounts cross this boundary as integer cents.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"food_delivery/internal/pkg/config"
	"food_delivery/pkg/metrics"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("payment gateway not configured")
	ErrUnknownStatus = errors.New("unknown gateway status")
)

// APIError 网关返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: http %d: %s", e.StatusCode, e.Message)
}

// Retryable 5xx 与限流可以由调用方重试
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type Phone struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

type Phones struct {
	MobilePhone *Phone `json:"mobile_phone,omitempty"`
}

type Customer struct {
	Name         string  `json:"name"`
	Email        string  `json:"email,omitempty"`
	Document     string  `json:"document"`
	DocumentType string  `json:"document_type"`
	Type         string  `json:"type"`
	Phones       *Phones `json:"phones,omitempty"`
}

type Item struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Code        string `json:"code"`
}

type CreditCardPayment struct {
	Installments        int    `json:"installments"`
	StatementDescriptor string `json:"statement_descriptor,omitempty"`
	CardToken           string `json:"card_token"`
}

type PixPayment struct {
	ExpiresIn int `json:"expires_in"`
}

type PaymentRequest struct {
	PaymentMethod string             `json:"payment_method"`
	CreditCard    *CreditCardPayment `json:"credit_card,omitempty"`
	Pix           *PixPayment        `json:"pix,omitempty"`
}

type CreateOrderRequest struct {
	Code     string            `json:"code"`
	Customer Customer          `json:"customer"`
	Items    []Item            `json:"items"`
	Payments []PaymentRequest  `json:"payments"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Card struct {
	Brand          string `json:"brand"`
	FirstSixDigits string `json:"first_six_digits"`
	LastFourDigits string `json:"last_four_digits"`
	HolderName     string `json:"holder_name"`
	ExpMonth       int    `json:"exp_month"`
	ExpYear        int    `json:"exp_year"`
}

type Transaction struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	Success         bool       `json:"success"`
	QRCode          string     `json:"qr_code,omitempty"`
	QRCodeURL       string     `json:"qr_code_url,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	AcquirerMessage string     `json:"acquirer_message,omitempty"`
	Card            *Card      `json:"card,omitempty"`
}

type ChargeOrderRef struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Status string `json:"status"`
}

type Charge struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Amount          int64           `json:"amount"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	LastTransaction *Transaction    `json:"last_transaction,omitempty"`
	Order           *ChargeOrderRef `json:"order,omitempty"`
}

type Order struct {
	ID      string   `json:"id"`
	Code    string   `json:"code"`
	Amount  int64    `json:"amount"`
	Status  string   `json:"status"`
	Charges []Charge `json:"charges"`
}

// Charge 第一笔扣款；本系统每个订单只提交一种支付方式
func (o *Order) Charge() *Charge {
	if len(o.Charges) == 0 {
		return nil
	}
	return &o.Charges[0]
}

// EffectiveStatus 优先使用扣款状态，其次订单状态
func (o *Order) EffectiveStatus() string {
	if c := o.Charge(); c != nil && c.Status != "" {
		return c.Status
	}
	return o.Status
}

type CardInput struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv"`
}

type TokenRequest struct {
	Type string    `json:"type"`
	Card CardInput `json:"card"`
}

type Token struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Card      Card      `json:"card"`
}

// Client 网关 REST 客户端，密钥通过 Basic Auth 传递
type Client struct {
	baseURL    string
	secretKey  string
	publicKey  string
	httpClient *http.Client
	metrics    *metrics.MetricsCollector
}

func NewClient(cfg config.GatewayConfig, m *metrics.MetricsCollector) (*Client, error) {
	if cfg.SecretKey == "" || cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		publicKey:  cfg.PublicKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, []byte, error) {
	var out Order
	raw, err := c.do(ctx, "create_order", http.MethodPost, "/orders", req, &out, true)
	if err != nil {
		return nil, raw, err
	}
	return &out, raw, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*Order, []byte, error) {
	var out Order
	raw, err := c.do(ctx, "get_order", http.MethodGet, "/orders/"+url.PathEscape(id), nil, &out, true)
	if err != nil {
		return nil, raw, err
	}
	return &out, raw, nil
}

// CancelCharge 未结算时取消，已结算时退款
func (c *Client) CancelCharge(ctx context.Context, chargeID string) (*Charge, []byte, error) {
	var out Charge
	raw, err := c.do(ctx, "cancel_charge", http.MethodDelete, "/charges/"+url.PathEscape(chargeID), nil, &out, true)
	if err != nil {
		return nil, raw, err
	}
	return &out, raw, nil
}

// CreateToken 卡片令牌化，使用公钥而非密钥
func (c *Client) CreateToken(ctx context.Context, card CardInput) (*Token, error) {
	if c.publicKey == "" {
		return nil, ErrNotConfigured
	}
	var out Token
	path := "/tokens?appId=" + url.QueryEscape(c.publicKey)
	if _, err := c.do(ctx, "create_token", http.MethodPost, path, TokenRequest{Type: "card", Card: card}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}, auth bool) (raw []byte, err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordGatewayCall(op, time.Since(start), err)
		}
	}()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode %s: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.SetBasicAuth(c.secretKey, "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: read %s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw), Body: raw}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("gateway: decode %s: %w", op, err)
		}
	}
	return raw, nil
}

// errorMessage 提取 {"message": "...", "errors": {...}} 中的说明
func errorMessage(raw []byte) string {
	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return strings.TrimSpace(string(raw))
	}
	for field, msgs := range body.Errors {
		if len(msgs) > 0 {
			return body.Message + ": " + field + " " + msgs[0]
		}
	}
	return body.Message
}
