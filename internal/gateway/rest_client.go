package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RESTClient はRazorpay互換のREST APIを叩くClient実装。
// 認証はkey_id:key_secretのBasic認証。
type RESTClient struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

func NewRESTClient(baseURL, keyID, keySecret string) *RESTClient {
	return &RESTClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type gatewayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type gatewayPaymentResponse struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

// CreateOrder はゲートウェイ側に決済注文を作る。
func (c *RESTClient) CreateOrder(ctx context.Context, p CreateOrderParams) (GatewayOrder, error) {
	payload := map[string]interface{}{
		"amount":   p.AmountPaise,
		"currency": p.Currency,
		"receipt":  p.Receipt,
	}
	if len(p.Notes) > 0 {
		payload["notes"] = p.Notes
	}

	var out gatewayOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &out); err != nil {
		return GatewayOrder{}, err
	}

	return GatewayOrder{
		ID:          out.ID,
		AmountPaise: out.Amount,
		Currency:    out.Currency,
		Receipt:     out.Receipt,
		Status:      out.Status,
	}, nil
}

// FetchPayment はゲートウェイ側の決済レコードを取得する（監査用）。
func (c *RESTClient) FetchPayment(ctx context.Context, paymentID string) (GatewayPayment, error) {
	var out gatewayPaymentResponse
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &out); err != nil {
		return GatewayPayment{}, err
	}

	return GatewayPayment{
		ID:          out.ID,
		OrderID:     out.OrderID,
		AmountPaise: out.Amount,
		Currency:    out.Currency,
		Status:      out.Status,
		Method:      out.Method,
	}, nil
}

func (c *RESTClient) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal gateway request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	respBody, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read gateway response: %w", readErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close gateway response body: %w", closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse gateway response: %w", err)
	}
	return nil
}
