// Package paystack isolates all outbound calls to the Paystack payment
// gateway and the inbound webhook signature check. It holds no state
// beyond configuration.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// Every gateway call is bounded by this timeout; a lock-holding storage
// transaction must never wait on it.
const defaultTimeout = 10 * time.Second

var (
	// ErrGatewayUnavailable marks timeouts and transport failures, where a
	// retry may succeed.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrGatewayRejected marks calls Paystack answered and declined, where
	// a retry with the same input will fail again.
	ErrGatewayRejected = errors.New("payment gateway rejected request")
)

// GatewayError wraps a failed gateway call. errors.Is against
// ErrGatewayUnavailable / ErrGatewayRejected distinguishes the two classes.
type GatewayError struct {
	Op          string
	Message     string
	Unavailable bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paystack %s: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error {
	if e.Unavailable {
		return ErrGatewayUnavailable
	}
	return ErrGatewayRejected
}

// ConfigError reports a missing secret. It is raised at client
// construction, never silently defaulted.
type ConfigError struct {
	Name string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Name)
}

type Client struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	callbackURL   string
	httpClient    *http.Client
}

func New(secretKey, webhookSecret, baseURL, appBaseURL string) (*Client, error) {
	if secretKey == "" {
		return nil, &ConfigError{Name: "PAYSTACK_SECRET_KEY"}
	}
	if webhookSecret == "" {
		return nil, &ConfigError{Name: "PAYSTACK_WEBHOOK_SECRET"}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		callbackURL:   appBaseURL + "/payments/callback",
		httpClient:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	PaidAt    string `json:"paid_at"`
}

// envelope is the common Paystack response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) InitializeTransaction(ctx context.Context, reference string, amountKobo int64, email string) (*InitializeResponse, error) {
	body := map[string]any{
		"amount":       amountKobo,
		"email":        email,
		"reference":    reference,
		"callback_url": c.callbackURL + "?reference=" + url.QueryEscape(reference),
	}

	var data InitializeResponse
	if err := c.post(ctx, "initialize", "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}

	if data.AuthorizationURL == "" {
		return nil, &GatewayError{Op: "initialize", Message: "no authorization_url in response"}
	}

	return &data, nil
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	var data VerifyResponse
	if err := c.do(req, "verify", &data); err != nil {
		return nil, err
	}

	return &data, nil
}

// CreateTransferRecipient registers the destination bank account and
// returns the recipient code needed to initiate a transfer.
func (c *Client) CreateTransferRecipient(ctx context.Context, accountNumber, bankCode string) (string, error) {
	body := map[string]any{
		"type":           "nuban",
		"name":           "Wallet Withdrawal",
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}

	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := c.post(ctx, "transferrecipient", "/transferrecipient", body, &data); err != nil {
		return "", err
	}

	if data.RecipientCode == "" {
		return "", &GatewayError{Op: "transferrecipient", Message: "no recipient_code in response"}
	}

	return data.RecipientCode, nil
}

func (c *Client) InitiateTransfer(ctx context.Context, amountKobo int64, recipientCode, reference string) error {
	body := map[string]any{
		"source":    "balance",
		"amount":    amountKobo,
		"recipient": recipientCode,
		"reference": reference,
	}

	return c.post(ctx, "transfer", "/transfer", body, nil)
}

// VerifyWebhookSignature checks the HMAC-SHA512 hex signature Paystack
// sends over the exact raw request body. The comparison is constant time.
func (c *Client) VerifyWebhookSignature(signature string, payload []byte) bool {
	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) post(ctx context.Context, op, path string, body any, out any) error {
	js, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(js))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Message: err.Error(), Unavailable: true}
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return &GatewayError{Op: op, Message: "malformed response: " + err.Error(), Unavailable: true}
	}

	if res.StatusCode >= 500 {
		return &GatewayError{Op: op, Message: env.Message, Unavailable: true}
	}

	if res.StatusCode >= 400 || !env.Status {
		return &GatewayError{Op: op, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &GatewayError{Op: op, Message: "malformed response data: " + err.Error(), Unavailable: true}
		}
	}

	return nil
}
