package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("sk_test_secret", "whsec_test", server.URL, "http://localhost:4444")
	require.NoError(t, err)

	return client
}

func TestNewRequiresSecrets(t *testing.T) {
	_, err := New("", "whsec", "", "http://localhost")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "PAYSTACK_SECRET_KEY", cfgErr.Name)

	_, err = New("sk_test", "", "", "http://localhost")
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "PAYSTACK_WEBHOOK_SECRET", cfgErr.Name)
}

func TestInitializeTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		require.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"txn_1_aa"}}`))
	})

	res, err := client.InitializeTransaction(context.Background(), "txn_1_aa", 5000, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
	require.Equal(t, "txn_1_aa", res.Reference)
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/txn_1_aa", r.URL.Path)

		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"txn_1_aa","status":"success","amount":5000,"paid_at":"2025-01-02T10:00:00Z"}}`))
	})

	res, err := client.VerifyTransaction(context.Background(), "txn_1_aa")
	require.NoError(t, err)
	require.Equal(t, "success", res.Status)
	require.Equal(t, int64(5000), res.Amount)
}

func TestGatewayRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Invalid amount"}`))
	})

	_, err := client.InitializeTransaction(context.Background(), "txn_1_aa", 0, "user@example.com")
	require.ErrorIs(t, err, ErrGatewayRejected)
	require.NotErrorIs(t, err, ErrGatewayUnavailable)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, "Invalid amount", gwErr.Message)
}

func TestGatewayUnavailableOnTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.VerifyTransaction(context.Background(), "txn_1_aa")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestCreateTransferRecipient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transferrecipient", r.URL.Path)

		w.Write([]byte(`{"status":true,"message":"Transfer recipient created","data":{"recipient_code":"RCP_123"}}`))
	})

	code, err := client.CreateTransferRecipient(context.Background(), "0001234567", "058")
	require.NoError(t, err)
	require.Equal(t, "RCP_123", code)
}

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client, err := New("sk_test", "whsec_test", "", "http://localhost")
	require.NoError(t, err)

	payload := []byte(`{"event":"charge.success","data":{"reference":"txn_1_aa","status":"success"}}`)

	require.True(t, client.VerifyWebhookSignature(signPayload("whsec_test", payload), payload))
	require.False(t, client.VerifyWebhookSignature("deadbeef", payload))

	// a valid signature for a different payload must not pass for a
	// tampered body
	tampered := []byte(`{"event":"charge.success","data":{"reference":"txn_1_aa","status":"success","amount":9999999}}`)
	require.False(t, client.VerifyWebhookSignature(signPayload("whsec_test", payload), tampered))
}
