package flowpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(baseURL string) *FlowpayService {
	return &FlowpayService{
		Client:       http.DefaultClient,
		APIKey:       "test-api-key",
		PrivateKey:   "test-private-key",
		MerchantCode: "M001",
		BaseURL:      baseURL,
	}
}

func TestCreateCheckout(t *testing.T) {
	var got CheckoutRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/create", r.URL.Path)
		require.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"reference":    got.Reference,
				"checkout_url": "https://checkout.flowpay.dev/s/abc",
				"amount":       got.Amount,
			},
		})
	}))
	defer srv.Close()

	s := testService(srv.URL)
	meta := Metadata{PaymentID: "pay-1", UserID: "user-1", Purpose: "job checkout"}

	resp, err := s.CreateCheckout("PMT-AAAA1111", 12200, "Budi", "budi@example.com",
		"Job payment", meta, "https://api.example.com/payment-webhook",
		"https://app.example.com/payment/success", "https://app.example.com/payment/cancel")
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.flowpay.dev/s/abc", resp.Data.CheckoutURL)
	assert.Equal(t, "PMT-AAAA1111", got.Reference)
	assert.Equal(t, int64(12200), got.Amount)
	assert.Equal(t, "pay-1", got.Metadata.PaymentID)
	assert.Equal(t, "https://api.example.com/payment-webhook", got.WebhookURL)

	// signature = HMAC-SHA256(merchant_code + reference + amount, private_key)
	mac := hmac.New(sha256.New, []byte("test-private-key"))
	mac.Write([]byte("M001PMT-AAAA111112200"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), got.Signature)
}

func TestCreateCheckoutGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "invalid merchant",
		})
	}))
	defer srv.Close()

	s := testService(srv.URL)
	_, err := s.CreateCheckout("PMT-X", 100, "a", "a@b.c", "d", Metadata{}, "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid merchant")
}

func TestVerifyTransactionEchoesMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/detail", r.URL.Path)
		require.Equal(t, "PMT-BBBB2222", r.URL.Query().Get("reference"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"reference": "PMT-BBBB2222",
				"status":    "PAID",
				"amount":    5000,
				"metadata":  map[string]string{"payment_id": "pay-9", "user_id": "user-9"},
			},
		})
	}))
	defer srv.Close()

	s := testService(srv.URL)
	resp, err := s.VerifyTransaction("PMT-BBBB2222")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, resp.Data.Status)

	meta, err := ParseMetadata(resp.Data.Metadata)
	require.NoError(t, err)
	assert.Equal(t, "pay-9", meta.PaymentID)
	assert.Equal(t, "user-9", meta.UserID)
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"payment_id":"p1","user_id":"u1","purpose":"x"}`, false},
		{"empty blob", ``, true},
		{"null blob", `null`, true},
		{"empty string blob", `""`, true},
		{"no payment_id", `{"user_id":"u1"}`, true},
		{"malformed", `{not-json`, true},
	}
	for _, tt := range tests {
		_, err := ParseMetadata(json.RawMessage(tt.raw))
		if tt.wantErr && err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
	}
}
