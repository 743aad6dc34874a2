package flowpay

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// FlowpayService talks to the hosted checkout gateway. The gateway promises
// to echo the metadata field back verbatim on the verify endpoint, which is
// what lets the webhook correlate a settlement with our Payment row.
type FlowpayService struct {
	Client       *http.Client
	APIKey       string
	PrivateKey   string
	MerchantCode string
	BaseURL      string
}

func NewFlowpayService() *FlowpayService {
	baseURL := "https://api.flowpay.dev/sandbox"
	if os.Getenv("FLOWPAY_ENV") == "production" {
		baseURL = "https://api.flowpay.dev/v1"
	}
	if v := os.Getenv("FLOWPAY_BASE_URL"); v != "" {
		baseURL = v
	}

	return &FlowpayService{
		Client:       &http.Client{Timeout: 15 * time.Second},
		APIKey:       os.Getenv("FLOWPAY_API_KEY"),
		PrivateKey:   os.Getenv("FLOWPAY_PRIVATE_KEY"),
		MerchantCode: os.Getenv("FLOWPAY_MERCHANT_CODE"),
		BaseURL:      baseURL,
	}
}

// Metadata is the opaque blob the gateway carries for us. It is the only
// correlation key the settlement path has, so payment_id must always be set.
type Metadata struct {
	PaymentID string `json:"payment_id"`
	UserID    string `json:"user_id"`
	Purpose   string `json:"purpose"`
}

type CheckoutRequest struct {
	Reference     string   `json:"reference"`
	Amount        int64    `json:"amount"` // subunits
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	Description   string   `json:"description"`
	Metadata      Metadata `json:"metadata"`
	WebhookURL    string   `json:"webhook_url"`
	SuccessURL    string   `json:"success_url"`
	CancelURL     string   `json:"cancel_url"`
	ExpiredTime   int64    `json:"expired_time"` // Unix timestamp
	Signature     string   `json:"signature"`
}

type CheckoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Reference   string `json:"reference"`
		CheckoutURL string `json:"checkout_url"`
		Amount      int64  `json:"amount"`
	} `json:"data"`
}

// CreateCheckout opens a hosted checkout session. Amount is in subunits
// (cents). The request is signed with HMAC-SHA256(merchant_code + reference
// + amount, private_key).
func (s *FlowpayService) CreateCheckout(
	reference string,
	amount int64,
	customerName, customerEmail string,
	description string,
	meta Metadata,
	webhookURL, successURL, cancelURL string,
) (*CheckoutResponse, error) {

	sigData := fmt.Sprintf("%s%s%d", s.MerchantCode, reference, amount)

	reqBody := CheckoutRequest{
		Reference:     reference,
		Amount:        amount,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Description:   description,
		Metadata:      meta,
		WebhookURL:    webhookURL,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		ExpiredTime:   time.Now().Add(24 * time.Hour).Unix(),
		Signature:     s.generateSignature(sigData),
	}

	jsonBody, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", s.BaseURL+"/checkout/create", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp CheckoutResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("flowpay error: %s", apiResp.Message)
	}

	return &apiResp, nil
}

type VerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"` // PAID, UNPAID, FAILED, EXPIRED, REFUND
		Amount    int64           `json:"amount"`
		Metadata  json.RawMessage `json:"metadata"`
		PaidAt    int64           `json:"paid_at"`
	} `json:"data"`
}

// StatusPaid is the only verify status that settles a payment.
const StatusPaid = "PAID"

// VerifyTransaction re-fetches the transaction state from the gateway. This
// is the sole source of truth for settlement; webhook payloads only trigger
// this call and are never trusted themselves.
func (s *FlowpayService) VerifyTransaction(reference string) (*VerifyResponse, error) {
	req, err := http.NewRequest("GET", s.BaseURL+"/transaction/detail?reference="+reference, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp VerifyResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("flowpay error: %s", apiResp.Message)
	}

	return &apiResp, nil
}

// ParseMetadata decodes the echoed metadata blob from a verify response.
// Returns an error when the blob is absent or carries no payment_id: such a
// settlement is uncorrelatable and must mutate nothing.
func ParseMetadata(raw json.RawMessage) (*Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return nil, fmt.Errorf("verify response carries no metadata")
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("malformed metadata: %v", err)
	}
	if meta.PaymentID == "" {
		return nil, fmt.Errorf("metadata has no payment_id")
	}
	return &meta, nil
}

type PaymentChannel struct {
	Group   string `json:"group"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	IconURL string `json:"icon_url"`
}

type ChannelResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    []PaymentChannel `json:"data"`
}

func (s *FlowpayService) GetPaymentChannels() ([]PaymentChannel, error) {
	req, err := http.NewRequest("GET", s.BaseURL+"/merchant/payment-channel", nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp ChannelResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("flowpay error: %s", apiResp.Message)
	}

	return apiResp.Data, nil
}

func (s *FlowpayService) generateSignature(data string) string {
	h := hmac.New(sha256.New, []byte(s.PrivateKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
