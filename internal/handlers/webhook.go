package handlers

import (
	"encoding/json"
	"net/url"
	"strings"
)

// webhookReference pulls the transaction reference out of a gateway callback.
// Gateways deliver either JSON or form-encoded bodies, and field naming is
// not stable across versions, so both transaction_id and reference are
// accepted. Everything else in the body is untrusted and ignored.
func webhookReference(contentType string, body []byte) string {
	ct := strings.ToLower(contentType)

	if strings.Contains(ct, "application/json") || looksLikeJSON(body) {
		var payload struct {
			TransactionID string `json:"transaction_id"`
			Reference     string `json:"reference"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		if payload.TransactionID != "" {
			return payload.TransactionID
		}
		return payload.Reference
	}

	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return ""
	}
	if v := vals.Get("transaction_id"); v != "" {
		return v
	}
	return vals.Get("reference")
}

func looksLikeJSON(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{")
}
