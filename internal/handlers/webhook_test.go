package handlers

import "testing"

func TestWebhookReference(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{
			name:        "json transaction_id",
			contentType: "application/json",
			body:        `{"transaction_id":"PMT-AAAA1111","status":"PAID"}`,
			want:        "PMT-AAAA1111",
		},
		{
			name:        "json reference fallback",
			contentType: "application/json; charset=utf-8",
			body:        `{"reference":"PMT-BBBB2222","status":"FAILED"}`,
			want:        "PMT-BBBB2222",
		},
		{
			name:        "form encoded",
			contentType: "application/x-www-form-urlencoded",
			body:        "transaction_id=PMT-CCCC3333&status=PAID",
			want:        "PMT-CCCC3333",
		},
		{
			name:        "form encoded reference",
			contentType: "application/x-www-form-urlencoded",
			body:        "reference=PMT-DDDD4444",
			want:        "PMT-DDDD4444",
		},
		{
			name:        "json body without content type",
			contentType: "",
			body:        `{"transaction_id":"PMT-EEEE5555"}`,
			want:        "PMT-EEEE5555",
		},
		{
			name:        "prefers transaction_id over reference",
			contentType: "application/json",
			body:        `{"transaction_id":"PMT-REAL","reference":"PMT-OTHER"}`,
			want:        "PMT-REAL",
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{broken`,
			want:        "",
		},
		{
			name:        "empty body",
			contentType: "application/x-www-form-urlencoded",
			body:        "",
			want:        "",
		},
	}

	for _, tt := range tests {
		if got := webhookReference(tt.contentType, []byte(tt.body)); got != tt.want {
			t.Fatalf("%s: webhookReference = %q, want %q", tt.name, got, tt.want)
		}
	}
}
