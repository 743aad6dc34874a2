package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusCanComplete(t *testing.T) {
	assert.False(t, JobStatusOpen.CanComplete())
	assert.True(t, JobStatusAssigned.CanComplete())
	assert.True(t, JobStatusInProgress.CanComplete())
	assert.True(t, JobStatusSubmitted.CanComplete())
	assert.False(t, JobStatusCompleted.CanComplete())
	assert.False(t, JobStatusCancelled.CanComplete())
}

func TestJobStatusCanCancel(t *testing.T) {
	assert.True(t, JobStatusOpen.CanCancel())
	assert.True(t, JobStatusAssigned.CanCancel())
	assert.True(t, JobStatusInProgress.CanCancel())
	assert.True(t, JobStatusSubmitted.CanCancel())
	assert.False(t, JobStatusCompleted.CanCancel())
	assert.False(t, JobStatusCancelled.CanCancel())
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.True(t, PaymentStatusPaid.Terminal())

	// failed is retryable, not terminal
	for _, s := range []PaymentStatus{PaymentStatusPending, PaymentStatusProcessing, PaymentStatusFailed, PaymentStatusCanceled} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentMethodPayNow.Valid())
	assert.True(t, PaymentMethodPayLater.Valid())
	assert.False(t, PaymentMethod("").Valid())
	assert.False(t, PaymentMethod("credit_card").Valid())
}

func TestGeneratePaymentRef(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := GeneratePaymentRef()
		require.True(t, strings.HasPrefix(ref, "PMT-"), ref)
		require.Len(t, ref, 12, ref)
		for _, r := range ref[4:] {
			require.True(t, (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), ref)
		}
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 90, "refs should be close to unique")
}

func TestPaymentDraftRoundTrip(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	draft := JobDraft{
		Title:        "Translate 10 pages",
		CategoryID:   2,
		Category:     "Translation",
		PageCount:    10,
		QualityLevel: "premium",
		Deadline:     deadline,
		Budget:       120,
	}

	raw, err := json.Marshal(PaymentMetadata{JobData: draft})
	require.NoError(t, err)

	p := Payment{Metadata: raw}
	got, err := p.Draft()
	require.NoError(t, err)
	assert.Equal(t, "Translate 10 pages", got.Title)
	assert.Equal(t, 10, got.PageCount)
	assert.True(t, got.Deadline.Equal(deadline))
}

func TestPaymentDraftCorrupted(t *testing.T) {
	p := Payment{Metadata: []byte(`{broken`)}
	_, err := p.Draft()
	assert.Error(t, err)
}
