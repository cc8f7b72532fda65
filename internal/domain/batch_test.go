package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(t *testing.T, specs ...BatchItemSpec) *InboundBatch {
	t.Helper()
	if len(specs) == 0 {
		specs = []BatchItemSpec{{ProductID: "PRD-A", QuantityExpected: 100}}
	}
	b, err := NewInboundBatch("WH-X", "SUP-1", "clerk", "", specs)
	require.NoError(t, err)
	return b
}

func TestNewInboundBatch(t *testing.T) {
	tests := []struct {
		name    string
		specs   []BatchItemSpec
		wantErr error
	}{
		{"valid", []BatchItemSpec{{ProductID: "PRD-A", QuantityExpected: 5}}, nil},
		{"no items", nil, ErrNoItems},
		{"zero quantity", []BatchItemSpec{{ProductID: "PRD-A"}}, ErrNonPositiveQuantity},
		{"blank product", []BatchItemSpec{{ProductID: " ", QuantityExpected: 1}}, ErrProductRequired},
		{"duplicate line", []BatchItemSpec{
			{ProductID: "PRD-A", QuantityExpected: 1},
			{ProductID: "PRD-A", QuantityExpected: 2},
		}, ErrDuplicateItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewInboundBatch("WH-X", "SUP-1", "clerk", "", tt.specs)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, BatchStatusPending, b.Status)
			assert.Regexp(t, `^BATCH-\d{8}-[0-9A-F]{6}$`, b.BatchCode)
			assert.Len(t, b.GetDomainEvents(), 1)
		})
	}
}

func TestInboundBatch_Receive(t *testing.T) {
	b := newTestBatch(t,
		BatchItemSpec{ProductID: "PRD-A", QuantityExpected: 100},
		BatchItemSpec{ProductID: "PRD-B", VariantID: "RED", QuantityExpected: 10},
	)

	err := b.Receive(time.Now(), []ItemReceipt{{ProductID: "PRD-A", QuantityReceived: 95}}, false)
	require.NoError(t, err)

	assert.Equal(t, BatchStatusReceived, b.Status)
	assert.Equal(t, int64(95), b.Items[0].QuantityReceived)
	assert.Equal(t, int64(10), b.Items[1].QuantityReceived, "unlisted line defaults to expected")
	require.NotNil(t, b.ReceivedDate)

	// re-receive keeps lines without a receipt
	err = b.Receive(time.Now(), []ItemReceipt{{ItemID: b.Items[1].ItemID, QuantityReceived: 8}}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(95), b.Items[0].QuantityReceived)
	assert.Equal(t, int64(8), b.Items[1].QuantityReceived)
}

func TestInboundBatch_ReceiveRefusedOnceQCExists(t *testing.T) {
	b := newTestBatch(t)
	require.NoError(t, b.Receive(time.Now(), nil, false))

	assert.ErrorIs(t, b.Receive(time.Now(), nil, true), ErrBatchLocked)

	require.NoError(t, b.StartQualityCheck())
	assert.ErrorIs(t, b.Receive(time.Now(), nil, false), ErrBatchLocked)
	assert.ErrorIs(t, b.Cancel("late", false), ErrBatchLocked)
}

func TestInboundBatch_ReceiveValidation(t *testing.T) {
	b := newTestBatch(t)

	assert.ErrorIs(t, b.Receive(time.Now(), []ItemReceipt{{ProductID: "PRD-Z", QuantityReceived: 1}}, false), ErrUnknownItem)
	assert.ErrorIs(t, b.Receive(time.Now(), []ItemReceipt{{ProductID: "PRD-A", QuantityReceived: -1}}, false), ErrNegativeQuantity)
	assert.Equal(t, BatchStatusPending, b.Status)
}

func TestInboundBatch_Lifecycle(t *testing.T) {
	b := newTestBatch(t)

	assert.ErrorIs(t, b.StartQualityCheck(), ErrInvalidStatusTransition, "pending batch cannot be inspected")

	require.NoError(t, b.Receive(time.Time{}, nil, false))
	require.NoError(t, b.StartQualityCheck())
	require.NoError(t, b.CompleteQualityCheck())
	require.NoError(t, b.Complete())
	assert.Equal(t, BatchStatusCompleted, b.Status)

	var te *TransitionError
	assert.True(t, errors.As(b.Complete(), &te))
}

func TestInboundBatch_Cancel(t *testing.T) {
	b := newTestBatch(t)
	require.NoError(t, b.Cancel("supplier no-show", false))
	assert.Equal(t, BatchStatusCancelled, b.Status)
	assert.ErrorIs(t, b.Receive(time.Now(), nil, false), ErrInvalidStatusTransition)
}

func TestBatchStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, BatchStatusPending.CanTransitionTo(BatchStatusReceived))
	assert.True(t, BatchStatusQCInProgress.CanTransitionTo(BatchStatusCancelled))
	assert.False(t, BatchStatusQCCompleted.CanTransitionTo(BatchStatusCancelled))
	assert.False(t, BatchStatusCompleted.CanTransitionTo(BatchStatusPending))
	assert.False(t, BatchStatus("bogus").CanTransitionTo(BatchStatusReceived))
}
