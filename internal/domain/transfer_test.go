package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer(t *testing.T) *InternalTransfer {
	t.Helper()
	tr, err := NewInternalTransfer("WH-X", "WH-Y", "clerk", "", []TransferItemSpec{
		{ProductID: "PRD-A", Quantity: 20},
		{ProductID: "PRD-B", Quantity: 5},
	})
	require.NoError(t, err)
	return tr
}

func TestNewInternalTransfer_Validation(t *testing.T) {
	_, err := NewInternalTransfer("WH-X", "WH-X", "", "", []TransferItemSpec{{ProductID: "PRD-A", Quantity: 1}})
	assert.ErrorIs(t, err, ErrSameWarehouse)

	_, err = NewInternalTransfer("WH-X", "WH-Y", "", "", nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = NewInternalTransfer("WH-X", "WH-Y", "", "", []TransferItemSpec{{ProductID: "PRD-A", Quantity: 0}})
	assert.ErrorIs(t, err, ErrNonPositiveQuantity)
}

func TestInternalTransfer_ShipAndReceiveWithShrinkage(t *testing.T) {
	tr := newTestTransfer(t)
	assert.Regexp(t, `^TRF-\d{8}-[0-9A-F]{6}$`, tr.TransferCode)

	require.NoError(t, tr.MarkShipped())
	assert.Equal(t, TransferStatusInTransit, tr.Status)
	assert.Equal(t, int64(20), tr.Items[0].QuantityShipped)

	err := tr.Receive([]TransferReceipt{{ProductID: "PRD-A", QuantityReceived: 18}})
	require.NoError(t, err)

	assert.Equal(t, TransferStatusReceived, tr.Status)
	assert.Equal(t, int64(18), tr.Items[0].QuantityReceived)
	assert.Equal(t, int64(2), tr.Items[0].Shrinkage())
	assert.Equal(t, int64(5), tr.Items[1].QuantityReceived, "unlisted line received in full")

	var shrink *TransferShrinkageEvent
	for _, e := range tr.GetDomainEvents() {
		if s, ok := e.(*TransferShrinkageEvent); ok {
			shrink = s
		}
	}
	require.NotNil(t, shrink)
	require.Len(t, shrink.Lines, 1)
	assert.Equal(t, int64(2), shrink.Lines[0].Lost)
}

func TestInternalTransfer_ReceiveValidation(t *testing.T) {
	tr := newTestTransfer(t)

	assert.ErrorIs(t, tr.Receive(nil), ErrInvalidStatusTransition, "draft cannot be received")

	require.NoError(t, tr.MarkShipped())
	assert.ErrorIs(t, tr.Receive([]TransferReceipt{{ProductID: "PRD-A", QuantityReceived: 21}}), ErrOverReceipt)
	assert.ErrorIs(t, tr.Receive([]TransferReceipt{{ProductID: "PRD-Q", QuantityReceived: 1}}), ErrUnknownItem)
	assert.Equal(t, TransferStatusInTransit, tr.Status)
}

func TestInternalTransfer_Cancel(t *testing.T) {
	t.Run("from draft", func(t *testing.T) {
		tr := newTestTransfer(t)
		inTransit, err := tr.Cancel("not needed")
		require.NoError(t, err)
		assert.False(t, inTransit)
		assert.Equal(t, TransferStatusCancelled, tr.Status)
	})

	t.Run("from pending", func(t *testing.T) {
		tr := newTestTransfer(t)
		require.NoError(t, tr.Submit())
		inTransit, err := tr.Cancel("not needed")
		require.NoError(t, err)
		assert.False(t, inTransit)
	})

	t.Run("in transit", func(t *testing.T) {
		tr := newTestTransfer(t)
		require.NoError(t, tr.MarkShipped())
		inTransit, err := tr.Cancel("truck returned")
		require.NoError(t, err)
		assert.True(t, inTransit)
	})

	t.Run("after receipt", func(t *testing.T) {
		tr := newTestTransfer(t)
		require.NoError(t, tr.MarkShipped())
		require.NoError(t, tr.Receive(nil))
		_, err := tr.Cancel("too late")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})
}

func TestInternalTransfer_SubmitOnlyFromDraft(t *testing.T) {
	tr := newTestTransfer(t)
	require.NoError(t, tr.Submit())
	assert.ErrorIs(t, tr.Submit(), ErrInvalidStatusTransition)
	assert.NoError(t, tr.CanShip())
}
