package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receivedBatch(t *testing.T, specs ...BatchItemSpec) *InboundBatch {
	t.Helper()
	b := newTestBatch(t, specs...)
	require.NoError(t, b.Receive(time.Now(), nil, false))
	return b
}

func TestNewQualityCheck_Pass(t *testing.T) {
	b := receivedBatch(t,
		BatchItemSpec{ProductID: "PRD-A", QuantityExpected: 100},
		BatchItemSpec{ProductID: "PRD-B", QuantityExpected: 20},
	)

	qc, err := NewQualityCheck(b, QCDecision{Inspector: "insp", Status: QCStatusPass, Score: 95})
	require.NoError(t, err)

	assert.Equal(t, int64(120), qc.QuantityPassed)
	assert.Equal(t, int64(0), qc.QuantityFailed)
	assert.False(t, qc.IsRollback)
	require.Len(t, qc.Items, 2)
	assert.Equal(t, int64(100), qc.Items[0].QuantityPassed)
}

func TestNewQualityCheck_Fail(t *testing.T) {
	b := receivedBatch(t)

	qc, err := NewQualityCheck(b, QCDecision{Status: QCStatusFail})
	require.NoError(t, err)

	assert.Equal(t, int64(0), qc.QuantityPassed)
	assert.Equal(t, int64(100), qc.QuantityFailed)
}

func TestNewQualityCheck_PartialSingleLineUsesBatchTotal(t *testing.T) {
	b := receivedBatch(t)

	qc, err := NewQualityCheck(b, QCDecision{Status: QCStatusPartial, QuantityPassed: 60})
	require.NoError(t, err)

	assert.Equal(t, int64(60), qc.Items[0].QuantityPassed)
	assert.Equal(t, int64(40), qc.Items[0].QuantityFailed)
}

func TestNewQualityCheck_PartialZeroPassed(t *testing.T) {
	b := receivedBatch(t)

	qc, err := NewQualityCheck(b, QCDecision{Status: QCStatusPartial, QuantityPassed: 0})
	require.NoError(t, err)

	assert.Equal(t, int64(0), qc.QuantityPassed)
	assert.Equal(t, int64(100), qc.QuantityFailed)
}

func TestNewQualityCheck_PartialPerLine(t *testing.T) {
	b := receivedBatch(t,
		BatchItemSpec{ProductID: "PRD-A", QuantityExpected: 100},
		BatchItemSpec{ProductID: "PRD-B", QuantityExpected: 20},
	)

	qc, err := NewQualityCheck(b, QCDecision{
		Status: QCStatusPartial,
		Items:  []QCItemResult{{ProductID: "PRD-A", QuantityPassed: 90}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(90), qc.Items[0].QuantityPassed)
	assert.Equal(t, int64(10), qc.Items[0].QuantityFailed)
	assert.Equal(t, int64(0), qc.Items[1].QuantityPassed, "unlisted line fails")
	assert.Equal(t, int64(20), qc.Items[1].QuantityFailed)
	assert.Equal(t, int64(90), qc.QuantityPassed)
	assert.Equal(t, int64(30), qc.QuantityFailed)
}

func TestNewQualityCheck_Validation(t *testing.T) {
	single := receivedBatch(t)
	multi := receivedBatch(t,
		BatchItemSpec{ProductID: "PRD-A", QuantityExpected: 1},
		BatchItemSpec{ProductID: "PRD-B", QuantityExpected: 1},
	)

	tests := []struct {
		name    string
		batch   *InboundBatch
		d       QCDecision
		wantErr error
	}{
		{"unknown status", single, QCDecision{Status: "maybe"}, ErrInvalidQCStatus},
		{"score out of range", single, QCDecision{Status: QCStatusPass, Score: 101}, ErrInvalidScore},
		{"passed above received", single, QCDecision{Status: QCStatusPartial, QuantityPassed: 101}, ErrQCQuantityMismatch},
		{"multi-line partial without split", multi, QCDecision{Status: QCStatusPartial, QuantityPassed: 1}, ErrQCQuantityMismatch},
		{"split names unknown line", multi, QCDecision{Status: QCStatusPartial, Items: []QCItemResult{{ProductID: "PRD-Z"}}}, ErrUnknownItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQualityCheck(tt.batch, tt.d)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewRollbackCheck(t *testing.T) {
	b := receivedBatch(t)
	official, err := NewQualityCheck(b, QCDecision{Status: QCStatusPass})
	require.NoError(t, err)

	rb, err := NewRollbackCheck(b, official, nil, "auditor", "mould found",
		[]RollbackCorrection{{ProductID: "PRD-A", QuantityRevoked: 30}})
	require.NoError(t, err)

	assert.True(t, rb.IsRollback)
	assert.Equal(t, official.QCID, rb.RollbackOf)
	assert.Equal(t, int64(30), rb.QuantityRevoked())
	assert.Equal(t, int64(70), rb.QuantityPassed)
	assert.Equal(t, int64(100), official.QuantityPassed, "official row untouched")

	// a second rollback can only revoke what is left
	_, err = NewRollbackCheck(b, official, []*QualityCheck{official, rb}, "auditor", "again",
		[]RollbackCorrection{{ProductID: "PRD-A", QuantityRevoked: 71}})
	assert.ErrorIs(t, err, ErrQCQuantityMismatch)

	_, err = NewRollbackCheck(b, official, []*QualityCheck{official, rb}, "auditor", "again",
		[]RollbackCorrection{{ProductID: "PRD-A", QuantityRevoked: 70}})
	assert.NoError(t, err)
}

func TestNewRollbackCheck_Validation(t *testing.T) {
	b := receivedBatch(t)
	official, err := NewQualityCheck(b, QCDecision{Status: QCStatusPass})
	require.NoError(t, err)

	_, err = NewRollbackCheck(b, official, nil, "a", "  ", []RollbackCorrection{{ProductID: "PRD-A", QuantityRevoked: 1}})
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = NewRollbackCheck(b, official, nil, "a", "r", nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = NewRollbackCheck(b, official, nil, "a", "r", []RollbackCorrection{{ProductID: "PRD-A"}})
	assert.ErrorIs(t, err, ErrNonPositiveQuantity)
}
