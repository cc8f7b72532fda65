package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QCStatus is the outcome of a quality check
type QCStatus string

const (
	QCStatusPass    QCStatus = "pass"
	QCStatusFail    QCStatus = "fail"
	QCStatusPartial QCStatus = "partial"
)

// IsValid checks if the QC status is valid
func (s QCStatus) IsValid() bool {
	switch s {
	case QCStatusPass, QCStatusFail, QCStatusPartial:
		return true
	default:
		return false
	}
}

// QCItemResult is the passed/failed split of one batch line
type QCItemResult struct {
	ItemID         string `bson:"itemId" json:"itemId"`
	ProductID      string `bson:"productId" json:"productId"`
	VariantID      string `bson:"variantId" json:"variantId"`
	QuantityPassed int64  `bson:"quantityPassed" json:"quantityPassed"`
	QuantityFailed int64  `bson:"quantityFailed" json:"quantityFailed"`
}

// QualityCheck is the official decision for a batch, or an appended rollback of it
type QualityCheck struct {
	QCID           string         `bson:"qcId" json:"qcId"`
	BatchID        string         `bson:"batchId" json:"batchId"`
	Inspector      string         `bson:"inspector" json:"inspector"`
	CheckDate      time.Time      `bson:"checkDate" json:"checkDate"`
	Status         QCStatus       `bson:"status" json:"status"`
	Score          int            `bson:"score" json:"score"`
	QuantityPassed int64          `bson:"quantityPassed" json:"quantityPassed"`
	QuantityFailed int64          `bson:"quantityFailed" json:"quantityFailed"`
	Issues         []string       `bson:"issues,omitempty" json:"issues,omitempty"`
	Items          []QCItemResult `bson:"items" json:"items"`
	IsRollback     bool           `bson:"isRollback" json:"isRollback"`
	RollbackOf     string         `bson:"rollbackOf,omitempty" json:"rollbackOf,omitempty"`
	Reason         string         `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
}

// QCDecision is the inspector's input for a batch
type QCDecision struct {
	Inspector      string
	CheckDate      time.Time
	Status         QCStatus
	Score          int
	QuantityPassed int64
	QuantityFailed int64
	Issues         []string
	// Items carries the per-line split for partial decisions
	Items []QCItemResult
}

// NewQualityCheck resolves a decision against the batch lines.
//
// pass admits every received unit and fail admits none. partial uses the
// per-line split; without one, the batch-level QuantityPassed applies only
// when the batch has a single line. Lines missing from a partial split are
// treated as entirely failed.
func NewQualityCheck(batch *InboundBatch, d QCDecision) (*QualityCheck, error) {
	if !d.Status.IsValid() {
		return nil, ErrInvalidQCStatus
	}
	if d.Score < 0 || d.Score > 100 {
		return nil, ErrInvalidScore
	}

	results := make([]QCItemResult, len(batch.Items))
	for i, item := range batch.Items {
		results[i] = QCItemResult{ItemID: item.ItemID, ProductID: item.ProductID, VariantID: item.VariantID}
		switch d.Status {
		case QCStatusPass:
			results[i].QuantityPassed = item.QuantityReceived
		case QCStatusFail, QCStatusPartial:
			results[i].QuantityFailed = item.QuantityReceived
		}
	}

	if d.Status == QCStatusPartial {
		if err := applyPartialSplit(batch, d, results); err != nil {
			return nil, err
		}
	}

	checkDate := d.CheckDate.UTC()
	now := time.Now().UTC()
	if d.CheckDate.IsZero() {
		checkDate = now
	}

	qc := &QualityCheck{
		QCID:      uuid.New().String(),
		BatchID:   batch.BatchID,
		Inspector: d.Inspector,
		CheckDate: checkDate,
		Status:    d.Status,
		Score:     d.Score,
		Issues:    d.Issues,
		Items:     results,
		CreatedAt: now,
	}
	for _, r := range results {
		qc.QuantityPassed += r.QuantityPassed
		qc.QuantityFailed += r.QuantityFailed
	}

	return qc, nil
}

func applyPartialSplit(batch *InboundBatch, d QCDecision, results []QCItemResult) error {
	if len(d.Items) == 0 {
		if len(batch.Items) != 1 {
			return ErrQCQuantityMismatch
		}
		d.Items = []QCItemResult{{ItemID: batch.Items[0].ItemID, QuantityPassed: d.QuantityPassed}}
	}

	seen := make(map[int]bool, len(d.Items))
	for _, split := range d.Items {
		idx := batch.itemIndex(ItemReceipt{ItemID: split.ItemID, ProductID: split.ProductID, VariantID: split.VariantID})
		if idx < 0 {
			return ErrUnknownItem
		}
		if seen[idx] {
			return ErrDuplicateItem
		}
		seen[idx] = true

		received := batch.Items[idx].QuantityReceived
		if split.QuantityPassed < 0 || split.QuantityPassed > received {
			return ErrQCQuantityMismatch
		}
		results[idx].QuantityPassed = split.QuantityPassed
		results[idx].QuantityFailed = received - split.QuantityPassed
	}
	return nil
}

// RollbackCorrection revokes previously admitted units of one line
type RollbackCorrection struct {
	ItemID          string
	ProductID       string
	VariantID       string
	QuantityRevoked int64
}

// NewRollbackCheck appends a correction to the official check. The official
// row is not modified; the returned row lists the revoked units per line as
// failed quantities. Units revoked by earlier rollbacks cannot be revoked twice.
func NewRollbackCheck(batch *InboundBatch, official *QualityCheck, earlier []*QualityCheck, inspector, reason string, corrections []RollbackCorrection) (*QualityCheck, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	if len(corrections) == 0 {
		return nil, ErrNoItems
	}

	items := make([]QCItemResult, 0, len(corrections))
	seen := make(map[string]bool, len(corrections))
	var revoked, remaining int64
	for _, c := range corrections {
		if c.QuantityRevoked <= 0 {
			return nil, ErrNonPositiveQuantity
		}
		line := batch.FindItem(c.ItemID, c.ProductID, c.VariantID)
		if line == nil {
			return nil, ErrUnknownItem
		}
		if seen[line.ItemID] {
			return nil, ErrDuplicateItem
		}
		seen[line.ItemID] = true

		admitted := official.passedFor(line.ItemID)
		for _, prior := range earlier {
			if prior.IsRollback && prior.RollbackOf == official.QCID {
				admitted -= prior.failedFor(line.ItemID)
			}
		}
		if c.QuantityRevoked > admitted {
			return nil, ErrQCQuantityMismatch
		}
		items = append(items, QCItemResult{
			ItemID:         line.ItemID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			QuantityPassed: admitted - c.QuantityRevoked,
			QuantityFailed: c.QuantityRevoked,
		})
		revoked += c.QuantityRevoked
		remaining += admitted - c.QuantityRevoked
	}

	now := time.Now().UTC()
	return &QualityCheck{
		QCID:           uuid.New().String(),
		BatchID:        official.BatchID,
		Inspector:      inspector,
		CheckDate:      now,
		Status:         official.Status,
		Score:          official.Score,
		QuantityPassed: remaining,
		QuantityFailed: revoked,
		Items:          items,
		IsRollback:     true,
		RollbackOf:     official.QCID,
		Reason:         reason,
		CreatedAt:      now,
	}, nil
}

// QuantityRevoked sums failed units recorded on a rollback row
func (q *QualityCheck) QuantityRevoked() int64 {
	if !q.IsRollback {
		return 0
	}
	var n int64
	for _, item := range q.Items {
		n += item.QuantityFailed
	}
	return n
}

func (q *QualityCheck) passedFor(itemID string) int64 {
	for _, item := range q.Items {
		if item.ItemID == itemID {
			return item.QuantityPassed
		}
	}
	return 0
}

func (q *QualityCheck) failedFor(itemID string) int64 {
	for _, item := range q.Items {
		if item.ItemID == itemID {
			return item.QuantityFailed
		}
	}
	return 0
}
