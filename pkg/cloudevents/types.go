package cloudevents

import (
	"time"
)

// Event types published by the stock ledger
const (
	StockMoved             = "wms.ledger.stock-moved"
	LowStock               = "wms.ledger.low-stock"
	BatchCreated           = "wms.ledger.batch-created"
	BatchReceived          = "wms.ledger.batch-received"
	QualityCheckRecorded   = "wms.ledger.quality-check-recorded"
	QualityCheckRolledBack = "wms.ledger.quality-check-rolled-back"
	TransferShipped        = "wms.ledger.transfer-shipped"
	TransferReceived       = "wms.ledger.transfer-received"
	TransferShrinkage      = "wms.ledger.transfer-shrinkage"
	TransferCancelled      = "wms.ledger.transfer-cancelled"
	StocktakeApproved      = "wms.ledger.stocktake-approved"
)

// SourceStockLedger is the CloudEvents source of every ledger event
const SourceStockLedger = "/wms/stock-ledger-service"

const SpecVersion = "1.0"

// WMSCloudEvent is a CloudEvents 1.0 envelope. The wms* fields are extension
// attributes; they are omitted when empty.
type WMSCloudEvent struct {
	SpecVersion     string    `json:"specversion"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	Subject         string    `json:"subject,omitempty"`
	ID              string    `json:"id"`
	Time            time.Time `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Data            any       `json:"data"`

	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WarehouseID   string `json:"wmswarehouseid,omitempty"`
	Actor         string `json:"wmsactor,omitempty"`
}

// Extensions lists the non-empty extension attributes by name
func (e *WMSCloudEvent) Extensions() map[string]string {
	ext := make(map[string]string, 3)
	for name, v := range map[string]string{
		"wmscorrelationid": e.CorrelationID,
		"wmswarehouseid":   e.WarehouseID,
		"wmsactor":         e.Actor,
	} {
		if v != "" {
			ext[name] = v
		}
	}
	return ext
}
