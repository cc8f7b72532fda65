package cloudevents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-ledger-service/pkg/logging"
)

func TestCreateEventCopiesRequestMetadata(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-9")
	ctx = logging.ContextWithActor(ctx, "clerk-2")

	e := NewEventFactory(SourceStockLedger).
		WithClock(func() time.Time { return at }).
		CreateEvent(ctx, StockMoved, "wh-1/sku-1", map[string]int{"quantity": 3}).
		WithWarehouse("wh-1")

	assert.Equal(t, SpecVersion, e.SpecVersion)
	assert.Equal(t, at.UTC(), e.Time)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, map[string]string{
		"wmscorrelationid": "corr-9",
		"wmswarehouseid":   "wh-1",
		"wmsactor":         "clerk-2",
	}, e.Extensions())

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "clerk-2", body["wmsactor"])
	assert.Equal(t, "wh-1/sku-1", body["subject"])
}

func TestCreateEventWithoutMetadata(t *testing.T) {
	e := NewEventFactory(SourceStockLedger).CreateEvent(context.Background(), LowStock, "wh-1/sku-1", nil)

	assert.Empty(t, e.Extensions())
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "wmsactor")
	assert.NotContains(t, string(raw), "wmscorrelationid")
}
