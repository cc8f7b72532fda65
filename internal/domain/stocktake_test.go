package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotRows() []*Stock {
	a := NewStock(StockKey{WarehouseID: "WH-X", ProductID: "PRD-A"})
	a.Quantity, a.AvailableQuantity = 80, 60
	b := NewStock(StockKey{WarehouseID: "WH-X", ProductID: "PRD-B"})
	b.Quantity, b.AvailableQuantity = 10, 10
	return []*Stock{a, b}
}

func TestStocktake_FullCycle(t *testing.T) {
	st := NewStocktake("WH-X", "counter", snapshotRows())
	assert.Regexp(t, `^STK-\d{8}-[0-9A-F]{6}$`, st.StocktakeCode)
	require.Len(t, st.Items, 2)
	assert.Equal(t, int64(80), st.Items[0].SystemQuantity)
	assert.Nil(t, st.Items[0].ActualQuantity)

	require.NoError(t, st.Start())
	assert.True(t, st.IsLocked)
	assert.Equal(t, "WH-X", st.LockScope)

	require.NoError(t, st.UpdateItems([]StocktakeCount{
		{ProductID: "PRD-A", ActualQuantity: 75, Reason: "breakage"},
		{ProductID: "PRD-B", ActualQuantity: 10},
	}))
	assert.Equal(t, int64(-5), st.Items[0].Difference)

	require.NoError(t, st.Complete())
	assert.Equal(t, StocktakeStatusPendingApproval, st.Status)

	variances := st.Variances()
	require.Len(t, variances, 1)
	assert.Equal(t, "PRD-A", variances[0].ProductID)

	require.NoError(t, st.Approve("manager"))
	assert.Equal(t, StocktakeStatusApproved, st.Status)
	assert.False(t, st.IsLocked)
	assert.Empty(t, st.LockScope)
	assert.ErrorIs(t, st.Cancel("no"), ErrInvalidStatusTransition)
}

func TestStocktake_CompleteRequiresEveryCount(t *testing.T) {
	st := NewStocktake("WH-X", "counter", snapshotRows())
	require.NoError(t, st.Start())
	require.NoError(t, st.UpdateItems([]StocktakeCount{{ProductID: "PRD-A", ActualQuantity: 80}}))

	err := st.Complete()

	var uncounted *UncountedItemsError
	require.ErrorAs(t, err, &uncounted)
	assert.ErrorIs(t, err, ErrUncountedItems)
	require.Len(t, uncounted.Items, 1)
	assert.Equal(t, "PRD-B", uncounted.Items[0].ProductID)
	assert.Equal(t, StocktakeStatusInProgress, st.Status)
}

func TestStocktake_FoundStock(t *testing.T) {
	st := NewStocktake("WH-X", "counter", snapshotRows())
	require.NoError(t, st.Start())

	require.NoError(t, st.UpdateItems([]StocktakeCount{{ProductID: "PRD-NEW", ActualQuantity: 4}}))

	require.Len(t, st.Items, 3)
	assert.Equal(t, int64(0), st.Items[2].SystemQuantity)
	assert.Equal(t, int64(4), st.Items[2].Difference)
	assert.Equal(t, "WH-X", st.Items[2].WarehouseID)
}

func TestStocktake_UpdateItemsValidation(t *testing.T) {
	st := NewStocktake("WH-X", "counter", snapshotRows())

	assert.ErrorIs(t, st.UpdateItems([]StocktakeCount{{ProductID: "PRD-A", ActualQuantity: 1}}), ErrInvalidStatusTransition)

	require.NoError(t, st.Start())
	assert.ErrorIs(t, st.UpdateItems([]StocktakeCount{{ProductID: "PRD-A", ActualQuantity: -1}}), ErrNegativeQuantity)
	assert.ErrorIs(t, st.UpdateItems([]StocktakeCount{{WarehouseID: "WH-Y", ProductID: "PRD-A"}}), ErrUnknownItem)
}

func TestStocktake_CancelReleasesLock(t *testing.T) {
	st := NewStocktake("", "counter", nil)
	require.NoError(t, st.Start())
	assert.Equal(t, AllWarehousesScope, st.LockScope)

	require.NoError(t, st.Cancel("recount next week"))
	assert.False(t, st.IsLocked)
	assert.Equal(t, StocktakeStatusCancelled, st.Status)
}

func TestStocktake_Overlaps(t *testing.T) {
	x := NewStocktake("WH-X", "", nil)
	y := NewStocktake("WH-Y", "", nil)
	all := NewStocktake("", "", nil)

	assert.False(t, x.Overlaps(y))
	assert.True(t, x.Overlaps(NewStocktake("WH-X", "", nil)))
	assert.True(t, all.Overlaps(y))
	assert.True(t, y.Overlaps(all))
}
