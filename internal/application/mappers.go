package application

import "github.com/wms-platform/stock-ledger-service/internal/domain"

// ToWarehouseDTO converts a domain Warehouse to WarehouseDTO
func ToWarehouseDTO(w *domain.Warehouse) *WarehouseDTO {
	if w == nil {
		return nil
	}
	return &WarehouseDTO{
		WarehouseID: w.WarehouseID,
		Code:        w.Code,
		Name:        w.Name,
		Active:      w.Active,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// ToStockDTO converts a domain Stock to StockDTO
func ToStockDTO(s *domain.Stock) *StockDTO {
	if s == nil {
		return nil
	}
	return &StockDTO{
		StockID:           s.StockID,
		WarehouseID:       s.WarehouseID,
		ProductID:         s.ProductID,
		VariantID:         s.VariantID,
		Quantity:          s.Quantity,
		AvailableQuantity: s.AvailableQuantity,
		ReservedQuantity:  s.Reserved(),
		LastBatchID:       s.LastBatchID,
		LastQCID:          s.LastQCID,
		Version:           s.Version,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ToStockDTOs converts a slice of balance rows
func ToStockDTOs(rows []*domain.Stock) []*StockDTO {
	out := make([]*StockDTO, 0, len(rows))
	for _, s := range rows {
		out = append(out, ToStockDTO(s))
	}
	return out
}

// ToMovementDTO converts a domain Movement to MovementDTO
func ToMovementDTO(m *domain.Movement) *MovementDTO {
	if m == nil {
		return nil
	}
	return &MovementDTO{
		MovementID:      m.MovementID,
		WarehouseID:     m.WarehouseID,
		ProductID:       m.ProductID,
		VariantID:       m.VariantID,
		MovementType:    string(m.MovementType),
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		AvailableBefore: m.AvailableBefore,
		AvailableAfter:  m.AvailableAfter,
		BatchID:         m.BatchID,
		QCID:            m.QCID,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Actor:           m.Actor,
		Reason:          m.Reason,
		CreatedAt:       m.CreatedAt,
	}
}

// ToMovementDTOs converts a slice of movements
func ToMovementDTOs(movements []*domain.Movement) []*MovementDTO {
	out := make([]*MovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, ToMovementDTO(m))
	}
	return out
}

// ToBatchDTO converts a domain InboundBatch to BatchDTO
func ToBatchDTO(b *domain.InboundBatch) *BatchDTO {
	if b == nil {
		return nil
	}

	items := make([]BatchItemDTO, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, BatchItemDTO{
			ItemID:           item.ItemID,
			ProductID:        item.ProductID,
			VariantID:        item.VariantID,
			QuantityExpected: item.QuantityExpected,
			QuantityReceived: item.QuantityReceived,
		})
	}

	return &BatchDTO{
		BatchID:      b.BatchID,
		BatchCode:    b.BatchCode,
		WarehouseID:  b.WarehouseID,
		SupplierID:   b.SupplierID,
		Status:       string(b.Status),
		ReceivedDate: b.ReceivedDate,
		CreatedBy:    b.CreatedBy,
		Notes:        b.Notes,
		Items:        items,
		CancelReason: b.CancelReason,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// ToQualityCheckDTO converts a domain QualityCheck to QualityCheckDTO
func ToQualityCheckDTO(qc *domain.QualityCheck) *QualityCheckDTO {
	if qc == nil {
		return nil
	}

	items := make([]QCItemDTO, 0, len(qc.Items))
	for _, item := range qc.Items {
		items = append(items, QCItemDTO{
			ItemID:         item.ItemID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			QuantityPassed: item.QuantityPassed,
			QuantityFailed: item.QuantityFailed,
		})
	}

	return &QualityCheckDTO{
		QCID:           qc.QCID,
		BatchID:        qc.BatchID,
		Inspector:      qc.Inspector,
		CheckDate:      qc.CheckDate,
		Status:         string(qc.Status),
		Score:          qc.Score,
		QuantityPassed: qc.QuantityPassed,
		QuantityFailed: qc.QuantityFailed,
		Issues:         qc.Issues,
		Items:          items,
		IsRollback:     qc.IsRollback,
		RollbackOf:     qc.RollbackOf,
		Reason:         qc.Reason,
		CreatedAt:      qc.CreatedAt,
	}
}

// ToTransferDTO converts a domain InternalTransfer to TransferDTO
func ToTransferDTO(t *domain.InternalTransfer) *TransferDTO {
	if t == nil {
		return nil
	}

	items := make([]TransferItemDTO, 0, len(t.Items))
	for _, item := range t.Items {
		dto := TransferItemDTO{
			ProductID:         item.ProductID,
			VariantID:         item.VariantID,
			QuantityRequested: item.QuantityRequested,
			QuantityShipped:   item.QuantityShipped,
			QuantityReceived:  item.QuantityReceived,
		}
		if t.Status == domain.TransferStatusReceived {
			dto.Shrinkage = item.Shrinkage()
		}
		items = append(items, dto)
	}

	return &TransferDTO{
		TransferID:      t.TransferID,
		TransferCode:    t.TransferCode,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Status:          string(t.Status),
		Items:           items,
		Notes:           t.Notes,
		CreatedBy:       t.CreatedBy,
		ShippedAt:       t.ShippedAt,
		ReceivedAt:      t.ReceivedAt,
		CancelledAt:     t.CancelledAt,
		CancelReason:    t.CancelReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// ToStocktakeDTO converts a domain Stocktake to StocktakeDTO
func ToStocktakeDTO(s *domain.Stocktake) *StocktakeDTO {
	if s == nil {
		return nil
	}

	items := make([]StocktakeItemDTO, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, StocktakeItemDTO{
			WarehouseID:    item.WarehouseID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			BatchID:        item.BatchID,
			SystemQuantity: item.SystemQuantity,
			ActualQuantity: item.ActualQuantity,
			Difference:     item.Difference,
			Reason:         item.Reason,
		})
	}

	return &StocktakeDTO{
		StocktakeID:   s.StocktakeID,
		StocktakeCode: s.StocktakeCode,
		WarehouseID:   s.WarehouseID,
		Status:        string(s.Status),
		IsLocked:      s.IsLocked,
		Items:         items,
		CreatedBy:     s.CreatedBy,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
		ApprovedAt:    s.ApprovedAt,
		ApprovedBy:    s.ApprovedBy,
		CancelReason:  s.CancelReason,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
