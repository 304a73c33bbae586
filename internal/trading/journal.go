package trading

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/breeze-gateway/internal/types"
)

// Journal persists every leg attempt to the local sqlite file. Writes are
// best-effort: a journal failure is logged and never fails the order path.
type Journal struct {
	db *gorm.DB
}

// NewJournal wraps an open gorm connection.
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// RecordBatch writes one row per leg with its matching result. legs and
// results are positionally aligned (both sorted by leg index).
func (j *Journal) RecordBatch(batchID string, legs []types.OrderLeg, results []types.LegResult) {
	if j == nil || j.db == nil {
		return
	}
	records := make([]LegRecord, 0, len(legs))
	for i, leg := range legs {
		rec := LegRecord{
			BatchID:      batchID,
			LegIndex:     leg.LegIndex,
			StockCode:    leg.StockCode,
			ExchangeCode: leg.ExchangeCode,
			Action:       leg.Action,
			OrderType:    leg.OrderType,
			Quantity:     leg.Quantity,
			Price:        leg.Price,
			Right:        leg.Right,
			StrikePrice:  leg.StrikePrice,
			ExpiryDate:   leg.ExpiryDate,
		}
		if i < len(results) {
			rec.OrderID = results[i].OrderID
			rec.Success = results[i].Success
			rec.Error = results[i].Error
		}
		records = append(records, rec)
	}
	if err := j.db.Create(&records).Error; err != nil {
		log.Error().Err(err).Str("batch_id", batchID).Msg("failed to journal order batch")
	}
}

// BatchRecords returns the journal rows for one batch, ordered by leg.
func (j *Journal) BatchRecords(batchID string) ([]LegRecord, error) {
	var records []LegRecord
	err := j.db.Where("batch_id = ?", batchID).Order("leg_index asc").Find(&records).Error
	return records, err
}
