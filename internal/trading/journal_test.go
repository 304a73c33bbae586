package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ksred/breeze-gateway/internal/types"
)

func journalForTest(t *testing.T) *Journal {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&LegRecord{}))
	return NewJournal(db)
}

func TestJournal(t *testing.T) {
	t.Run("records a batch and reads it back in leg order", func(t *testing.T) {
		j := journalForTest(t)

		legs := []types.OrderLeg{
			{LegIndex: 0, StockCode: "NIFTY", Action: "sell", Quantity: 75, StrikePrice: 24500, Right: "call"},
			{LegIndex: 1, StockCode: "NIFTY", Action: "sell", Quantity: 75, StrikePrice: 24500, Right: "put"},
		}
		results := []types.LegResult{
			{LegIndex: 0, Success: true, OrderID: "OID-0"},
			{LegIndex: 1, Error: "timeout"},
		}
		j.RecordBatch("batch-1", legs, results)

		records, err := j.BatchRecords("batch-1")
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "OID-0", records[0].OrderID)
		assert.True(t, records[0].Success)
		assert.Equal(t, "call", records[0].Right)

		assert.False(t, records[1].Success)
		assert.Equal(t, "timeout", records[1].Error)
	})

	t.Run("batches are isolated by id", func(t *testing.T) {
		j := journalForTest(t)
		j.RecordBatch("batch-a", []types.OrderLeg{{StockCode: "NIFTY"}}, []types.LegResult{{Success: true}})
		j.RecordBatch("batch-b", []types.OrderLeg{{StockCode: "SENSEX"}}, []types.LegResult{{Success: true}})

		records, err := j.BatchRecords("batch-a")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "NIFTY", records[0].StockCode)
	})

	t.Run("nil journal is a no-op", func(t *testing.T) {
		j := NewJournal(nil)
		j.RecordBatch("batch-x", []types.OrderLeg{{StockCode: "NIFTY"}}, nil)
	})
}
