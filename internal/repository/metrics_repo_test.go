package repository

import (
	"testing"

	"github.com/epeers/fundsheet/internal/models"
	"github.com/epeers/fundsheet/internal/schema"
	"github.com/stretchr/testify/assert"
)

func rec(entityID int64, period int, patm float64) models.MetricRecord {
	return models.MetricRecord{
		EntityID: entityID,
		Period:   schema.PeriodKey{Kind: schema.PeriodYearMonth, Value: period},
		Metrics:  models.MetricSet{PATM: patm},
	}
}

func TestSplitUpsertsPartitionsByExistingKeys(t *testing.T) {
	existing := map[metricKey]bool{
		{entityID: 1, periodKind: int(schema.PeriodYearMonth), periodValue: 202403}: true,
	}

	updates, inserts := splitUpserts(existing, []models.MetricRecord{
		rec(1, 202403, 10),
		rec(1, 202312, 11),
		rec(2, 202403, 12),
	})

	assert.Len(t, updates, 1)
	assert.Equal(t, int64(1), updates[0].EntityID)
	assert.Len(t, inserts, 2)
}

func TestSplitUpsertsDeduplicatesInputKeepingLastValue(t *testing.T) {
	updates, inserts := splitUpserts(nil, []models.MetricRecord{
		rec(1, 202403, 10),
		rec(1, 202403, 99),
	})

	assert.Empty(t, updates)
	assert.Len(t, inserts, 1)
	assert.Equal(t, 99.0, inserts[0].Metrics.PATM)
}

func TestSplitUpsertsEmptyInput(t *testing.T) {
	updates, inserts := splitUpserts(map[metricKey]bool{}, nil)
	assert.Empty(t, updates)
	assert.Empty(t, inserts)
}
