package jobs

import (
	"context"
	"database/sql"

	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/metrics"
)

// LedgerStats обновляет gauge-метрики по журналу баллов.
func LedgerStats(database *sql.DB) Job {
	return func(ctx context.Context) error {
		t, err := db.GetLedgerTotals(ctx, database)
		if err != nil {
			return err
		}
		metrics.LedgerStudents.Set(float64(t.Students))
		metrics.LedgerPointsAwarded.Set(float64(t.PointsAwarded))
		metrics.LedgerPointsExchanged.Set(float64(t.PointsExchanged))
		return nil
	}
}
