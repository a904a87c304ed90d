package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

// RatingHistogram считает выполненные задачи с оценкой, завершённые после since,
// по паре (проект 1-го уровня, оценка).
func RatingHistogram(ctx context.Context, database *sql.DB, studentID int64, since time.Time) ([]models.RatingSummary, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT t.project_level1_id, COALESCE(p.name, ''), t.rating, COUNT(*)
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_level1_id
		WHERE t.student_id = $1 AND `+alive("t")+`
		  AND t.status = 'completed' AND t.rating IS NOT NULL AND t.updated_at >= $2
		GROUP BY t.project_level1_id, p.name, t.rating
		ORDER BY t.project_level1_id, t.rating`, studentID, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.RatingSummary
	idx := map[int64]int{}
	for rows.Next() {
		var (
			pid    int64
			name   string
			rating string
			n      int
		)
		if err := rows.Scan(&pid, &name, &rating, &n); err != nil {
			return nil, err
		}
		i, ok := idx[pid]
		if !ok {
			out = append(out, models.RatingSummary{ProjectLevel1ID: pid, ProjectLevel1Name: name, Ratings: map[string]int{}})
			i = len(out) - 1
			idx[pid] = i
		}
		out[i].Ratings[rating] = n
	}
	return out, rows.Err()
}
