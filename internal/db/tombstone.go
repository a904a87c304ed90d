package db

import (
	"context"
	"fmt"
	"time"
)

// Soft delete устроен одинаково во всех таблицах: пара колонок is_deleted / deleted_at.
// Строки не удаляются физически, чтобы журнал баллов оставался целым.
type softTable string

const (
	studentsTable  softTable = "students"
	tasksTable     softTable = "tasks"
	increasesTable softTable = "score_increases"
	exchangesTable softTable = "score_exchanges"
)

// tombstone помечает удалёнными живые строки table, подходящие под where, одной меткой at.
// Плейсхолдеры в where нумеруются с $1, метка времени добавляется последним аргументом.
func tombstone(ctx context.Context, q DBTX, table softTable, at time.Time, where string, args ...any) (int64, error) {
	query := fmt.Sprintf(
		`UPDATE %s SET is_deleted = TRUE, deleted_at = $%d WHERE NOT is_deleted AND (%s)`,
		table, len(args)+1, where,
	)
	res, err := q.ExecContext(ctx, query, append(args, at)...)
	if err != nil {
		return 0, fmt.Errorf("tombstone %s: %w", table, err)
	}
	return res.RowsAffected()
}

// alive: условие «строка не удалена» для таблицы с алиасом alias (или без него).
func alive(alias string) string {
	if alias == "" {
		return "NOT is_deleted"
	}
	return "NOT " + alias + ".is_deleted"
}
