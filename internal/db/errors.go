package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrTaskLocked         = errors.New("task is not mutable")
	ErrDuplicate          = errors.New("duplicate")
)

// Сущности для NotFoundError.
const (
	EntityUser             = "user"
	EntityStudent          = "student"
	EntityProject          = "project"
	EntityTask             = "task"
	EntityRewardOption     = "reward_option"
	EntityPunishmentOption = "punishment_option"
)

// NotFoundError: запись отсутствует или принадлежит другому пользователю.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity string) error { return &NotFoundError{Entity: entity} }

// Причины отказа в удалении.
const (
	RefRecords   = "records"
	RefChildren  = "children"
	RefExchanges = "exchanges"
	RefTasks     = "tasks"
)

// InUseError: удалить нельзя, пока на запись ссылаются Count строк.
type InUseError struct {
	Entity string
	Reason string
	Count  int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s is referenced by %d %s", e.Entity, e.Count, e.Reason)
}

// isUniqueViolation понимает ошибки обоих драйверов: pgx в сервисе и lib/pq в тестах.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
