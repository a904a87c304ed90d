package models

import "time"

type Project struct {
	ID          int64        `db:"id" json:"id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	Level       ProjectLevel `db:"level" json:"level"`
	Name        string       `db:"name" json:"name"`
	Description *string      `db:"description" json:"description"`
	ParentID    *int64       `db:"parent_id" json:"parent_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

type ProjectInput struct {
	Level       ProjectLevel `json:"level" validate:"required,oneof=1 2"`
	Name        string       `json:"name" validate:"required,max=128"`
	Description *string      `json:"description" validate:"omitempty,max=255"`
	ParentID    *int64       `json:"parent_id"`
}

// ProjectPatch: частичное обновление: уровень и родителя менять нельзя.
type ProjectPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}
