package models

import "time"

type Student struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"-"`
	Name       string     `db:"name" json:"name"`
	Gender     *Gender    `db:"gender" json:"gender"`
	Birthday   *Date      `db:"birthday" json:"birthday"`
	Stage      *Stage     `db:"stage" json:"stage"`
	School     *string    `db:"school" json:"school"`
	EnrollDate *Date      `db:"enroll_date" json:"enroll_date"`
	IsDeleted  bool       `db:"is_deleted" json:"-"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentInput: поля, которые родитель задаёт при создании и изменении.
type StudentInput struct {
	Name       string  `json:"name" validate:"required,max=64"`
	Gender     *Gender `json:"gender" validate:"omitempty,oneof=male female"`
	Birthday   *Date   `json:"birthday"`
	Stage      *Stage  `json:"stage" validate:"omitempty,oneof=primary junior_high"`
	School     *string `json:"school" validate:"omitempty,max=128"`
	EnrollDate *Date   `json:"enroll_date"`
}
