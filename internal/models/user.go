package models

import "time"

type User struct {
	ID             int64      `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	HashedPassword string     `db:"hashed_password" json:"-"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	IsAdmin        bool       `db:"is_admin" json:"is_admin"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at"`
}

// UserAccount: привязка внешнего аккаунта (почта, WeChat, DingTalk) к пользователю.
type UserAccount struct {
	ID          int64       `db:"id" json:"id"`
	UserID      int64       `db:"user_id" json:"user_id"`
	AccountType AccountType `db:"account_type" json:"account_type"`
	AccountID   string      `db:"account_id" json:"account_id"`
	AccountName *string     `db:"account_name" json:"account_name"`
	AvatarURL   *string     `db:"avatar_url" json:"avatar_url"`
	ExtraData   *string     `db:"extra_data" json:"extra_data"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

type SystemSettings struct {
	ID                int64     `db:"id" json:"id"`
	AllowRegistration bool      `db:"allow_registration" json:"allow_registration"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=20"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Token: ответ на вход.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}
