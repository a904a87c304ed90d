package models

import "time"

type ScoreIncrease struct {
	ID              int64     `db:"id" json:"id"`
	StudentID       int64     `db:"student_id" json:"student_id"`
	TaskID          int64     `db:"task_id" json:"task_id"`
	ProjectLevel1ID int64     `db:"project_level1_id" json:"project_level1_id"`
	ProjectLevel2ID *int64    `db:"project_level2_id" json:"project_level2_id"`
	Points          int       `db:"points" json:"points"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`

	ProjectLevel1Name *string `db:"project_level1_name" json:"project_level1_name,omitempty"`
}

type ScoreExchange struct {
	ID             int64     `db:"id" json:"id"`
	StudentID      int64     `db:"student_id" json:"student_id"`
	RewardOptionID int64     `db:"reward_option_id" json:"reward_option_id"`
	CostPoints     int       `db:"cost_points" json:"cost_points"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	RewardOptionName *string `db:"reward_option_name" json:"reward_option_name,omitempty"`
}

// ScoreSummary: производный баланс; в базе не хранится.
type ScoreSummary struct {
	AvailablePoints int `json:"available_points"`
	ExchangedPoints int `json:"exchanged_points"`
}

type RewardOption struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	CostPoints  int       `db:"cost_points" json:"cost_points"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type RewardOptionInput struct {
	Name        string  `json:"name" validate:"required,max=128"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	CostPoints  int     `json:"cost_points" validate:"required,gt=0"`
}

type RewardOptionPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	CostPoints  *int    `json:"cost_points" validate:"omitempty,gt=0"`
}

type PunishmentOption struct {
	ID                     int64     `db:"id" json:"id"`
	UserID                 int64     `db:"user_id" json:"user_id"`
	Name                   string    `db:"name" json:"name"`
	Description            *string   `db:"description" json:"description"`
	GenerateRelatedTask    bool      `db:"generate_related_task" json:"generate_related_task"`
	RelatedProjectLevel1ID *int64    `db:"related_project_level1_id" json:"related_project_level1_id"`
	RelatedProjectLevel2ID *int64    `db:"related_project_level2_id" json:"related_project_level2_id"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

type PunishmentOptionInput struct {
	Name                   string  `json:"name" validate:"required,max=128"`
	Description            *string `json:"description" validate:"omitempty,max=255"`
	GenerateRelatedTask    bool    `json:"generate_related_task"`
	RelatedProjectLevel1ID *int64  `json:"related_project_level1_id"`
	RelatedProjectLevel2ID *int64  `json:"related_project_level2_id"`
}

type PunishmentOptionPatch struct {
	Name                   *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description            *string `json:"description" validate:"omitempty,max=255"`
	GenerateRelatedTask    *bool   `json:"generate_related_task"`
	RelatedProjectLevel1ID *int64  `json:"related_project_level1_id"`
	RelatedProjectLevel2ID *int64  `json:"related_project_level2_id"`
}

// Apply накладывает патч на копию опции.
func (p PunishmentOptionPatch) Apply(o PunishmentOption) PunishmentOption {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Description != nil {
		o.Description = p.Description
	}
	if p.GenerateRelatedTask != nil {
		o.GenerateRelatedTask = *p.GenerateRelatedTask
	}
	if p.RelatedProjectLevel1ID != nil {
		o.RelatedProjectLevel1ID = p.RelatedProjectLevel1ID
	}
	if p.RelatedProjectLevel2ID != nil {
		o.RelatedProjectLevel2ID = p.RelatedProjectLevel2ID
	}
	return o
}

// RatingSummary: сколько выполненных задач с каждой оценкой по проекту 1-го уровня.
type RatingSummary struct {
	ProjectLevel1ID   int64          `json:"project_level1_id"`
	ProjectLevel1Name string         `json:"project_level1_name"`
	Ratings           map[string]int `json:"ratings"`
}

type StudentDashboard struct {
	Student           Student         `json:"student"`
	ScoreSummary      ScoreSummary    `json:"score_summary"`
	TaskRatingSummary []RatingSummary `json:"task_rating_summary"`
}
