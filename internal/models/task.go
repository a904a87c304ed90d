package models

import (
	"bytes"
	"encoding/json"
	"time"
)

type Task struct {
	ID                 int64      `db:"id" json:"id"`
	StudentID          int64      `db:"student_id" json:"student_id"`
	ProjectLevel1ID    int64      `db:"project_level1_id" json:"project_level1_id"`
	ProjectLevel2ID    *int64     `db:"project_level2_id" json:"project_level2_id"`
	Status             TaskStatus `db:"status" json:"status"`
	Rating             *Rating    `db:"rating" json:"rating"`
	RewardType         RewardType `db:"reward_type" json:"reward_type"`
	RewardPoints       *int       `db:"reward_points" json:"reward_points"`
	PunishmentOptionID *int64     `db:"punishment_option_id" json:"punishment_option_id"`
	IsDeleted          bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt          *time.Time `db:"deleted_at" json:"deleted_at"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`

	ProjectLevel1Name *string `db:"project_level1_name" json:"project_level1_name"`
	ProjectLevel2Name *string `db:"project_level2_name" json:"project_level2_name"`
}

type TaskInput struct {
	StudentID          int64      `json:"student_id" validate:"required"`
	ProjectLevel1ID    int64      `json:"project_level1_id" validate:"required"`
	ProjectLevel2ID    *int64     `json:"project_level2_id"`
	Status             TaskStatus `json:"status" validate:"required,oneof=not_started in_progress completed canceled"`
	Rating             *Rating    `json:"rating" validate:"omitempty,oneof=A* A A- B B- C"`
	RewardType         RewardType `json:"reward_type" validate:"required,oneof=none reward punish"`
	RewardPoints       *int       `json:"reward_points" validate:"omitempty,gt=0"`
	PunishmentOptionID *int64     `json:"punishment_option_id"`
}

// TaskPatch: частичное обновление задачи. Отсутствующее поле не меняется,
// явный null в nullable-поле очищает его (флаги Clear*).
type TaskPatch struct {
	ProjectLevel1ID    *int64      `json:"project_level1_id"`
	ProjectLevel2ID    *int64      `json:"project_level2_id"`
	Status             *TaskStatus `json:"status" validate:"omitempty,oneof=not_started in_progress completed canceled"`
	Rating             *Rating     `json:"rating" validate:"omitempty,oneof=A* A A- B B- C"`
	RewardType         *RewardType `json:"reward_type" validate:"omitempty,oneof=none reward punish"`
	RewardPoints       *int        `json:"reward_points" validate:"omitempty,gt=0"`
	PunishmentOptionID *int64      `json:"punishment_option_id"`

	ClearProjectLevel2ID    bool `json:"-"`
	ClearRating             bool `json:"-"`
	ClearRewardPoints       bool `json:"-"`
	ClearPunishmentOptionID bool `json:"-"`
}

var jsonNull = []byte("null")

func (p *TaskPatch) UnmarshalJSON(b []byte) error {
	type plain TaskPatch
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	isNull := func(key string) bool {
		m, ok := raw[key]
		return ok && bytes.Equal(bytes.TrimSpace(m), jsonNull)
	}
	v.ClearProjectLevel2ID = isNull("project_level2_id")
	v.ClearRating = isNull("rating")
	v.ClearRewardPoints = isNull("reward_points")
	v.ClearPunishmentOptionID = isNull("punishment_option_id")
	*p = TaskPatch(v)
	return nil
}

// Apply накладывает патч на копию задачи.
func (p TaskPatch) Apply(t Task) Task {
	if p.ProjectLevel1ID != nil {
		t.ProjectLevel1ID = *p.ProjectLevel1ID
	}
	switch {
	case p.ProjectLevel2ID != nil:
		t.ProjectLevel2ID = p.ProjectLevel2ID
	case p.ClearProjectLevel2ID:
		t.ProjectLevel2ID = nil
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	switch {
	case p.Rating != nil:
		t.Rating = p.Rating
	case p.ClearRating:
		t.Rating = nil
	}
	if p.RewardType != nil {
		t.RewardType = *p.RewardType
	}
	switch {
	case p.RewardPoints != nil:
		t.RewardPoints = p.RewardPoints
	case p.ClearRewardPoints:
		t.RewardPoints = nil
	}
	switch {
	case p.PunishmentOptionID != nil:
		t.PunishmentOptionID = p.PunishmentOptionID
	case p.ClearPunishmentOptionID:
		t.PunishmentOptionID = nil
	}
	return t
}

// TaskFilter: фильтры списка задач ученика.
type TaskFilter struct {
	ProjectLevel1ID  *int64
	ProjectLevel2ID  *int64
	Statuses         []TaskStatus
	IncludeAllStatus bool
	CompletedAfter   *time.Time
}
