package models

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCanceled   TaskStatus = "canceled"
)

var TaskStatuses = []TaskStatus{TaskNotStarted, TaskInProgress, TaskCompleted, TaskCanceled}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Mutable: менять можно только задачи, которые ещё не завершены и не отменены.
func (s TaskStatus) Mutable() bool {
	return s == TaskNotStarted || s == TaskInProgress
}

type Rating string

const (
	RatingAStar  Rating = "A*"
	RatingA      Rating = "A"
	RatingAMinus Rating = "A-"
	RatingB      Rating = "B"
	RatingBMinus Rating = "B-"
	RatingC      Rating = "C"
)

var Ratings = []Rating{RatingAStar, RatingA, RatingAMinus, RatingB, RatingBMinus, RatingC}

func (r Rating) Valid() bool {
	for _, v := range Ratings {
		if v == r {
			return true
		}
	}
	return false
}

type RewardType string

const (
	RewardNone   RewardType = "none"
	RewardPoints RewardType = "reward"
	RewardPunish RewardType = "punish"
)

var RewardTypes = []RewardType{RewardNone, RewardPoints, RewardPunish}

func (t RewardType) Valid() bool {
	for _, v := range RewardTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

var Genders = []Gender{Male, Female}

type Stage string

const (
	StagePrimary    Stage = "primary"
	StageJuniorHigh Stage = "junior_high"
)

var Stages = []Stage{StagePrimary, StageJuniorHigh}

type ProjectLevel int

const (
	Level1 ProjectLevel = 1
	Level2 ProjectLevel = 2
)

type AccountType string

const (
	AccountEmail    AccountType = "email"
	AccountWeChat   AccountType = "wechat"
	AccountDingTalk AccountType = "dingtalk"
)

// RewardPointPresets: значения, которые фронтенд предлагает в выпадающем списке.
var RewardPointPresets = []int{1, 3, 5, 7, 10}

var labels = map[string]map[string]string{
	"gender":          {"male": "Мальчик", "female": "Девочка"},
	"education_stage": {"primary": "Начальная школа", "junior_high": "Средняя школа"},
	"task_status": {
		"not_started": "Не начата",
		"in_progress": "В работе",
		"completed":   "Выполнена",
		"canceled":    "Отменена",
	},
	"reward_type":   {"none": "Нет", "reward": "Награда", "punish": "Наказание"},
	"project_level": {"1": "Проект 1-го уровня", "2": "Проект 2-го уровня"},
}

// Label: человекочитаемое название значения перечисления; для неизвестных возвращает само значение.
func Label(kind, value string) string {
	if m, ok := labels[kind]; ok {
		if l, ok := m[value]; ok {
			return l
		}
	}
	return value
}
