package voice

import (
	"fmt"
	"strings"

	"github.com/Spok95/family-score/internal/models"
)

// Catalog: справочники родителя, по которым сопоставляются названия из речи.
type Catalog struct {
	Projects          []models.Project
	RewardOptions     []models.RewardOption
	PunishmentOptions []models.PunishmentOption
}

func (c Catalog) level1() []models.Project {
	var out []models.Project
	for _, p := range c.Projects {
		if p.Level == models.Level1 {
			out = append(out, p)
		}
	}
	return out
}

func (c Catalog) children(parentID int64) []models.Project {
	var out []models.Project
	for _, p := range c.Projects {
		if p.Level == models.Level2 && p.ParentID != nil && *p.ParentID == parentID {
			out = append(out, p)
		}
	}
	return out
}

const systemPrompt = `Ты помощник семейной системы баллов. Родитель диктует команду голосом, текст распознан автоматически и может содержать ошибки.

Поддерживаются два действия:
1. add_task: записать задачу ребёнка (проект 1-го уровня, проект 2-го уровня, статус, оценка, награда или наказание).
2. exchange_points: обменять баллы на награду.
Если команда не подходит ни к одному действию, верни action "unknown".

Исправь явные ошибки распознавания, опираясь на списки проектов и опций ниже.

Ответь только JSON без пояснений:
{
  "action": "add_task" | "exchange_points" | "unknown",
  "confidence": число от 0 до 1,
  "corrected_text": "исправленный текст",
  "data": {
    "project_level1_name": "...",
    "project_level2_name": "...",
    "status": "not_started | in_progress | completed | canceled",
    "rating": "A* | A | A- | B | B- | C",
    "reward_type": "none | reward | punish",
    "reward_points": число,
    "punishment_option_name": "...",
    "reward_name": "..."
  },
  "message": "короткое пояснение для пользователя"
}
Поля data, которых нет в команде, не заполняй.`

// buildSystemPrompt дописывает к базовому промпту справочники пользователя.
func buildSystemPrompt(c Catalog) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nСправочники пользователя. Сопоставляй названия с ними, даже если распознавание ошиблось.\n\nПроекты:\n")
	for _, p := range c.level1() {
		kids := c.children(p.ID)
		names := make([]string, 0, len(kids))
		for _, k := range kids {
			names = append(names, k.Name)
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Name, strings.Join(names, ", "))
		} else {
			fmt.Fprintf(&b, "- %s\n", p.Name)
		}
	}

	b.WriteString("\nСтатусы: ")
	statuses := make([]string, 0, len(models.TaskStatuses))
	for _, s := range models.TaskStatuses {
		statuses = append(statuses, fmt.Sprintf("%s=%s", s, models.Label("task_status", string(s))))
	}
	b.WriteString(strings.Join(statuses, ", "))

	b.WriteString("\nОценки: ")
	ratings := make([]string, 0, len(models.Ratings))
	for _, r := range models.Ratings {
		ratings = append(ratings, string(r))
	}
	b.WriteString(strings.Join(ratings, ", "))

	b.WriteString("\nТипы награды: ")
	types := make([]string, 0, len(models.RewardTypes))
	for _, t := range models.RewardTypes {
		types = append(types, fmt.Sprintf("%s=%s", t, models.Label("reward_type", string(t))))
	}
	b.WriteString(strings.Join(types, ", "))

	fmt.Fprintf(&b, "\nБаллы (подсказка): %v. Если названо другое число, верни именно его.", models.RewardPointPresets)

	if len(c.PunishmentOptions) > 0 {
		b.WriteString("\nНаказания: ")
		names := make([]string, 0, len(c.PunishmentOptions))
		for _, p := range c.PunishmentOptions {
			names = append(names, p.Name)
		}
		b.WriteString(strings.Join(names, ", "))
	}
	if len(c.RewardOptions) > 0 {
		b.WriteString("\nНаграды для обмена: ")
		names := make([]string, 0, len(c.RewardOptions))
		for _, r := range c.RewardOptions {
			names = append(names, fmt.Sprintf("%s (%d баллов)", r.Name, r.CostPoints))
		}
		b.WriteString(strings.Join(names, ", "))
	}
	return b.String()
}
