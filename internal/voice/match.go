package voice

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Spok95/family-score/internal/models"
)

func runes(s string) int { return utf8.RuneCountInString(s) }

// matchProject: точное совпадение, иначе вхождение с ограничением по длине.
func matchProject(name string, candidates []models.Project) *models.Project {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for i := range candidates {
		if candidates[i].Name == name {
			return &candidates[i]
		}
	}
	for i := range candidates {
		pn := candidates[i].Name
		if runes(name) >= 3 && strings.Contains(pn, name) && runes(pn)-runes(name) <= 5 {
			return &candidates[i]
		}
		if runes(pn) >= 3 && strings.Contains(name, pn) {
			return &candidates[i]
		}
	}
	return nil
}

func matchPunishment(name string, options []models.PunishmentOption) *models.PunishmentOption {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for i := range options {
		if options[i].Name == name {
			return &options[i]
		}
	}
	for i := range options {
		on := options[i].Name
		if runes(name) >= 2 && strings.Contains(on, name) {
			return &options[i]
		}
		if runes(on) >= 2 && strings.Contains(name, on) {
			return &options[i]
		}
	}
	return nil
}

// matchReward: по названию, затем по числу из команды внутри названия опции.
func matchReward(name string, options []models.RewardOption) *models.RewardOption {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for i := range options {
		if options[i].Name == name {
			return &options[i]
		}
	}
	for i := range options {
		on := options[i].Name
		if strings.Contains(on, name) || strings.Contains(name, on) {
			return &options[i]
		}
	}
	if digits := leadingNumber(name); digits != "" {
		for i := range options {
			if strings.Contains(options[i].Name, digits) {
				return &options[i]
			}
		}
	}
	return nil
}

func leadingNumber(s string) string {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[start:end]
}

// normalizeRating приводит произнесённую оценку к шкале; ok=false, если не распознана.
func normalizeRating(raw string) (models.Rating, bool) {
	r := strings.ToUpper(strings.TrimSpace(raw))
	if models.Rating(r).Valid() {
		return models.Rating(r), true
	}
	lower := strings.ToLower(r)
	star := strings.Contains(lower, "*") || strings.Contains(lower, "星")
	switch {
	case strings.Contains(lower, "优") || strings.Contains(lower, "a"):
		if star {
			return models.RatingAStar, true
		}
		return models.RatingA, true
	case strings.Contains(lower, "良") || strings.Contains(lower, "b"):
		return models.RatingB, true
	case strings.Contains(lower, "中") || strings.Contains(lower, "c"),
		strings.Contains(lower, "差") || strings.Contains(lower, "d"):
		return models.RatingC, true
	}
	return "", false
}

// toInt принимает число из JSON или строку с числом.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

func isPreset(points int) bool {
	for _, p := range models.RewardPointPresets {
		if p == points {
			return true
		}
	}
	return false
}

func str(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// validateTask дополняет data найденными id и копит предупреждения.
func validateTask(data map[string]any, c Catalog) []string {
	var warnings []string

	var level1 *models.Project
	if name := str(data["project_level1_name"]); name != "" {
		level1 = matchProject(name, c.level1())
		if level1 != nil {
			data["project_level1_id"] = level1.ID
			data["project_level1_name_matched"] = level1.Name
		} else {
			warnings = append(warnings, fmt.Sprintf("project %q not found", name))
			data["project_level1_id"] = nil
		}
	}

	if name := str(data["project_level2_name"]); name != "" {
		var level2 *models.Project
		if level1 != nil {
			level2 = matchProject(name, c.children(level1.ID))
		}
		if level2 != nil {
			data["project_level2_id"] = level2.ID
			data["project_level2_name_matched"] = level2.Name
		} else {
			warnings = append(warnings, fmt.Sprintf("sub-project %q not found", name))
			data["project_level2_id"] = nil
		}
	}

	if raw := str(data["rating"]); raw != "" {
		if r, ok := normalizeRating(raw); ok {
			data["rating"] = string(r)
		} else {
			warnings = append(warnings, fmt.Sprintf("rating %q not recognized", raw))
			data["rating"] = nil
		}
	}

	if v, present := data["reward_points"]; present && v != nil {
		if n, ok := toInt(v); ok {
			data["reward_points"] = n
			if !isPreset(n) {
				warnings = append(warnings, fmt.Sprintf("reward points %d is not a preset value", n))
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("reward points %v is not a number", v))
			data["reward_points"] = nil
		}
	}

	if name := str(data["punishment_option_name"]); name != "" {
		if p := matchPunishment(name, c.PunishmentOptions); p != nil {
			data["punishment_option_id"] = p.ID
			data["punishment_option_name_matched"] = p.Name
		} else {
			warnings = append(warnings, fmt.Sprintf("punishment option %q not found", name))
			data["punishment_option_id"] = nil
		}
	}
	return warnings
}

const maxSuggestedRewards = 5

// validateExchange ищет опцию награды; при промахе возвращает подсказку со списком.
func validateExchange(data map[string]any, c Catalog) (warnings []string, hint string) {
	name := str(data["reward_name"])
	if name == "" {
		return nil, ""
	}
	if r := matchReward(name, c.RewardOptions); r != nil {
		data["reward_option_id"] = r.ID
		data["reward_option_name"] = r.Name
		data["cost_points"] = r.CostPoints
		return nil, ""
	}
	warnings = append(warnings, fmt.Sprintf("reward option %q not found", name))
	if len(c.RewardOptions) > 0 {
		n := len(c.RewardOptions)
		if n > maxSuggestedRewards {
			n = maxSuggestedRewards
		}
		names := make([]string, 0, n)
		for _, r := range c.RewardOptions[:n] {
			names = append(names, fmt.Sprintf("%s (%d)", r.Name, r.CostPoints))
		}
		hint = "available reward options: " + strings.Join(names, ", ")
	}
	return warnings, hint
}
