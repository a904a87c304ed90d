package voice

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	bareObject = regexp.MustCompile(`\{[\s\S]*\}`)
)

var errNoJSON = errors.New("AI response contains no JSON object")

// extractJSON достаёт объект из ответа модели: весь текст, блок ```json, первый {…}.
func extractJSON(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	var out map[string]any
	if json.Unmarshal([]byte(content), &out) == nil && out != nil {
		return out, nil
	}
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		if json.Unmarshal([]byte(strings.TrimSpace(m[1])), &out) == nil && out != nil {
			return out, nil
		}
	}
	if m := bareObject.FindString(content); m != "" {
		if json.Unmarshal([]byte(m), &out) == nil && out != nil {
			return out, nil
		}
	}
	return nil, errNoJSON
}
