package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Model output parsing. Responses arrive as JSON wrapped in prose or
// markdown fences, or as loosely formatted key: value lines, sometimes
// mixing Spanish and English. Everything here is tolerant by intent.

var (
	numberToken = regexp.MustCompile(`[0-9]+[.,]?[0-9]*`)
	jsonObject  = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSONObject pulls a JSON object out of a model response:
// markdown fences are stripped, then a direct parse is attempted, then
// the widest brace-delimited span.
func ExtractJSONObject(text string) (map[string]interface{}, bool) {
	cleaned := text
	for _, marker := range []string{"```json", "```"} {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return result, true
	}
	if span := jsonObject.FindString(cleaned); span != "" {
		if err := json.Unmarshal([]byte(span), &result); err == nil {
			return result, true
		}
	}
	return nil, false
}

// ParseNumber extracts the first numeric token from a fragment,
// accepting comma decimals ("12,5").
func ParseNumber(text string) float64 {
	token := numberToken.FindString(text)
	if token == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// labelFields is the result of parsing a key: value style response.
type labelFields struct {
	Name        string
	Ingredients string
	Calories    float64
	Protein     float64
	Carbs       float64
	Fat         float64
}

var (
	calorieKeys = []string{"caloria", "caloría", "energia", "energía", "energy", "kcal"}
	proteinKeys = []string{"proteina", "proteína", "protein"}
	carbsKeys   = []string{"carbohidrato", "hidrato", "carbohydrate", "carbs"}
	fatKeys     = []string{"grasa", "lipido", "lípido", "fat"}
)

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// valuePart returns the text after the first colon, or the whole line.
func valuePart(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return line[idx+1:]
	}
	return line
}

// parseLabelFields reads line-oriented nutrition output. Lines match
// on bilingual keyword fragments; "grasas saturadas" is skipped so the
// saturated sub-line does not overwrite total fat. Calorie values
// given in kJ are converted to kcal.
func parseLabelFields(text string) labelFields {
	var f labelFields
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)
		if lower == "" || strings.HasPrefix(lower, "#") || strings.HasPrefix(lower, "**") {
			continue
		}

		switch {
		case strings.Contains(lower, "nombre:") || strings.Contains(lower, "name:"):
			if f.Name == "" {
				f.Name = strings.Trim(strings.TrimSpace(valuePart(line)), "*")
			}
		case strings.Contains(lower, "ingrediente"):
			f.Ingredients = strings.Trim(strings.TrimSpace(valuePart(line)), "*")
		case containsAny(lower, calorieKeys):
			if v := ParseNumber(valuePart(line)); v > 0 {
				if strings.Contains(lower, "kj") && !strings.Contains(lower, "kcal") {
					v = round1(v / 4.184)
				}
				f.Calories = v
			}
		case containsAny(lower, proteinKeys):
			if v := ParseNumber(valuePart(line)); v > 0 {
				f.Protein = v
			}
		case containsAny(lower, carbsKeys):
			if v := ParseNumber(valuePart(line)); v > 0 {
				f.Carbs = v
			}
		case containsAny(lower, fatKeys):
			if strings.Contains(lower, "saturad") {
				continue
			}
			if v := ParseNumber(valuePart(line)); v > 0 {
				f.Fat = v
			}
		}
	}
	return f
}

// unreadableName reports the placeholder names the prompts instruct
// the model to emit when it cannot read or identify anything.
func unreadableName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "no encontrado", "no identificado":
		return true
	}
	return false
}

// numberField reads the first present key from a decoded JSON object,
// tolerating numeric and string-encoded values.
func numberField(m map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case string:
			if n := ParseNumber(v); n > 0 {
				return n
			}
		}
	}
	return 0
}

func textField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
