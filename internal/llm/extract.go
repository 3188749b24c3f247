package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when generated text contains no JSON object
var ErrNoJSON = errors.New("no JSON object in generated text")

var quoteReplacer = strings.NewReplacer(
	"\u201C", `"`,
	"\u201D", `"`,
	"\u201E", `"`,
	"\u2018", `'`,
	"\u2019", `'`,
	"\uFF02", `"`,
)

// DecodeJSON extracts the first JSON object from generated text and decodes it into v.
// Markdown code fences, leading prose and typographic quotes are tolerated.
func DecodeJSON(text string, v any) error {
	cleaned := quoteReplacer.Replace(text)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return ErrNoJSON
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err != nil {
		return fmt.Errorf("decode generated JSON: %w", err)
	}
	return nil
}
