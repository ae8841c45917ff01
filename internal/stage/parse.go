package stage

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// snippetLimit bounds the reply text kept on a parse failure.
const snippetLimit = 300

// cleanJSON extracts a JSON object from text that may contain markdown
// code fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Outermost { ... } block.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// parseReply decodes a JSON reply for role into T.
func parseReply[T any](role Role, text string) (T, *StageError) {
	var out T
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return out, &StageError{
			Stage:   role,
			Kind:    KindParse,
			Err:     eris.Wrap(err, "decode reply"),
			Snippet: snippet(text),
		}
	}
	return out, nil
}

func snippet(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) > snippetLimit {
		r = r[:snippetLimit]
	}
	return string(r)
}
