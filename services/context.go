package services

import (
	"strings"

	"gamechat-rag/models"
)

// DefaultContextCharLimit bounds the assembled context when no limit is configured
const DefaultContextCharLimit = 2000

// BuildContext joins the trimmed document texts with blank lines and cuts the
// result to at most limit characters
func BuildContext(docs []models.RetrievedDocument, limit int) string {
	if limit <= 0 {
		limit = DefaultContextCharLimit
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	context := strings.Join(parts, "\n\n")
	runes := []rune(context)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return context
}
