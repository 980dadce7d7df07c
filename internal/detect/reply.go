package detect

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseReply parses a model response into a Reply. Vision models wrap
// their JSON in markdown fences, add comments, or leave trailing commas,
// so the raw text is sanitized before unmarshalling. An error means the
// reply carried no usable JSON at all; callers treat that page as zero
// detections rather than failing the document.
func ParseReply(raw string) (Reply, error) {
	cleaned := sanitizeModelJSON(raw)

	if !strings.HasPrefix(cleaned, "{") {
		return Reply{}, fmt.Errorf("reply is not a JSON object: %.80q", raw)
	}

	var reply Reply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return Reply{}, fmt.Errorf("failed to parse model reply: %w", err)
	}

	return reply, nil
}

// sanitizeModelJSON removes code fences, comments, and trailing commas,
// then keeps only the outermost {...}.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
