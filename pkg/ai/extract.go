package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a model reply carries no parseable JSON object.
var ErrNoJSON = errors.New("reply contains no parseable JSON object")

// ExtractJSON isolates the JSON payload of a model reply. Replies are not
// guaranteed to be bare JSON: the payload may be wrapped in a fenced code
// block opened by a language-tagged marker (```json) or a bare marker (```).
// The first fenced block wins when several are present; without any fence the
// whole reply must parse as JSON.
func ExtractJSON(reply string) ([]byte, error) {
	payload := strings.TrimSpace(reply)
	if idx := strings.Index(reply, "```"); idx >= 0 {
		rest := reply[idx+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && isFenceTag(rest[:nl]) {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		payload = strings.TrimSpace(rest)
	}
	if payload == "" || !json.Valid([]byte(payload)) {
		return nil, ErrNoJSON
	}
	return []byte(payload), nil
}

// isFenceTag reports whether the text following the opening marker on the same
// line is a language tag (or nothing) rather than payload content.
func isFenceTag(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	for _, r := range line {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
