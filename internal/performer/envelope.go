package performer

import (
	"encoding/json"
	"strings"
)

// rawSegment is one entry of the response envelope the model is instructed to
// emit: a JSON array of objects carrying the spoken text, an optional
// directive payload, and an optional gesture reference.
//
//	[{"text": "Well met.", "d": {"t": "warm", "pc": "slow"}, "g": "slow_nod"}]
type rawSegment struct {
	Text string         `json:"text"`
	D    map[string]any `json:"d"`
	G    string         `json:"g"`
}

// parseEnvelope extracts raw segments from model output.
//
// The parser is deliberately lenient: models wrap their JSON in markdown
// fences, prepend chatter, or trail explanations, and none of that should
// cost the caller the performance. It strips code fences, locates the
// outermost JSON array, and keeps only segments with non-empty text. A nil
// return means the content is not a usable envelope and should be treated as
// plain prose.
func parseEnvelope(content string) []rawSegment {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil
	}

	s = stripFences(s)

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil
	}

	var raws []rawSegment
	if err := json.Unmarshal([]byte(s[start:end+1]), &raws); err != nil {
		return nil
	}

	kept := raws[:0]
	for _, r := range raws {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// stripFences removes a surrounding markdown code fence, including an
// optional language tag on the opening fence.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if i := strings.LastIndex(rest, "```"); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
