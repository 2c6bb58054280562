package clarify

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

const fence = "```"

var errNotObject = errors.New("output is not a JSON object")

// ParseResponse extracts the four clarification lists from raw generator
// output. Fences and surrounding prose are tolerated; missing fields become
// empty lists. Output that holds no JSON object fails with a
// *MalformedResponseError.
func ParseResponse(raw string) (ParsedFields, error) {
	payload := extractPayload(raw)

	if !isObject(payload) {
		start := strings.IndexByte(payload, '{')
		end := strings.LastIndexByte(payload, '}')
		if start < 0 || end <= start || !isObject(payload[start:end+1]) {
			return ParsedFields{}, &MalformedResponseError{Raw: raw, Err: errNotObject}
		}
		payload = payload[start : end+1]
	}

	doc := gjson.Parse(payload)
	fields := ParsedFields{
		AcceptanceCriteria: stringList(doc.Get("acceptanceCriteria")),
		EdgeCases:          stringList(doc.Get("edgeCases")),
		SuccessMetrics:     stringList(doc.Get("successMetrics")),
		TestScenarios:      stringList(doc.Get("testScenarios")),
	}

	if c := doc.Get("confidence"); c.Type == gjson.Number {
		if v := c.Float(); v >= 0 && v <= 1 {
			fields.Confidence = &v
		}
	}

	return fields, nil
}

// extractPayload returns the body of the first ```json fence, else the body
// of the first generic fence, else the whole text.
func extractPayload(raw string) string {
	if i := jsonFenceIndex(raw); i >= 0 {
		return strings.TrimSpace(untilFence(raw[i+len(fence)+len("json"):]))
	}

	if i := strings.Index(raw, fence); i >= 0 {
		body := untilFence(raw[i+len(fence):])
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && isLanguageTag(strings.TrimSpace(body[:nl])) {
			body = body[nl+1:]
		}
		return strings.TrimSpace(body)
	}

	return strings.TrimSpace(raw)
}

// jsonFenceIndex finds the first fence tagged json in any case. Offsets are
// taken on raw itself; case folding the whole text can change its length.
func jsonFenceIndex(raw string) int {
	pos := 0
	for {
		i := strings.Index(raw[pos:], fence)
		if i < 0 {
			return -1
		}
		i += pos
		tag := raw[i+len(fence):]
		if len(tag) >= len("json") && strings.EqualFold(tag[:len("json")], "json") {
			return i
		}
		pos = i + len(fence)
	}
}

func untilFence(s string) string {
	if j := strings.Index(s, fence); j >= 0 {
		return s[:j]
	}
	return s
}

func isLanguageTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '+' || r == '.':
		default:
			return false
		}
	}
	return true
}

func isObject(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}

func stringList(v gjson.Result) []string {
	out := []string{}
	if !v.Exists() {
		return out
	}
	if v.IsArray() {
		v.ForEach(func(_, el gjson.Result) bool {
			if s, ok := coerce(el); ok {
				out = append(out, s)
			}
			return true
		})
		return out
	}
	if s, ok := coerce(v); ok {
		out = append(out, s)
	}
	return out
}

func coerce(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.Null:
		return "", false
	case gjson.String:
		return v.Str, true
	case gjson.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw, true
		}
		return buf.String(), true
	default:
		return v.Raw, true
	}
}
