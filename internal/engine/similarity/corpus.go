package similarity

import (
	"bufio"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"clarifier/internal/engine/clarify"
)

// minScore filters out matches that only share a stray common word.
const minScore = 0.05

type entry struct {
	ticket clarify.SimilarTicket
	tokens map[string]struct{}
}

// CorpusProvider ranks a curated ticket corpus by token overlap with the
// query. The corpus is read once and is shared across tenants, so it never
// contains customer data.
type CorpusProvider struct {
	entries []entry
	enabled bool
}

// LoadCorpus reads a JSONL file where each line has raw_title/raw_description
// (or title/description). Malformed lines are skipped.
func LoadCorpus(path string, enabled bool) (*CorpusProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewCorpusProvider(f, enabled)
}

func NewCorpusProvider(r io.Reader, enabled bool) (*CorpusProvider, error) {
	p := &CorpusProvider{enabled: enabled}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if !gjson.Valid(raw) {
			log.Warn().Int("line", line).Msg("skipping malformed corpus line")
			continue
		}
		fields := gjson.GetMany(raw, "raw_title", "title", "raw_description", "description")
		title := firstNonEmpty(fields[0].String(), fields[1].String())
		description := firstNonEmpty(fields[2].String(), fields[3].String())
		if title == "" && description == "" {
			continue
		}
		p.entries = append(p.entries, entry{
			ticket: clarify.SimilarTicket{Title: title, Description: description},
			tokens: tokenize(title + " " + description),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *CorpusProvider) Enabled() bool {
	return p != nil && p.enabled && len(p.entries) > 0
}

func (p *CorpusProvider) Len() int {
	return len(p.entries)
}

// Query returns up to limit corpus tickets ordered by Jaccard similarity.
func (p *CorpusProvider) Query(ctx context.Context, text string, limit int) ([]clarify.SimilarTicket, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := tokenize(text)
	if len(query) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var matches []scored
	for i, e := range p.entries {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if s := jaccard(query, e.tokens); s >= minScore {
			matches = append(matches, scored{idx: i, score: s})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]clarify.SimilarTicket, 0, len(matches))
	for _, m := range matches {
		out = append(out, p.entries[m.idx].ticket)
	}
	return out, nil
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(word) < 3 || stopWords[word] {
			continue
		}
		tokens[word] = struct{}{}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for t := range small {
		if _, ok := large[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	"from": true, "are": true, "was": true, "when": true, "should": true, "will": true,
	"can": true, "not": true, "but": true, "have": true, "has": true, "into": true,
}
