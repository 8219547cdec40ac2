// Package generate runs the content generation pipeline: prompts,
// template variables, model calls and artifact assembly.
package generate

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// systemVariables are resolved locally, never sent to the model.
var systemVariables = map[string]struct{}{
	"date": {}, "year": {}, "month": {}, "day": {}, "time": {},
	"site_name": {}, "site_description": {}, "random_number": {},
	"topic": {}, "title": {},
}

// SiteInfo identifies the destination site in prompts.
type SiteInfo struct {
	Name        string
	Description string
}

// Vars is the substitution context for one run.
type Vars struct {
	Now   time.Time
	Site  SiteInfo
	Topic string
	Title string

	// RandInt is swappable for tests; nil uses math/rand.
	RandInt func(n int) int
}

// Process substitutes the system variables into s. Placeholders that
// are not system variables are left in place for the AI variable
// resolution pass.
func (v Vars) Process(s string) string {
	randInt := v.RandInt
	if randInt == nil {
		randInt = rand.Intn
	}

	values := map[string]string{
		"date":             v.Now.Format("2006-01-02"),
		"year":             v.Now.Format("2006"),
		"month":            v.Now.Format("January"),
		"day":              v.Now.Format("Monday"),
		"time":             v.Now.Format("15:04"),
		"site_name":        v.Site.Name,
		"site_description": v.Site.Description,
		"random_number":    fmt.Sprintf("%d", randInt(10000)),
		"topic":            v.Topic,
		"title":            v.Title,
	}

	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.ToLower(placeholderRe.FindStringSubmatch(m)[1])
		if val, ok := values[name]; ok {
			return val
		}
		return m
	})
}

// ExtractAIVariables returns the placeholders in s that are not system
// variables, deduplicated, in a stable order. These are the custom
// variables the model is asked to invent values for.
func ExtractAIVariables(s string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if _, ok := systemVariables[strings.ToLower(name)]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ReplaceVariables substitutes the given name/value pairs into s.
func ReplaceVariables(s string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if val, ok := values[name]; ok {
			return val
		}
		return m
	})
}

// aiVarContextLimit bounds the article view included in the variable
// resolution prompt.
const aiVarContextLimit = 2000

// BuildAIVariablesPrompt asks the model to supply values for the
// custom variables, given a truncated view of the content they appear in.
func BuildAIVariablesPrompt(names []string, content string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("The following article contains placeholder variables that need values.\n")
	b.WriteString("Respond with a single JSON object mapping each variable name to a short text value.\n")
	b.WriteString("Do not include any other text in your response.\n\nVariables: ")
	b.WriteString(strings.Join(sorted, ", "))
	b.WriteString("\n\nArticle:\n")
	b.WriteString(SmartTruncate(content, aiVarContextLimit))
	return b.String()
}

// ParseAIVariablesResponse decodes the model's JSON object, tolerating
// markdown code fences around it. Only the expected variable names are
// kept; extra keys the model invents are dropped.
func ParseAIVariablesResponse(s string, expected []string) (map[string]string, error) {
	s = stripCodeFences(s)

	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse variables response: %w", err)
	}

	out := make(map[string]string, len(expected))
	for _, name := range expected {
		v, ok := raw[name]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			out[name] = val
		default:
			out[name] = fmt.Sprintf("%v", val)
		}
	}
	return out, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// truncationMarker separates head and tail in a truncated document.
const truncationMarker = "\n\n[...]\n\n"

// SmartTruncate shortens s to at most max bytes, keeping 60% from the
// head and 40% from the tail with a marker between them. Openings and
// conclusions carry most of a document's meaning; the middle is the
// safest part to drop. Cut points never split a multibyte rune.
func SmartTruncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= len(truncationMarker) {
		return cutPrefix(s, max)
	}

	budget := max - len(truncationMarker)
	head := budget * 60 / 100
	tail := budget - head
	return cutPrefix(s, head) + truncationMarker + cutSuffix(s, tail)
}

// cutPrefix returns the longest prefix of s within n bytes that ends
// on a rune boundary.
func cutPrefix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// cutSuffix returns the longest suffix of s within n bytes that starts
// on a rune boundary.
func cutSuffix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
