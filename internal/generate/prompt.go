package generate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"postforge/internal/store"
)

const (
	contentSystemPrompt = "You are a professional content writer. Write engaging, well-researched articles."
	titleSystemPrompt   = "You write compelling, concise article titles. Respond with the title only."
	excerptSystemPrompt = "You summarize articles into short excerpts. Respond with the excerpt only."

	// Appended to every content prompt so output is directly publishable.
	formattingSuffix = "\n\nFormat the response as clean HTML using <h2>, <h3>, <p>, <ul> and <ol> tags. " +
		"Do not include <html>, <head> or <body> tags, markdown, or the article title."

	// excerptContextLimit caps how much article text rides along with
	// the excerpt and title prompts.
	excerptContextLimit = 6000

	// excerptMaxLen is the hard cap on stored excerpts.
	excerptMaxLen = 160

	fallbackTopicLimit = 50
)

// structureSection is one entry of a structure's sections document.
type structureSection struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
}

// BuildContentPrompt assembles the article prompt: the processed
// template prompt, the structure outline when present, and the
// formatting contract.
func BuildContentPrompt(prompt string, structure *store.Structure) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))

	if outline := renderStructure(structure); outline != "" {
		b.WriteString("\n\nStructure the article as follows:\n")
		b.WriteString(outline)
	}

	b.WriteString(formattingSuffix)
	return b.String()
}

func renderStructure(structure *store.Structure) string {
	if structure == nil || len(structure.Sections) == 0 {
		return ""
	}

	var sections []structureSection
	if err := json.Unmarshal(structure.Sections, &sections); err != nil || len(sections) == 0 {
		return ""
	}

	var b strings.Builder
	for i, s := range sections {
		fmt.Fprintf(&b, "%d. %s", i+1, s.Title)
		if s.Instructions != "" {
			b.WriteString(" - ")
			b.WriteString(s.Instructions)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildTitlePrompt pairs the template's title prompt with a truncated
// view of the generated article.
func BuildTitlePrompt(titlePrompt, content string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(titlePrompt))
	b.WriteString("\n\nThe article:\n")
	b.WriteString(SmartTruncate(content, excerptContextLimit))
	return b.String()
}

// BuildExcerptPrompt asks for a short plain-text summary of the
// article, title included.
func BuildExcerptPrompt(title, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a plain-text excerpt of at most %d characters for the following article. ", excerptMaxLen)
	b.WriteString("No quotes, no HTML.\n\nThe article title:\n")
	b.WriteString(strings.TrimSpace(title))
	b.WriteString("\n\nThe article:\n")
	b.WriteString(SmartTruncate(content, excerptContextLimit))
	return b.String()
}

// CleanExcerpt normalizes a model-produced excerpt: strip wrapping
// quotes and whitespace, then enforce the length cap on a rune
// boundary.
func CleanExcerpt(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if len(s) > excerptMaxLen {
		s = strings.TrimSpace(cutPrefix(s, excerptMaxLen))
	}
	return s
}

// FallbackTitle builds a deterministic title when title generation
// fails or returns unresolved placeholders.
func FallbackTitle(topic string, now time.Time) string {
	title := "AI Generated Post"
	if topic = strings.TrimSpace(topic); topic != "" {
		if len(topic) > fallbackTopicLimit {
			topic = cutPrefix(topic, fallbackTopicLimit) + "..."
		}
		title += ": " + topic
	}
	return title + " - " + now.Format("2006-01-02 15:04")
}
