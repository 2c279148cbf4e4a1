// Package parser extracts #tags from note text and splits imported Markdown
// files into a title and body.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// TagMarker introduces a tag candidate token.
const TagMarker = '#'

// tagPunct is trimmed from both ends of a candidate after the marker.
const tagPunct = ".,;:!?-()[]{}"

// ExtractTags returns the tag names found in text, deduplicated and in
// first-occurrence order. A tag is a whitespace-delimited token that starts
// with '#' and has at least one more character; surrounding punctuation is
// stripped from the part after the marker and empty results are dropped.
// Only the first '#' is consumed, so "##go" yields "#go".
func ExtractTags(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(text) {
		if len(tok) <= 1 || tok[0] != TagMarker {
			continue
		}
		name := strings.Trim(tok[1:], tagPunct)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Result holds the output of parsing an imported file.
type Result struct {
	Frontmatter map[string]any
	Title       string
	Body        string
	Tags        []string
}

// Parse splits raw file content into frontmatter, title and body, and extracts
// the body's tags. The title comes from the frontmatter "title" key, then the
// first H1 heading, then fallback.
func Parse(data []byte, fallbackTitle string) *Result {
	fm, body := splitFrontmatter(data)
	title := deriveTitle(fm, body)
	if title == "" {
		title = fallbackTitle
	}
	return &Result{
		Frontmatter: fm,
		Title:       title,
		Body:        body,
		Tags:        ExtractTags(body),
	}
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Without valid frontmatter the whole content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}

	// Drop the closing delimiter's line break and at most one blank
	// separator line; further leading blank lines belong to the body.
	body := trimLineBreak(string(rest[idx+1+len(delim):]))
	body = trimLineBreak(body)
	return fm, body
}

func trimLineBreak(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return strings.TrimPrefix(s, "\n")
}

func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
