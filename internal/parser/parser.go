// Package parser reads Markdown capture files: YAML front matter, [[id]]
// citations and #tags.
package parser

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	citationRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

const maxTitleRunes = 80

// Result holds the output of parsing a capture file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Parents     []int64
	Tags        []string
	Title       string
}

// Parse extracts front matter, body, cited note ids and tags from raw Markdown.
// Parents come from the front matter "parents" list and from [[id]] citations.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Parents:     extractParents(body, fm),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML front matter (between leading --- delimiters)
// from the body. Without front matter the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep the whole file as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractParents collects note ids from front matter and [[id]] / [[id|alias]]
// citations, deduplicated in first-seen order. Non-numeric targets are ignored.
func extractParents(body string, fm map[string]interface{}) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	add := func(id int64) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	if raw, ok := fm["parents"].([]interface{}); ok {
		for _, item := range raw {
			switch v := item.(type) {
			case int:
				add(int64(v))
			case string:
				if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
					add(id)
				}
			}
		}
	}

	for _, m := range citationRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		if id, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64); err == nil {
			add(id)
		}
	}
	return out
}

// extractTags collects tags from the front matter "tags" list and inline #tags.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if raw, ok := fm["tags"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

func deriveTitle(fm map[string]interface{}, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	return DeriveTitle(body)
}

// DeriveTitle returns the first H1 heading of content, otherwise its first
// non-empty line, truncated to a display length.
func DeriveTitle(content string) string {
	first := ""
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return truncate(strings.TrimSpace(trimmed[2:]))
		}
		if first == "" && trimmed != "" {
			first = trimmed
		}
	}
	return truncate(first)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxTitleRunes-1]) + "…"
}
