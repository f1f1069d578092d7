// Package htmltext turns HTML fragments from feed documents into plain text.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"svg": true, "iframe": true, "head": true,
}

// Snippet strips markup from an HTML fragment and collapses whitespace runs
// into single spaces. Plain text input comes back trimmed.
func Snippet(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}

	var sb strings.Builder
	walk(doc, &sb)
	return collapse(sb.String())
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

func walk(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		if skipTags[n.Data] {
			return
		}
		switch n.Data {
		case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4":
			sb.WriteByte(' ')
		}
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, sb)
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
