package main

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// sectionLabels is the fixed, ordered list of recognized section headers on
// a card detail page. A header counts only when it is an entire trimmed
// line, never a substring of effect text.
var sectionLabels = []string{
	"Leader Skill",
	"Super Attack",
	"Ultra Super Attack",
	"Passive Skill",
	"Active Skill",
	"Activation Condition(s)",
	"Transformation Condition(s)",
	"Link Skills",
	"Categories",
	"Stats",
}

var sectionLabelSet = func() map[string]bool {
	m := make(map[string]bool, len(sectionLabels))
	for _, l := range sectionLabels {
		m[l] = true
	}
	return m
}()

var whitespaceRegex = regexp.MustCompile(`\s+`)

func condenseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

var sentenceSplitRegex = regexp.MustCompile(`([.!?])\s+`)

// dedupSentences collapses duplicate sentences, keeping first occurrences
// in order. The page sometimes renders the same effect sentence twice when
// both the collapsed and expanded skill views are in the DOM.
func dedupSentences(text string) string {
	marked := sentenceSplitRegex.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	seen := make(map[string]bool)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return strings.Join(out, " ")
}

// splitSections segments a plain-text rendering of the page into blocks
// keyed by section label. Each block holds the non-empty lines strictly
// between that label's line and the next recognized label (or end of
// text). A label that never appears yields no entry.
func splitSections(pageText string) map[string][]string {
	rawLines := strings.Split(pageText, "\n")
	lines := make([]string, len(rawLines))
	for i, ln := range rawLines {
		lines[i] = condenseSpaces(ln)
	}

	type labelAt struct {
		label string
		index int
	}
	var found []labelAt
	for i, ln := range lines {
		if sectionLabelSet[ln] {
			found = append(found, labelAt{ln, i})
		}
	}

	sections := make(map[string][]string, len(found))
	for i, f := range found {
		end := len(lines)
		if i+1 < len(found) {
			end = found[i+1].index
		}
		var block []string
		for _, ln := range lines[f.index+1 : end] {
			if ln != "" {
				block = append(block, ln)
			}
		}
		sections[f.label] = block
	}
	return sections
}

// collectText walks a selection in structural order and joins every
// non-blank text node with newlines, mirroring the page's visible-text
// rendering that splitSections consumes.
func collectText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			parts = append(parts, strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// splitTextAroundStepControl partitions the document's text nodes into a
// before-stream and after-stream at the first EZA step selector
// (div.multiselect). Text structurally before the control belongs to the
// base rendering of the labeled sections, text after it to the currently
// selected enhanced rendering. When no control exists the whole document
// is the before-stream.
func splitTextAroundStepControl(doc *goquery.Document) (base string, eza string) {
	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	control := doc.Find("div.multiselect").First()
	if control.Length() == 0 {
		return collectText(root), ""
	}
	marker := control.Nodes[0]

	var beforeParts, afterParts []string
	inAfter := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == marker {
			inAfter = true
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			if inAfter {
				afterParts = append(afterParts, strings.TrimSpace(n.Data))
			} else {
				beforeParts = append(beforeParts, strings.TrimSpace(n.Data))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return strings.Join(beforeParts, "\n"), strings.Join(afterParts, "\n")
}

// scopedPageText picks the text stream matching the requested variant:
// enhanced records read the after-stream, base records the before-stream.
// An empty pick falls back to the whole document so a layout change
// degrades instead of wiping every section.
func scopedPageText(doc *goquery.Document, wantEZA bool) string {
	base, eza := splitTextAroundStepControl(doc)
	scoped := base
	if wantEZA {
		scoped = eza
	}
	if scoped == "" {
		root := doc.Find("body").First()
		if root.Length() == 0 {
			root = doc.Selection
		}
		return collectText(root)
	}
	return scoped
}
