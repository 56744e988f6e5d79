package main

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Icon file tokens the game client uses inside passive skill markup.
const (
	passiveIconOnce  = "passive_skill_dialog_icon_01"
	passiveIconPerma = "passive_skill_dialog_icon_02"
	passiveArrowUp   = "passive_skill_dialog_arrow01"
	passiveArrowDown = "passive_skill_dialog_arrow02"
)

var (
	entranceRegex    = regexp.MustCompile(`(?i)(activates\s+the\s+entrance\s+animation|upon\s+the\s+character['’]?s\s+entry)`)
	basicEffectRegex = regexp.MustCompile(`(?i)^\s*basic effect\(s\)\s*$`)
	iconNameRegex    = regexp.MustCompile(`/([a-z0-9_]+)\.(?:png|jpg|jpeg|gif|webp)$`)
	basicPrefixRegex = regexp.MustCompile(`(?i)^\s*Basic effect\(s\):\s*`)
)

// findPassiveContentDiv locates the div holding the passive skill's list
// markup: the first sibling after the "Passive Skill" title row that has a
// bg- styling class or actually contains list/bold content.
func findPassiveContentDiv(doc *goquery.Document) *goquery.Selection {
	bnode := findBoldExact(doc, "Passive Skill").First()
	if bnode.Length() == 0 {
		return nil
	}
	titleRow := bnode.Closest("div.row")
	if titleRow.Length() == 0 {
		return nil
	}
	content := titleRow.Next()
	for hops := 0; content.Length() > 0 && hops < 6; hops++ {
		hasBg := false
		for _, cls := range classesOf(content) {
			if strings.HasPrefix(cls, "bg-") {
				hasBg = true
				break
			}
		}
		if hasBg || content.Find("ul").Length() > 0 || content.Find("strong").Length() > 0 {
			return content
		}
		content = content.Next()
	}
	if container := titleRow.Closest("div.border"); container.Length() > 0 {
		return container
	}
	return titleRow
}

// passiveWalker is the state carried across the ordered walk of the
// passive content: the most recent bolded sub-heading and whether the walk
// is inside the "basic effects" scope. The two defaults it drives:
// basic-scope items with no marker icon are permanent, and items whose
// text (or active context) references the entrance animation are
// once-only.
type passiveWalker struct {
	currentContext string
	inBasicScope   bool
	lines          []PassiveLine
}

func (w *passiveWalker) visitHeading(text string) {
	text = condenseSpaces(text)
	if text == "" {
		return
	}
	if basicEffectRegex.MatchString(text) {
		w.inBasicScope = true
		return
	}
	w.currentContext = text
	w.inBasicScope = false
}

func (w *passiveWalker) visitItem(li *html.Node) {
	once, permanent, arrows, icons := itemIcons(li)
	text := itemTextWithInlineMarkers(li)
	if text == "" {
		return
	}
	if !once && !permanent && w.inBasicScope {
		permanent = true
	}
	if !once && entranceRegex.MatchString(w.currentContext+" "+text) {
		once = true
	}
	w.lines = append(w.lines, PassiveLine{
		Text:      text,
		Context:   w.currentContext,
		Once:      once,
		Permanent: permanent,
		Arrows:    arrows,
		Icons:     icons,
	})
}

// itemTextWithInlineMarkers builds a list item's text with the stat arrow
// icons substituted in their exact textual position: the increase arrow
// becomes a trailing " up", the decrease arrow " down". Marker icons
// (once/permanent) contribute no text.
func itemTextWithInlineMarkers(li *html.Node) string {
	var parts []string
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			parts = append(parts, c.Data)
		case c.Type == html.ElementNode && c.Data == "img":
			src := strings.ToLower(attrValue(c, "src"))
			switch {
			case strings.Contains(src, passiveArrowUp):
				parts = append(parts, " up")
			case strings.Contains(src, passiveArrowDown):
				parts = append(parts, " down")
			}
		case c.Type == html.ElementNode:
			parts = append(parts, nodeText(c))
		}
	}
	return condenseSpaces(strings.Join(parts, ""))
}

// itemIcons scans every image inside a list item for the once/permanent
// markers and stat arrows; unknown icons are kept as raw tokens for
// debugging the translation table against new page layouts.
func itemIcons(li *html.Node) (once, permanent bool, arrows, icons []string) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			src := strings.ToLower(attrValue(n, "src"))
			switch {
			case strings.Contains(src, passiveIconOnce):
				once = true
				icons = append(icons, passiveIconOnce)
			case strings.Contains(src, passiveIconPerma):
				permanent = true
				icons = append(icons, passiveIconPerma)
			case strings.Contains(src, passiveArrowUp):
				arrows = append(arrows, "up")
				icons = append(icons, passiveArrowUp)
			case strings.Contains(src, passiveArrowDown):
				arrows = append(arrows, "down")
				icons = append(icons, passiveArrowDown)
			default:
				if m := iconNameRegex.FindStringSubmatch(src); m != nil {
					icons = append(icons, m[1])
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(li)
	return once, permanent, arrows, icons
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// parsePassiveLines translates the passive skill's markup into ordered
// line records. Bold sub-headings update the walker state as they are
// encountered; list items emit one record each.
func parsePassiveLines(doc *goquery.Document) []PassiveLine {
	content := findPassiveContentDiv(doc)
	if content == nil || content.Length() == 0 {
		return nil
	}

	w := &passiveWalker{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "strong", "b":
				w.visitHeading(nodeText(n))
			case "li":
				w.visitItem(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range content.Nodes {
		walk(n)
	}
	return w.lines
}

// renderPassiveEffect consolidates line records into one effect string.
// A context label is printed once per contiguous run of lines sharing it;
// each line carries a "(Once) " or "(Forever) " prefix when flagged.
func renderPassiveEffect(lines []PassiveLine) string {
	var rendered []string
	lastCtx := "\x00unset"
	for _, it := range lines {
		marker := ""
		if it.Once {
			marker = "(Once) "
		} else if it.Permanent {
			marker = "(Forever) "
		}
		seg := strings.TrimSpace(marker + it.Text)
		if it.Context != lastCtx {
			if it.Context != "" {
				seg = it.Context + ": " + seg
			}
			lastCtx = it.Context
		}
		rendered = append(rendered, seg)
	}
	out := strings.Join(rendered, "; ")
	return strings.TrimSpace(semicolonRegex.ReplaceAllString(out, "; "))
}

// Fallback grouping for pages whose passive markup defeats the DOM walk:
// regroup the segmented plain-text block into clauses on known leading
// phrases.
var passiveLeadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Activates the Entrance Animation`),
	regexp.MustCompile(`(?i)^Ki \+\d`),
	regexp.MustCompile(`(?i)^ATK`),
	regexp.MustCompile(`(?i)^DEF`),
	regexp.MustCompile(`(?i)^Guards all attacks`),
	regexp.MustCompile(`(?i)^For every attack performed`),
	regexp.MustCompile(`(?i)^For every attack received`),
	regexp.MustCompile(`(?i)^Launches an additional attack`),
	regexp.MustCompile(`(?i)^For every Super Attack the enemy launches`),
	regexp.MustCompile(`(?i)^When receiving an Unarmed Super Attack`),
}

var basicLineRegex = regexp.MustCompile(`(?i)^Basic effect\(s\):?$`)

func isPassiveLeading(s string) bool {
	for _, p := range passiveLeadingPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// groupPassiveFallback reassembles a segmented passive block into a
// clause-joined effect string when no line records could be produced.
func groupPassiveFallback(block []string) string {
	var lines []string
	for _, ln := range block {
		if sectionLabelSet[ln] || basicLineRegex.MatchString(ln) {
			continue
		}
		lines = append(lines, ln)
	}
	if len(lines) == 0 {
		return ""
	}

	// The entrance-animation clause always leads the in-game rendering.
	for i, ln := range lines {
		if i != 0 && strings.HasPrefix(strings.ToLower(ln), "activates the entrance animation") {
			first := lines[i]
			lines = append(lines[:i], lines[i+1:]...)
			lines = append([]string{first}, lines...)
			break
		}
	}

	var groups [][]string
	var cur []string
	for _, ln := range lines {
		if isPassiveLeading(ln) && len(cur) > 0 {
			groups = append(groups, cur)
			cur = []string{ln}
		} else {
			cur = append(cur, ln)
		}
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}

	var parts []string
	for _, g := range groups {
		clause := condenseSpaces(strings.Join(g, " "))
		clause = basicPrefixRegex.ReplaceAllString(clause, "")
		if clause != "" {
			parts = append(parts, clause)
		}
	}
	effect := strings.Join(parts, "; ")
	effect = semicolonRegex.ReplaceAllString(effect, "; ")
	return strings.TrimSpace(basicPrefixRegex.ReplaceAllString(effect, ""))
}
