package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var typeTokens = map[string]bool{
	"agl": true,
	"teq": true,
	"int": true,
	"str": true,
	"phy": true,
}

var (
	percentOnlyRegex = regexp.MustCompile(`^\d+\s*%$`)
	saLevelRegex     = regexp.MustCompile(`(?i)\bSA\s*Lv\b`)
	semicolonRegex   = regexp.MustCompile(`\s*;\s*`)
	raisesQuirkRegex = regexp.MustCompile(`(?i)\s*Raises ATK & DEF\s*Causes`)

	superWindowRegex = regexp.MustCompile(`(?i)Super Attack\s+([\s\S]*?)\s+Ultra Super Attack`)
	ultraWindowRegex = regexp.MustCompile(
		`(?i)Ultra Super Attack\s+([\s\S]*?)\s+(Passive Skill|Active Skill|Link Skills|Categories|Stats|Transformation Condition\(s\))`)
)

// findBoldExact returns every <b> whose condensed text equals label,
// case-insensitively. Anchored matching keeps effect text that merely
// mentions a label word from being mistaken for a section heading.
func findBoldExact(doc *goquery.Document, label string) *goquery.Selection {
	return doc.Find("b").FilterFunction(func(i int, s *goquery.Selection) bool {
		return strings.EqualFold(condenseSpaces(s.Text()), label)
	})
}

func classesOf(sel *goquery.Selection) []string {
	cls, _ := sel.Attr("class")
	return strings.Fields(cls)
}

// typeSuffixFromClasses pulls the elemental type out of a border-<t> or
// bg-<t> class token.
func typeSuffixFromClasses(classes []string) string {
	found := ""
	for _, cls := range classes {
		if strings.HasPrefix(cls, "border-") || strings.HasPrefix(cls, "bg-") {
			suffix := strings.ToLower(cls[strings.Index(cls, "-")+1:])
			if typeTokens[suffix] {
				found = suffix
			}
		}
	}
	return found
}

// cleanLeader joins a segmented leader-skill block into one condensed,
// duplicate-free sentence run.
func cleanLeader(block []string) string {
	if len(block) == 0 {
		return ""
	}
	return dedupSentences(condenseSpaces(strings.Join(block, " ")))
}

// cleanSuperLike parses a Super / Ultra Super Attack block: first line is
// the name; remaining lines form the effect after dropping percentage-only
// lines and SA-level indicator lines.
func cleanSuperLike(block []string) (name, effect string) {
	if len(block) == 0 {
		return "", ""
	}
	name = block[0]
	var parts []string
	for _, ln := range block[1:] {
		if ln == "" || percentOnlyRegex.MatchString(ln) || saLevelRegex.MatchString(ln) {
			continue
		}
		parts = append(parts, ln)
	}
	effect = strings.Join(parts, "; ")
	effect = semicolonRegex.ReplaceAllString(effect, "; ")
	effect = raisesQuirkRegex.ReplaceAllString(effect, " Raises ATK & DEF; Causes")
	return name, condenseSpaces(effect)
}

// superLikeFromWindow re-scans the full scoped text with an anchored
// label-to-label window. Last-resort fallback when both the structural and
// segmented attempts produced nothing but the label exists somewhere in
// the document.
func superLikeFromWindow(pageText string, ultra bool) (string, string) {
	re := superWindowRegex
	if ultra {
		re = ultraWindowRegex
	}
	m := re.FindStringSubmatch(pageText)
	if m == nil {
		return "", ""
	}
	var block []string
	for _, ln := range strings.Split(m[1], "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			block = append(block, ln)
		}
	}
	return cleanSuperLike(block)
}

// cleanActive parses the Active Skill block: name, then effect lines up to
// the next recognized header echo.
func cleanActive(block []string) (name, effect string) {
	if len(block) == 0 {
		return "", ""
	}
	name = block[0]
	var body []string
	for _, ln := range block[1:] {
		if sectionLabelSet[ln] {
			break
		}
		if ln != "" {
			body = append(body, condenseSpaces(ln))
		}
	}
	return name, condenseSpaces(strings.Join(body, "; "))
}

// cleanActivation flattens a conditions block, stripping any header text
// that leaked into it.
func cleanActivation(block []string) string {
	if len(block) == 0 {
		return ""
	}
	text := condenseSpaces(strings.Join(block, " "))
	for _, h := range sectionLabels {
		text = strings.ReplaceAll(text, h, "")
	}
	return strings.TrimSpace(text)
}

// cleanLinks de-duplicates link skill names, preserving order.
func cleanLinks(block []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ln := range block {
		s := condenseSpaces(ln)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

var (
	condEchoTrailRegex = regexp.MustCompile(`(?i)(Standby|Finish)\s+Skill\s+Condition\(s\)\s*$`)
	condEchoLeadRegex  = regexp.MustCompile(`(?i)^(Standby|Finish)\s+Skill\s+Condition\(s\)\s*`)
)

// collectEffectAndConditions walks a skill block's content in structural
// order with a two-state machine: effect lines accumulate until a bolded
// condition sub-label appears, then condition lines accumulate. The
// transition is one-way; both states are terminal at end of block.
func collectEffectAndConditions(content *goquery.Selection, condLabelRe *regexp.Regexp) (effect, conditions string) {
	if content == nil || content.Length() == 0 {
		return "", ""
	}
	var effectLines, condLines []string
	collecting := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "b":
				if condLabelRe.MatchString(condenseSpaces(nodeText(n))) {
					collecting = true
					return
				}
			case "hr":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if collecting {
					condLines = append(condLines, text)
				} else {
					effectLines = append(effectLines, text)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range content.Nodes {
		walk(n)
	}

	effect = condenseSpaces(strings.Join(effectLines, " "))
	effect = strings.TrimSpace(condEchoTrailRegex.ReplaceAllString(effect, ""))
	effect = semicolonRegex.ReplaceAllString(effect, "; ")
	conditions = condenseSpaces(strings.Join(condLines, " "))
	conditions = strings.TrimSpace(condEchoLeadRegex.ReplaceAllString(conditions, ""))
	return effect, conditions
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// hasBgContentClass reports whether the row itself, or a descendant,
// carries the bg-*-2 content styling that marks a skill body.
func hasBgContentClass(row *goquery.Selection) bool {
	for _, cls := range classesOf(row) {
		if strings.HasPrefix(cls, "bg-") && strings.HasSuffix(cls, "-2") {
			return true
		}
	}
	found := false
	row.Find("div").EachWithBreak(func(i int, s *goquery.Selection) bool {
		for _, cls := range classesOf(s) {
			if strings.HasPrefix(cls, "bg-") && strings.HasSuffix(cls, "-2") {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// parseSkillBlocks extracts every block titled headerLabel (Standby Skill,
// Finish Skill) straight from the markup, including the hidden condition
// text the plain-text rendering flattens away.
func parseSkillBlocks(doc *goquery.Document, headerLabel, condLabel string) []SkillBlock {
	condRe := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(condLabel))
	var results []SkillBlock
	findBoldExact(doc, headerLabel).Each(func(i int, bnode *goquery.Selection) {
		titleRow := bnode.Closest("div.row")
		if titleRow.Length() == 0 {
			return
		}
		name := ""
		if bolds := titleRow.Find("b"); bolds.Length() >= 2 {
			name = condenseSpaces(bolds.Eq(1).Text())
		}

		contentRow := titleRow.Next()
		for hops := 0; contentRow.Length() > 0 && hops < 5; hops++ {
			if hasBgContentClass(contentRow) {
				break
			}
			contentRow = contentRow.Next()
		}

		typeToken := ""
		if container := titleRow.Closest("div.border"); container.Length() > 0 {
			typeToken = typeSuffixFromClasses(classesOf(container))
		}

		target := contentRow
		if target.Length() == 0 {
			target = titleRow
		}
		effect, conditions := collectEffectAndConditions(target, condRe)
		results = append(results, SkillBlock{
			Name:       name,
			Effect:     effect,
			Conditions: conditions,
			Type:       strings.ToUpper(typeToken),
		})
	})
	return results
}

// parseStandbySkill returns the richest Standby Skill block, or nil when
// the unit has none. Duplicate blocks appear when the page renders both
// the base and enhanced kits.
func parseStandbySkill(doc *goquery.Document) *SkillBlock {
	blocks := parseSkillBlocks(doc, "Standby Skill", "Standby Condition(s)")
	if len(blocks) == 0 {
		return nil
	}
	best := blocks[0]
	for _, b := range blocks[1:] {
		if len(b.Effect) > len(best.Effect) {
			best = b
		}
	}
	return &best
}

func parseFinishSkills(doc *goquery.Document) []SkillBlock {
	return parseSkillBlocks(doc, "Finish Skill", "Finish Skill Condition(s)")
}

// parseDomains extracts every "Domain Effect(s)" block: name from the
// second bold of the title row, effect from the first bg-*-2 styled row
// after it, elemental type from the bordered container.
func parseDomains(doc *goquery.Document) []DomainEffect {
	var domains []DomainEffect
	findBoldExact(doc, "Domain Effect(s)").Each(func(i int, bnode *goquery.Selection) {
		outerRow := bnode.Closest("div.row")
		if outerRow.Length() == 0 {
			return
		}
		name := ""
		if bolds := outerRow.Find("b"); bolds.Length() >= 2 {
			name = condenseSpaces(bolds.Eq(1).Text())
		}
		typeToken := ""
		if container := outerRow.Closest("div.border"); container.Length() > 0 {
			typeToken = typeSuffixFromClasses(classesOf(container))
		}

		effect := ""
		row := outerRow.Next()
		for hops := 0; row.Length() > 0 && hops < 3 && effect == ""; hops++ {
			if hasBgContentClass(row) {
				effect = condenseSpaces(row.Text())
				break
			}
			row = row.Next()
		}
		domains = append(domains, DomainEffect{
			Name:   name,
			Effect: effect,
			Type:   strings.ToUpper(typeToken),
		})
	})

	seen := make(map[string]bool)
	var uniq []DomainEffect
	for _, d := range domains {
		key := fmt.Sprintf("%s\x00%s", d.Name, d.Effect)
		if seen[key] {
			continue
		}
		seen[key] = true
		uniq = append(uniq, d)
	}
	return uniq
}
