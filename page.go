package main

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	cardIDInHrefRegex = regexp.MustCompile(`/cards/(\d+)`)
	cardIDInSrcRegex  = regexp.MustCompile(`(?i)card_(\d+)_`)
	rarityIconRegex   = regexp.MustCompile(`cha_rare(?:_sm)?_(lr|ur|ssr|sr|r|n)\.png`)
	categoryHrefRegex = regexp.MustCompile(`/categories/(\d+)$`)
	slugCleanRegex    = regexp.MustCompile(`[^a-z0-9]+`)

	releaseTextRegex = regexp.MustCompile(`(?i)Release Date\s+([0-9/.\-]+)\s+([0-9: ]+[APMapm]{2})\s+([A-Z]{2,4})`)
	dateTzRegex      = regexp.MustCompile(`([0-9/.\-]+\s+[0-9: ]+[APMapm]{2})\s+([A-Z]{2,4})`)

	costRegex  = regexp.MustCompile(`(?i)\bCost\s*:\s*(\d+)`)
	maxLvRegex = regexp.MustCompile(`(?i)\bMax\s*Lv\s*:\s*(\d+)`)
	saLvRegex  = regexp.MustCompile(`(?i)\bSA\s*Lv\s*:\s*(\d+)`)
)

var categoryBlacklist = map[string]bool{
	"background": true,
	"icon":       true,
	"rarity":     true,
	"element":    true,
	"eza":        true,
	"undefined":  true,
	"venatus":    true,
	"show more":  true,
	"links":      true,
	"categories": true,
}

var (
	imageExtRegex     = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|webp)$`)
	numericFluffRegex = regexp.MustCompile(`^[\d\s%:]+$`)
)

// extractFormIDFromURL pulls the stable numeric form id out of a
// /cards/<id> URL.
func extractFormIDFromURL(pageURL string) string {
	if m := cardIDInHrefRegex.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	return ""
}

// detectRarity reads the rarity badge icon, falling back to scanning the
// page's image URLs when the badge selector misses.
func detectRarity(doc *goquery.Document, imageURLs []string) string {
	node := doc.Find("div.card-icon-item.card-icon-item-rarity.card-info-above-thumb img[src]").First()
	if node.Length() > 0 {
		src, _ := node.Attr("src")
		if m := rarityIconRegex.FindStringSubmatch(strings.ToLower(src)); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	for _, u := range imageURLs {
		if m := rarityIconRegex.FindStringSubmatch(strings.ToLower(u)); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// detectTypeToken reads the elemental type from the styled header row's
// border/bg class suffix.
func detectTypeToken(doc *goquery.Document) string {
	row := doc.Find("div.row.justify-content-center.align-items-center.padding-top-bottom-10.border.border-2").First()
	if row.Length() == 0 {
		return ""
	}
	return strings.ToUpper(typeSuffixFromClasses(classesOf(row)))
}

func parseObtainType(doc *goquery.Document) string {
	obtain := ""
	doc.Find("div.row").EachWithBreak(func(i int, s *goquery.Selection) bool {
		cls, _ := s.Attr("class")
		if strings.Contains(cls, "padding-top-bottom-10") && strings.Contains(s.Text(), "Summonable") {
			obtain = "Summonable"
			return false
		}
		return true
	})
	return obtain
}

// grabLabeledBlock returns the condensed text of the first non-empty
// sibling row after a bolded label row.
func grabLabeledBlock(doc *goquery.Document, label string) string {
	bnode := findBoldExact(doc, label).First()
	if bnode.Length() == 0 {
		return ""
	}
	row := bnode.Closest("div.row")
	if row.Length() == 0 {
		return ""
	}
	next := row.Next()
	for hops := 0; next.Length() > 0 && hops < 3; hops++ {
		if text := condenseSpaces(next.Text()); text != "" {
			return text
		}
		next = next.Next()
	}
	return ""
}

// parseReleaseDOM reads the release-date and EZA-release-date blocks from
// the markup. Returns (release, timezone, ezaRelease).
func parseReleaseDOM(doc *goquery.Document) (string, string, string) {
	split := func(text string) (string, string) {
		if text == "" {
			return "", ""
		}
		if m := dateTzRegex.FindStringSubmatch(text); m != nil {
			return m[1], m[2]
		}
		return text, ""
	}
	rel, tz := split(grabLabeledBlock(doc, "Release Date"))
	ezaRel, _ := split(grabLabeledBlock(doc, "EZA Release Date"))
	return rel, tz, ezaRel
}

// parseReleaseText is the plain-text fallback for pages whose release
// block defeats the DOM lookup.
func parseReleaseText(pageText string) (string, string) {
	if m := releaseTextRegex.FindStringSubmatch(pageText); m != nil {
		return m[1] + " " + m[2], m[3]
	}
	return "", ""
}

// parseStats merges the DOM stats table (per-stat column maps, including
// enhanced-tier columns) with the textual Cost / Max Lv / SA Lv scalars.
func parseStats(doc *goquery.Document, pageText string) StatsTable {
	var stats StatsTable
	if m := costRegex.FindStringSubmatch(pageText); m != nil {
		stats.Cost, _ = strconv.Atoi(m[1])
	}
	if m := maxLvRegex.FindStringSubmatch(pageText); m != nil {
		stats.MaxLv, _ = strconv.Atoi(m[1])
	}
	if m := saLvRegex.FindStringSubmatch(pageText); m != nil {
		stats.SALv, _ = strconv.Atoi(m[1])
	}

	var table *goquery.Selection
	doc.Find("th b").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.EqualFold(condenseSpaces(s.Text()), "stats") {
			if t := s.Closest("table"); t.Length() > 0 {
				table = t
				return false
			}
		}
		return true
	})
	if table == nil {
		return stats
	}

	var headers []string
	table.Find("tr").First().Find("th").Each(func(i int, s *goquery.Selection) {
		if i > 0 {
			headers = append(headers, condenseSpaces(s.Text()))
		}
	})

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		name := strings.ToUpper(condenseSpaces(row.Find("th").First().Text()))
		values := make(map[string]int)
		row.Find("td").Each(func(j int, cell *goquery.Selection) {
			if j >= len(headers) {
				return
			}
			raw := strings.ReplaceAll(condenseSpaces(cell.Text()), ",", "")
			if raw == "" {
				return
			}
			if v, err := strconv.Atoi(raw); err == nil {
				values[headers[j]] = v
			}
		})
		if len(values) == 0 {
			return
		}
		switch name {
		case "HP":
			stats.HP = values
		case "ATK":
			stats.ATK = values
		case "DEF":
			stats.DEF = values
		}
	})
	return stats
}

// cleanCategoryNames filters scraped category strings through the
// blacklist and drops filenames, numeric fluff, and header echoes.
func cleanCategoryNames(cats []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range cats {
		s = strings.Trim(condenseSpaces(s), "•· ")
		if s == "" || seen[s] {
			continue
		}
		if categoryBlacklist[strings.ToLower(s)] {
			continue
		}
		if imageExtRegex.MatchString(s) || numericFluffRegex.MatchString(s) {
			continue
		}
		if sectionLabelSet[s] || strings.Contains(s, "Links:") || strings.Contains(s, "Show More") {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// parseCategoryNames merges the three places category names can surface:
// category links, label images, and the sibling scan after the
// "Categories" heading.
func parseCategoryNames(doc *goquery.Document) []string {
	var merged []string
	doc.Find(`a[href*="/categories/"] img`).Each(func(i int, s *goquery.Selection) {
		if name := imgLabel(s); name != "" {
			merged = append(merged, name)
		}
	})
	doc.Find(`img[src*="/card_category/label/"]`).Each(func(i int, s *goquery.Selection) {
		if name := imgLabel(s); name != "" {
			merged = append(merged, name)
		}
	})
	return cleanCategoryNames(merged)
}

func imgLabel(img *goquery.Selection) string {
	if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
		return strings.TrimSpace(alt)
	}
	if title, ok := img.Attr("title"); ok {
		return strings.TrimSpace(title)
	}
	return ""
}

// parseCategoriesDetailed extracts per-locale category records (id, name,
// icon asset) for the global category registry.
func parseCategoriesDetailed(doc *goquery.Document, pageURL string) []CategoryDetail {
	base, _ := url.Parse(pageURL)
	var items []CategoryDetail
	seen := make(map[string]bool)
	doc.Find(`a[href^="/categories/"]`).Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := categoryHrefRegex.FindStringSubmatch(href)
		if m == nil {
			return
		}
		img := a.Find("img").First()
		if img.Length() == 0 {
			return
		}
		src, _ := img.Attr("src")
		rel := ""
		if base != nil {
			if ref, err := url.Parse(src); err == nil {
				rel = urlToAssetRel(base.ResolveReference(ref).String())
			}
		}
		locale := ""
		if rel != "" {
			locale = extractLocaleFromRel(rel)
		}
		item := CategoryDetail{ID: m[1], Name: imgLabel(img), AssetRel: rel, Locale: locale}
		key := item.ID + "\x00" + item.Locale + "\x00" + item.AssetRel
		if seen[key] {
			return
		}
		seen[key] = true
		items = append(items, item)
	})
	return items
}

func categorySlug(name string) string {
	return strings.Trim(slugCleanRegex.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

const awakenRowSelector = "div.row.d-flex.flex-wrap.border.border-1.card-icon"

// collectCardIDsInRow pulls the linked card ids from one awakening strip
// row, unique and in order.
func collectCardIDsInRow(row *goquery.Selection) []string {
	var ids []string
	seen := make(map[string]bool)
	row.Find("a.card-icon[href]").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if m := cardIDInHrefRegex.FindStringSubmatch(href); m != nil && !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	})
	return ids
}

// parseAwakenLinks classifies the awakening strips into from/to id sets
// using the nearby heading text when present. Pages that omit the heading
// fall back on rarity: LR pages almost always show only the "from" strip,
// lower tiers only the "to" strip.
func parseAwakenLinks(doc *goquery.Document, rarityHint string) Awakening {
	res := Awakening{FromIDs: []string{}, ToIDs: []string{}}
	doc.Find(awakenRowSelector).Each(func(i int, row *goquery.Selection) {
		ids := collectCardIDsInRow(row)
		if len(ids) == 0 {
			return
		}
		label := strings.ToLower(condenseSpaces(row.Prev().Text()))
		switch {
		case strings.Contains(label, "awakened from"):
			res.FromIDs = append(res.FromIDs, ids...)
		case strings.Contains(label, "awakens to") || strings.Contains(label, "dokkan awaken"):
			res.ToIDs = append(res.ToIDs, ids...)
		case strings.ToUpper(rarityHint) == "LR":
			res.FromIDs = append(res.FromIDs, ids...)
		default:
			res.ToIDs = append(res.ToIDs, ids...)
		}
	})
	res.FromIDs = dedupStrings(res.FromIDs)
	res.ToIDs = dedupStrings(res.ToIDs)
	return res
}

func dedupStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// parseDisplayName prefers the page's h1, falling back to the document
// title.
func parseDisplayName(doc *goquery.Document) string {
	if h1 := condenseSpaces(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return condenseSpaces(doc.Find("title").First().Text())
}

// parseFamilyTileIDs reads the transformation/variation tile strip: the
// first tile is the current form, the rest link the related forms the
// family BFS should visit.
func parseFamilyTileIDs(doc *goquery.Document) []string {
	header := doc.Find("div.row.cursor-pointer.unselectable.border.border-2.border-dark.margin-top-bottom-5").First()
	if header.Length() == 0 {
		return nil
	}
	var ids []string
	seen := make(map[string]bool)
	tileNum := 0
	header.Find("div").Each(func(i int, tile *goquery.Selection) {
		isTile := false
		for _, cls := range classesOf(tile) {
			if cls == "col-5" {
				isTile = true
			}
		}
		if !isTile {
			return
		}
		tileNum++
		if tileNum == 1 {
			return
		}
		id := ""
		if href, ok := tile.Find("a[href]").First().Attr("href"); ok {
			if m := cardIDInHrefRegex.FindStringSubmatch(href); m != nil {
				id = m[1]
			}
		}
		if id == "" {
			if src, ok := tile.Find("img").First().Attr("src"); ok {
				if m := cardIDInSrcRegex.FindStringSubmatch(src); m != nil {
					id = m[1]
				}
			}
		}
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	})
	return ids
}
