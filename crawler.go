package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const enableCrawlerDebugLogs = false

// parseVariantFromURL reads the eza flag and step from a card URL's
// query string. Step 0 means no explicit step.
func parseVariantFromURL(rawURL string) (bool, int) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0
	}
	q := u.Query()
	eza := strings.EqualFold(q.Get("eza"), "true")
	step, _ := strconv.Atoi(q.Get("step"))
	return eza, step
}

// normalizeToBaseURL strips the query and fragment so a card URL always
// identifies the plain base rendering.
func normalizeToBaseURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func makeVariantURL(baseURL string, eza bool, step int) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := url.Values{}
	if eza {
		q.Set("eza", "true")
		if step > 0 {
			q.Set("step", strconv.Itoa(step))
		}
	} else {
		q.Set("eza", "false")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func buildVariantKey(eza bool, step int) string {
	if !eza {
		return "base"
	}
	if step <= 0 {
		return "eza"
	}
	return fmt.Sprintf("eza_step_%d", step)
}

func buildFormVariantKey(formID string, eza bool, step int) string {
	if !eza {
		return fmt.Sprintf("form_%s_base", formID)
	}
	if step <= 0 {
		return fmt.Sprintf("form_%s_eza", formID)
	}
	return fmt.Sprintf("form_%s_eza_step_%d", formID, step)
}

// buildVariantLabel renders a human-readable variant name. Forms other
// than the family base carry their id so same-named forms stay distinct.
func buildVariantLabel(displayName, formID, familyBaseID string, eza bool, step int) string {
	dn := displayName
	if dn == "" {
		dn = "Unknown"
	}
	part := "Base"
	if eza {
		part = "EZA"
		if step > 0 {
			part = fmt.Sprintf("EZA Step %d", step)
		}
	}
	if familyBaseID == "" || formID == familyBaseID {
		return dn + " — " + part
	}
	id := formID
	if id == "" {
		id = "?"
	}
	return fmt.Sprintf("%s (#%s) — %s", dn, id, part)
}

// assembleVariant parses one rendered card page into the family identity
// fields plus a single variant record. assetRels are the relative paths
// of assets already confirmed on disk for this page.
func assembleVariant(page *RenderedPage, assetRels []string, eza bool, step int, keepCategories, keepLocales map[string]bool) (FamilyIdentity, VariantRecord) {
	doc := page.Doc

	pageText := scopedPageText(doc, eza)
	sections := splitSections(pageText)

	leader := cleanLeader(sections["Leader Skill"])
	superName, superEffect := cleanSuperLike(sections["Super Attack"])
	ultraName, ultraEffect := cleanSuperLike(sections["Ultra Super Attack"])
	if superName == "" {
		superName, superEffect = superLikeFromWindow(pageText, false)
	}
	if ultraName == "" {
		ultraName, ultraEffect = superLikeFromWindow(pageText, true)
	}

	passiveLines := parsePassiveLines(doc)
	passiveEffect := renderPassiveEffect(passiveLines)
	passiveBlock := sections["Passive Skill"]
	if len(passiveLines) == 0 && len(passiveBlock) > 1 {
		passiveEffect = groupPassiveFallback(passiveBlock[1:])
	}
	passiveName := ""
	if len(passiveBlock) > 0 {
		passiveName = passiveBlock[0]
	}
	passiveEffect, transformation, exchange := extractTransformAndExchange(passiveEffect)

	activeName, activeEffect := cleanActive(sections["Active Skill"])
	activationConds := cleanActivation(sections["Activation Condition(s)"])
	transformConds := cleanActivation(sections["Transformation Condition(s)"])
	links := cleanLinks(sections["Link Skills"])

	stats := parseStats(doc, pageText)
	relDate, tz, ezaRelDate := parseReleaseDOM(doc)
	if relDate == "" {
		relDate, tz = parseReleaseText(pageText)
	}

	rarity := detectRarity(doc, page.ImageURLs)
	typeToken := detectTypeToken(doc)
	awakening := parseAwakenLinks(doc, rarity)
	displayName := parseDisplayName(doc)
	formID := extractFormIDFromURL(page.URL)

	assetsIndex := pruneAssetIndex(buildAssetIndex(assetRels), keepCategories, keepLocales)

	identity := FamilyIdentity{
		UnitID:        formID,
		DisplayName:   displayName,
		Rarity:        rarity,
		Type:          typeToken,
		SourceBaseURL: normalizeToBaseURL(page.URL),
	}
	rec := VariantRecord{
		Key:            buildVariantKey(eza, step),
		FormID:         formID,
		DisplayName:    displayName,
		Rarity:         rarity,
		Type:           typeToken,
		EZA:            eza,
		Step:           step,
		SourceURL:      page.URL,
		ReleaseDate:    relDate,
		Timezone:       tz,
		EZAReleaseDate: ezaRelDate,
		ObtainType:     parseObtainType(doc),
		RarityRank:     rarityRankOf(rarity),
		Awakening:      awakening,
		Kit: Kit{
			LeaderSkill:      leader,
			SuperAttack:      SkillRef{Name: superName, Effect: superEffect},
			UltraSuperAttack: SkillRef{Name: ultraName, Effect: ultraEffect},
			PassiveSkill: PassiveSkill{
				Name:   passiveName,
				Effect: passiveEffect,
				Lines:  passiveLines,
			},
			Transformation:           transformation,
			ReversibleExchange:       exchange,
			TransformationConditions: transformConds,
			ActiveSkill: ActiveSkill{
				Name:                 activeName,
				Effect:               activeEffect,
				ActivationConditions: activationConds,
			},
			StandbySkill:       parseStandbySkill(doc),
			FinishSkills:       parseFinishSkills(doc),
			LinkSkills:         links,
			Categories:         parseCategoryNames(doc),
			CategoriesDetailed: parseCategoriesDetailed(doc, page.URL),
			Stats:              stats,
			Domains:            parseDomains(doc),
		},
		AssetsIndex: assetsIndex,
	}
	return identity, rec
}

// Crawler drives the whole archive run: it walks card pages through the
// browser, assembles variant records, and merges them into the store.
type Crawler struct {
	cfg     Config
	browser *Browser
	store   FamilyStore
	db      *sql.DB
	bot     *archiveBot

	existingIDs map[string]bool

	pagesVisited     int
	familiesSaved    int
	assetsDownloaded int
}

func newCrawler(cfg Config, browser *Browser, store FamilyStore, db *sql.DB, bot *archiveBot) *Crawler {
	c := &Crawler{
		cfg:         cfg,
		browser:     browser,
		store:       store,
		db:          db,
		bot:         bot,
		existingIDs: make(map[string]bool),
	}
	for _, fid := range store.KnownFormIDs() {
		c.existingIDs[fid] = true
	}
	if len(c.existingIDs) > 0 {
		log.Printf("[I] [Scraper/Crawler] Existing unit families detected: %d", len(c.existingIDs))
	}
	return c
}

func (c *Crawler) fetch(pageURL string, wantPreEZA bool) (*RenderedPage, error) {
	page, err := c.browser.FetchPage(pageURL, wantPreEZA)
	if err == nil {
		c.pagesVisited++
	}
	return page, err
}

// scrapeOneVariant fetches and parses a single variant URL, merges it
// into the family document, and returns the parsed record. familyBaseID
// is empty for the family's own base variant.
func (c *Crawler) scrapeOneVariant(doc *FamilyDocument, pageURL, rarityHint, keyOverride, familyBaseID string, ezaMaxStep int) (*FamilyDocument, *RenderedPage, *VariantRecord, error) {
	eza, step := parseVariantFromURL(pageURL)
	page, err := c.fetch(pageURL, !eza)
	if err != nil {
		return doc, nil, nil, err
	}

	assetRels := downloadAssets(page.ImageURLs, c.cfg.AssetsRoot)
	c.assetsDownloaded += len(assetRels)

	identity, rec := assembleVariant(page, assetRels, eza, step, c.cfg.KeepAssetCategories, c.cfg.KeepAssetLocales)
	if rec.Rarity == "" {
		rec.Rarity = rarityHint
		rec.RarityRank = rarityRankOf(rarityHint)
	}
	if keyOverride != "" {
		rec.Key = keyOverride
	}
	rec.VariantLabel = buildVariantLabel(rec.DisplayName, rec.FormID, familyBaseID, eza, step)
	if eza && step > 0 && ezaMaxStep > 0 {
		rec.IsSuperEZA = isSuperEZAStep(step, ezaMaxStep, rec.Rarity)
	}

	isNewKey := findVariantIndex(doc, rec.Key) < 0
	doc = mergeVariantIntoFamily(doc, identity, rec.FormID, rec)
	if c.db != nil {
		change := "updated"
		if isNewKey {
			change = "added"
		}
		if err := recordVariantChange(c.db, doc.UnitID, rec.Key, change); err != nil {
			log.Printf("[W] [Scraper/Crawler] Could not record changelog entry: %v", err)
		}
	}
	log.Printf("[I] [Scraper/Crawler] Parsed %s (%s)", rec.FormID, rec.Key)
	return doc, page, &rec, nil
}

// discoverStepsFor finds the enhancement steps for a form, revisiting the
// page in enhanced mode when the toggle is present but the step control
// did not render on the base view.
func (c *Crawler) discoverStepsFor(page *RenderedPage, baseCleanURL, rarity string) []int {
	if page == nil {
		return nil
	}
	steps := discoverEZASteps(page.Doc, rarity)
	if len(steps) == 0 && hasPreEZAToggle(page.Doc) {
		ezaPage, err := c.fetch(makeVariantURL(baseCleanURL, true, 1), false)
		if err != nil {
			log.Printf("[W] [Scraper/Crawler] Could not open enhanced view for %s: %v", baseCleanURL, err)
			return nil
		}
		steps = discoverEZASteps(ezaPage.Doc, rarity)
	}
	return steps
}

// discoverFamilyIDs walks the transformation tile strip breadth-first so
// forms shown only on sub-pages are still found. The result includes the
// start id and is capped by FamilySizeLimit.
func (c *Crawler) discoverFamilyIDs(startPage *RenderedPage, startID string) []string {
	family := map[string]bool{startID: true}
	var queue []string
	seenPages := make(map[string]bool)

	if startPage != nil {
		for _, rid := range parseFamilyTileIDs(startPage.Doc) {
			if !family[rid] {
				family[rid] = true
				queue = append(queue, rid)
			}
		}
	}
	for len(queue) > 0 && len(family) < c.cfg.FamilySizeLimit {
		rid := queue[0]
		queue = queue[1:]
		pageURL := normalizeToBaseURL(c.cfg.BaseURL + "/cards/" + rid)
		if seenPages[pageURL] {
			continue
		}
		seenPages[pageURL] = true
		page, err := c.fetch(makeVariantURL(pageURL, false, 0), false)
		if err != nil {
			log.Printf("[W] [Scraper/Crawler] Family probe failed for %s: %v", rid, err)
			continue
		}
		for _, mid := range parseFamilyTileIDs(page.Doc) {
			if !family[mid] && len(family) < c.cfg.FamilySizeLimit {
				family[mid] = true
				queue = append(queue, mid)
			}
		}
	}
	ids := make([]string, 0, len(family))
	for id := range family {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// scrapeFamily archives one full unit lineage: the base variant, every
// enhancement step, then each related form with its own steps. Returns
// the family's base id when anything was saved.
func (c *Crawler) scrapeFamily(baseCleanURL string, processed map[string]bool) (string, error) {
	baseID := extractFormIDFromURL(baseCleanURL)
	if baseID == "" {
		return "", fmt.Errorf("no card id in %s", baseCleanURL)
	}
	if processed[baseID] {
		if enableCrawlerDebugLogs {
			log.Printf("[D] [Scraper/Crawler] Skipping %s; already processed in another family", baseID)
		}
		return "", nil
	}
	if c.cfg.SkipExisting && c.existingIDs[baseID] {
		log.Printf("[I] [Scraper/Crawler] Skipping %s; already archived", baseID)
		processed[baseID] = true
		return "", nil
	}

	doc, err := c.store.Load(baseID)
	if err != nil {
		return "", err
	}

	doc, basePage, baseRec, err := c.scrapeOneVariant(doc, makeVariantURL(baseCleanURL, false, 0), "", "", "", 0)
	if err != nil {
		return "", err
	}
	rarity := baseRec.Rarity
	processed[baseID] = true
	c.existingIDs[baseID] = true

	steps := c.discoverStepsFor(basePage, baseCleanURL, rarity)
	maxStep := 0
	if len(steps) > 0 {
		maxStep = steps[len(steps)-1]
	}
	for _, st := range steps {
		stepURL := makeVariantURL(baseCleanURL, true, st)
		doc, _, _, err = c.scrapeOneVariant(doc, stepURL, rarity, buildVariantKey(true, st), baseID, maxStep)
		if err != nil {
			log.Printf("[W] [Scraper/Crawler] Step %d failed for %s: %v", st, baseID, err)
		}
		time.Sleep(c.cfg.DelayBetweenCards)
	}

	for _, rid := range c.discoverFamilyIDs(basePage, baseID) {
		if rid == baseID || processed[rid] {
			continue
		}
		relatedBase := normalizeToBaseURL(c.cfg.BaseURL + "/cards/" + rid)
		var relPage *RenderedPage
		var relRec *VariantRecord
		doc, relPage, relRec, err = c.scrapeOneVariant(doc, makeVariantURL(relatedBase, false, 0), "", buildFormVariantKey(rid, false, 0), baseID, 0)
		if err != nil {
			log.Printf("[W] [Scraper/Crawler] Related form %s failed: %v", rid, err)
			continue
		}
		processed[rid] = true
		c.existingIDs[rid] = true

		relRarity := relRec.Rarity
		relSteps := c.discoverStepsFor(relPage, relatedBase, relRarity)
		relMax := 0
		if len(relSteps) > 0 {
			relMax = relSteps[len(relSteps)-1]
		}
		for _, st := range relSteps {
			doc, _, _, err = c.scrapeOneVariant(doc, makeVariantURL(relatedBase, true, st), relRarity, buildFormVariantKey(rid, true, st), baseID, relMax)
			if err != nil {
				log.Printf("[W] [Scraper/Crawler] Step %d failed for form %s: %v", st, rid, err)
			}
			time.Sleep(c.cfg.DelayBetweenCards)
		}
	}

	if err := c.store.Save(doc); err != nil {
		return "", err
	}
	c.familiesSaved++

	var details []CategoryDetail
	for _, rec := range doc.Variants {
		details = append(details, rec.Kit.CategoriesDetailed...)
	}
	if err := c.store.RegisterCategories(details); err != nil {
		log.Printf("[W] [Scraper/Crawler] Could not update category registry: %v", err)
	}
	if c.db != nil {
		if err := recordScrapeEvent(c.db, "family_saved", doc.UnitID, doc.DisplayName, fmt.Sprintf("%d variants", len(doc.Variants))); err != nil {
			log.Printf("[W] [Scraper/Crawler] Could not record event: %v", err)
		}
	}
	c.bot.AnnounceFamily(doc)
	log.Printf("[I] [Scraper/Crawler] Saved family %s (%s) with %d variant(s)", doc.UnitID, doc.DisplayName, len(doc.Variants))
	return baseID, nil
}

// collectIndexLinks pulls the card links off one listing page.
func collectIndexLinks(page *RenderedPage, baseURL string) []string {
	var links []string
	seen := make(map[string]bool)
	page.Doc.Find(`div.row.d-flex.flex-wrap.justify-content-center a.col-auto[href^="/cards/"]`).Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, baseURL+href)
	})
	return links
}

func buildNextIndexURL(currURL string) string {
	u, err := url.Parse(currURL)
	if err != nil {
		return currURL
	}
	q := u.Query()
	pageNum, err := strconv.Atoi(q.Get("page"))
	if err != nil || pageNum < 1 {
		pageNum = 1
	}
	q.Set("page", strconv.Itoa(pageNum+1))
	u.RawQuery = q.Encode()
	return u.String()
}

// Run executes the configured crawl: seed mode when seed URLs are set,
// otherwise walking the card listing page by page until the page or
// family limits are hit.
func (c *Crawler) Run() error {
	start := time.Now()
	processed := make(map[string]bool)

	defer func() {
		if c.db != nil {
			if err := recordScrapeRun(c.db, c.pagesVisited, c.familiesSaved, c.assetsDownloaded, time.Since(start)); err != nil {
				log.Printf("[W] [Scraper/Crawler] Could not record run: %v", err)
			}
		}
		log.Printf("[I] [Scraper/Crawler] Run finished: %d page(s) visited, %d family(ies) saved, %d asset(s) on disk",
			c.pagesVisited, c.familiesSaved, c.assetsDownloaded)
	}()

	if len(c.cfg.SeedURLs) > 0 {
		log.Printf("[I] [Scraper/Crawler] Seed mode: %d URL(s)", len(c.cfg.SeedURLs))
		for _, seed := range c.cfg.SeedURLs {
			if _, err := c.scrapeFamily(normalizeToBaseURL(seed), processed); err != nil {
				log.Printf("[E] [Scraper/Crawler] Seed %s failed: %v", seed, err)
			}
		}
		return nil
	}

	indexURL := c.cfg.IndexURL
	for pagesDone := 0; pagesDone < c.cfg.MaxPages; pagesDone++ {
		log.Printf("[I] [Scraper/Crawler] Opening index page: %s", indexURL)
		page, err := c.fetch(indexURL, false)
		if err != nil {
			log.Printf("[E] [Scraper/Crawler] Index page failed: %v", err)
			break
		}
		links := collectIndexLinks(page, c.cfg.BaseURL)
		if len(links) == 0 {
			log.Printf("[I] [Scraper/Crawler] No cards found on this page")
		} else {
			log.Printf("[I] [Scraper/Crawler] Found %d card link(s)", len(links))
		}
		for _, cardURL := range links {
			saved, err := c.scrapeFamily(normalizeToBaseURL(cardURL), processed)
			if err != nil {
				log.Printf("[E] [Scraper/Crawler] Family at %s failed: %v", cardURL, err)
				continue
			}
			if saved != "" && c.familiesSaved >= c.cfg.MaxNewFamilies {
				log.Printf("[I] [Scraper/Crawler] Reached family limit %d; stopping", c.cfg.MaxNewFamilies)
				return nil
			}
			time.Sleep(c.cfg.DelayBetweenCards)
		}
		next := buildNextIndexURL(indexURL)
		if next == indexURL {
			break
		}
		indexURL = next
	}
	return nil
}
