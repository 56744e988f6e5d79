package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const enableAssetDebugLogs = false

var (
	assetExtRegex    = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|webp|mp3|ogg|wav)$`)
	assetCardIDRegex = regexp.MustCompile(`/card/(\d+)/`)
	assetFileIDRegex = regexp.MustCompile(`card_(\d+)_`)
	assetLocaleRegex = regexp.MustCompile(`/(en|jp|kr|tw|cn)/`)
	bareCardPNGRegex = regexp.MustCompile(`^(\d+)\.png$`)
)

// urlToAssetRel converts an absolute asset URL into the host-rooted
// relative path used both as the on-disk layout and the index key.
// Returns "" for URLs that are not downloadable site assets.
func urlToAssetRel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if host != "dokkaninfo.com" && host != "www.dokkaninfo.com" {
		return ""
	}
	if !assetExtRegex.MatchString(u.Path) {
		return ""
	}
	return path.Join(host, strings.TrimPrefix(u.Path, "/"))
}

func extractAssetCardID(rel string) string {
	if m := assetCardIDRegex.FindStringSubmatch(rel); m != nil {
		return m[1]
	}
	if m := assetFileIDRegex.FindStringSubmatch(path.Base(rel)); m != nil {
		return m[1]
	}
	if m := bareCardPNGRegex.FindStringSubmatch(path.Base(rel)); m != nil {
		return m[1]
	}
	return ""
}

func extractLocaleFromRel(rel string) string {
	if m := assetLocaleRegex.FindStringSubmatch("/" + rel); m != nil {
		return m[1]
	}
	return ""
}

// cardArtSubtype names the artwork layer a /card/<id>/ asset holds, going
// by the filename conventions the CDN uses.
func cardArtSubtype(rel string) string {
	name := strings.ToLower(path.Base(rel))
	switch {
	case bareCardPNGRegex.MatchString(name):
		return "full_card"
	case strings.Contains(name, "_bg."):
		return "bg"
	case strings.Contains(name, "_character."):
		return "character"
	case strings.Contains(name, "_circle."):
		return "circle"
	case strings.Contains(name, "_effect."):
		return "effect"
	case strings.Contains(name, "cutin"):
		return "cutin"
	case strings.Contains(name, "_sp02_name."):
		return "super_name_2"
	case strings.Contains(name, "_sp02_phrase."):
		return "super_phrase_2"
	case strings.Contains(name, "_sp_name."):
		return "super_name"
	case strings.Contains(name, "_sp_phrase."):
		return "super_phrase"
	default:
		return "card_asset"
	}
}

// classifyAsset buckets a relative asset path into an index category and
// subtype. Rules run in order; the first match wins.
func classifyAsset(rel string) (category, subtype string) {
	lower := strings.ToLower(rel)
	switch {
	case strings.Contains(lower, "/layout/") || strings.Contains(lower, "/static/") ||
		strings.Contains(lower, "favicon") || strings.Contains(lower, "/img/logo"):
		return "site", "chrome"
	case strings.Contains(lower, "/ingame/battle/") || strings.Contains(lower, "/ui/"):
		return "ui", "ingame"
	case strings.Contains(lower, "/card_category/label/"):
		return "category_label", "label"
	case strings.Contains(lower, "/banner/") || strings.Contains(lower, "/event/"):
		return "event_banner", "banner"
	case strings.Contains(lower, "/equipment/"):
		return "equipment", "equipment"
	case strings.Contains(lower, "/character/thumb/") || strings.Contains(lower, "_thumb."):
		return "thumbnail", "thumb"
	case strings.Contains(lower, "/card/"):
		return "card_art", cardArtSubtype(rel)
	default:
		return "other", "other"
	}
}

// buildAssetIndex classifies a set of asset relative paths into the
// per-category index, deduplicated and sorted for stable output.
func buildAssetIndex(rels []string) AssetIndex {
	idx := make(AssetIndex)
	seen := make(map[string]bool)
	for _, rel := range rels {
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		category, subtype := classifyAsset(rel)
		idx[category] = append(idx[category], AssetRef{
			Path:    rel,
			Subtype: subtype,
			CardID:  extractAssetCardID(rel),
			Locale:  extractLocaleFromRel(rel),
		})
	}
	for _, refs := range idx {
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Subtype != refs[j].Subtype {
				return refs[i].Subtype < refs[j].Subtype
			}
			return refs[i].Path < refs[j].Path
		})
	}
	return idx
}

// mergeAssetIndex unions src into dst by path, preserving dst's entries.
func mergeAssetIndex(dst, src AssetIndex) AssetIndex {
	if dst == nil {
		dst = make(AssetIndex)
	}
	for category, refs := range src {
		known := make(map[string]bool, len(dst[category]))
		for _, ref := range dst[category] {
			known[ref.Path] = true
		}
		for _, ref := range refs {
			if !known[ref.Path] {
				known[ref.Path] = true
				dst[category] = append(dst[category], ref)
			}
		}
		sort.Slice(dst[category], func(i, j int) bool {
			a, b := dst[category][i], dst[category][j]
			if a.Subtype != b.Subtype {
				return a.Subtype < b.Subtype
			}
			return a.Path < b.Path
		})
	}
	return dst
}

// pruneAssetIndex keeps only the categories and locales worth archiving.
// Assets with no locale marker are kept regardless.
func pruneAssetIndex(idx AssetIndex, keepCategories, keepLocales map[string]bool) AssetIndex {
	out := make(AssetIndex)
	for category, refs := range idx {
		if !keepCategories[category] {
			continue
		}
		for _, ref := range refs {
			if ref.Locale != "" && !keepLocales[ref.Locale] {
				continue
			}
			out[category] = append(out[category], ref)
		}
	}
	return out
}

// pickDisplayImage chooses the best available artwork for a unit and
// reports which tier it came from. Falls back through full card art,
// character layer, thumbnail, then a placeholder.
func pickDisplayImage(idx AssetIndex, unitID string) (string, string) {
	find := func(category, subtype string) string {
		for _, ref := range idx[category] {
			if ref.Subtype == subtype && (unitID == "" || ref.CardID == unitID || ref.CardID == "") {
				return ref.Path
			}
		}
		return ""
	}
	if p := find("card_art", "full_card"); p != "" {
		return p, "full_card"
	}
	if p := find("card_art", "character"); p != "" {
		return p, "character"
	}
	if p := find("thumbnail", "thumb"); p != "" {
		return p, "thumbnail"
	}
	return "placeholder/" + unitID + ".png", "placeholder"
}

var assetHTTPClient = &http.Client{Timeout: 45 * time.Second}

func fetchAssetBytes(rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequest(http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", scraperUserAgent)
		resp, err := assetHTTPClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode != http.StatusOK {
				lastErr = fmt.Errorf("status %d for %s", resp.StatusCode, rawURL)
			} else {
				return body, nil
			}
		}
		if attempt < 3 {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}
	return nil, lastErr
}

// downloadAssets fetches every asset URL into outRoot under its relative
// path, skipping files already on disk. Returns the relative paths that
// are now present.
func downloadAssets(urls []string, outRoot string) []string {
	var present []string
	for _, rawURL := range urls {
		rel := urlToAssetRel(rawURL)
		if rel == "" {
			continue
		}
		dst := filepath.Join(outRoot, filepath.FromSlash(rel))
		if fi, err := os.Stat(dst); err == nil && fi.Size() > 0 {
			present = append(present, rel)
			continue
		}
		body, err := fetchAssetBytes(rawURL)
		if err != nil {
			log.Printf("[W] [Scraper/Assets] Download failed for %s: %v", rawURL, err)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			log.Printf("[E] [Scraper/Assets] Mkdir failed for %s: %v", dst, err)
			continue
		}
		if err := os.WriteFile(dst, body, 0644); err != nil {
			log.Printf("[E] [Scraper/Assets] Write failed for %s: %v", dst, err)
			continue
		}
		if enableAssetDebugLogs {
			log.Printf("[D] [Scraper/Assets] Saved %s (%d bytes)", rel, len(body))
		}
		present = append(present, rel)
	}
	return present
}
