package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// FamilyStore persists family documents and answers membership queries
// so the crawler can skip forms it already archived. The crawler only
// ever talks to this interface, never to the backing storage.
type FamilyStore interface {
	Load(unitID string) (*FamilyDocument, error)
	Save(doc *FamilyDocument) error
	Contains(formID string) bool
	KnownFormIDs() []string
	RegisterCategories(details []CategoryDetail) error
}

const (
	metadataFileName    = "METADATA.json"
	attributionFileName = "ATTRIBUTION.txt"
	cardsIndexFileName  = "CARDS_INDEX.json"
	catsIndexFileName   = "CATEGORIES_INDEX.json"
	familyFileName      = "family.json"
)

const attributionText = `All card data and artwork referenced here originate from Dokkan Battle
and were collected from dokkaninfo.com for personal archival use.
All rights belong to their respective owners.
`

var (
	unsafeFilenameRegex = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	folderIDSuffixRegex = regexp.MustCompile(`- (\d+)$`)
)

func sanitizeFilename(name string) string {
	name = unsafeFilenameRegex.ReplaceAllString(name, "")
	name = condenseSpaces(name)
	return strings.Trim(name, " .")
}

// familyFolderName builds the archive folder name for a unit, e.g.
// "[LR] [AGL] Goku - 1012345".
func familyFolderName(doc *FamilyDocument) string {
	rarity := doc.Rarity
	if rarity == "" {
		rarity = "UNK"
	}
	ctype := doc.Type
	if ctype == "" {
		ctype = "UNK"
	}
	name := sanitizeFilename(doc.DisplayName)
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("[%s] [%s] %s - %s", rarity, ctype, name, doc.UnitID)
}

// jsonDirStore is the on-disk backend: one folder per family under the
// output root, plus root-level card and category indexes.
type jsonDirStore struct {
	root       string
	cardsIndex map[string]IndexEntry
	catsIndex  map[string]CategoryNode
}

func newJSONDirStore(root string) (*jsonDirStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}
	s := &jsonDirStore{
		root:       root,
		cardsIndex: make(map[string]IndexEntry),
		catsIndex:  make(map[string]CategoryNode),
	}
	s.loadIndex(cardsIndexFileName, &s.cardsIndex)
	s.loadIndex(catsIndexFileName, &s.catsIndex)
	return s, nil
}

// loadIndex reads a root-level index file, reseeding empty on a missing
// or unreadable file rather than aborting the run.
func (s *jsonDirStore) loadIndex(name string, dst interface{}) {
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[W] [Scraper/Store] Could not read %s, starting fresh: %v", name, err)
		}
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("[W] [Scraper/Store] Corrupt %s, starting fresh: %v", name, err)
	}
}

func (s *jsonDirStore) writeJSON(relPath string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dst := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

func (s *jsonDirStore) folderFor(unitID string) string {
	if entry, ok := s.cardsIndex[unitID]; ok && entry.Folder != "" {
		return entry.Folder
	}
	pattern := filepath.Join(s.root, "*- "+unitID)
	matches, _ := filepath.Glob(pattern)
	for _, m := range matches {
		base := filepath.Base(m)
		if sm := folderIDSuffixRegex.FindStringSubmatch(base); sm != nil && sm[1] == unitID {
			return base
		}
	}
	return ""
}

func (s *jsonDirStore) Load(unitID string) (*FamilyDocument, error) {
	folder := s.folderFor(unitID)
	if folder == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(s.root, folder, familyFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading family %s: %w", unitID, err)
	}
	var doc FamilyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("[W] [Scraper/Store] Corrupt family file for %s, rescraping: %v", unitID, err)
		return nil, nil
	}
	return &doc, nil
}

func (s *jsonDirStore) Save(doc *FamilyDocument) error {
	folder := familyFolderName(doc)
	if prev := s.folderFor(doc.UnitID); prev != "" && prev != folder {
		// Identity data may have been backfilled since the first save.
		if err := os.Rename(filepath.Join(s.root, prev), filepath.Join(s.root, folder)); err != nil {
			folder = prev
		}
	}
	if err := s.writeJSON(filepath.Join(folder, familyFileName), doc); err != nil {
		return fmt.Errorf("writing family %s: %w", doc.UnitID, err)
	}
	if err := s.writeJSON(filepath.Join(folder, metadataFileName), map[string]interface{}{
		"unit_id":    doc.UnitID,
		"source_url": doc.SourceBaseURL,
		"saved_at":   time.Now().UTC().Format(time.RFC3339),
		"variants":   len(doc.Variants),
	}); err != nil {
		return err
	}
	attrPath := filepath.Join(s.root, folder, attributionFileName)
	if _, err := os.Stat(attrPath); os.IsNotExist(err) {
		if err := os.WriteFile(attrPath, []byte(attributionText), 0644); err != nil {
			return err
		}
	}

	variants := make([]string, 0, len(doc.Variants))
	for _, rec := range doc.Variants {
		variants = append(variants, rec.Key)
	}
	for _, rec := range doc.Variants {
		fid := rec.FormID
		if fid == "" {
			fid = doc.FormID
		}
		img, tier := pickDisplayImage(doc.AssetsIndex, fid)
		s.cardsIndex[fid] = IndexEntry{
			Folder:           folder,
			DisplayName:      doc.DisplayName,
			Rarity:           doc.Rarity,
			Type:             doc.Type,
			Variants:         variants,
			DisplayImage:     img,
			DisplayImageTier: tier,
			SavedAt:          time.Now().UTC().Format(time.RFC3339),
		}
	}
	s.cardsIndex[doc.UnitID] = s.cardsIndex[doc.FormID]
	return s.writeJSON(cardsIndexFileName, s.cardsIndex)
}

func (s *jsonDirStore) Contains(formID string) bool {
	if _, ok := s.cardsIndex[formID]; ok {
		return true
	}
	return s.folderFor(formID) != ""
}

// KnownFormIDs lists every form id in the index, in no particular order.
func (s *jsonDirStore) KnownFormIDs() []string {
	ids := make([]string, 0, len(s.cardsIndex))
	for id := range s.cardsIndex {
		ids = append(ids, id)
	}
	return ids
}

// RegisterCategories merges newly seen category records into the global
// registry, additive only. One node per category id carrying per-locale
// labels and every icon asset seen.
func (s *jsonDirStore) RegisterCategories(details []CategoryDetail) error {
	changed := false
	for _, d := range details {
		node, ok := s.catsIndex[d.ID]
		if !ok {
			node = CategoryNode{ID: d.ID, Labels: make(map[string]string)}
		}
		if node.Labels == nil {
			node.Labels = make(map[string]string)
		}
		locale := d.Locale
		if locale == "" {
			locale = "en"
		}
		if d.Name != "" && node.Labels[locale] == "" {
			node.Labels[locale] = d.Name
			changed = true
		}
		if node.Slug == "" && d.Name != "" {
			node.Slug = categorySlug(d.Name)
			changed = true
		}
		if d.AssetRel != "" {
			known := false
			for _, a := range node.Assets {
				if a.Path == d.AssetRel {
					known = true
					break
				}
			}
			if !known {
				node.Assets = append(node.Assets, CategoryAsset{Path: d.AssetRel, Locale: d.Locale})
				changed = true
			}
		}
		s.catsIndex[d.ID] = node
	}
	if !changed {
		return nil
	}
	return s.writeJSON(catsIndexFileName, s.catsIndex)
}
