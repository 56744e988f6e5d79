package main

import "sort"

// findVariantIndex locates a variant by its key, -1 when absent.
func findVariantIndex(doc *FamilyDocument, key string) int {
	if doc == nil {
		return -1
	}
	for i, rec := range doc.Variants {
		if rec.Key == key {
			return i
		}
	}
	return -1
}

// mergeVariantIntoFamily upserts a scraped variant into the family
// document, seeding the document when it does not exist yet. A variant
// key is appended once and updated in place afterwards, so the variant
// list keeps scrape order. Identity fields are only backfilled when
// missing so a partially scraped variant never clobbers known-good
// data. Awakening annotations are recomputed on every merge.
func mergeVariantIntoFamily(doc *FamilyDocument, identity FamilyIdentity, formID string, rec VariantRecord) *FamilyDocument {
	if doc == nil {
		doc = &FamilyDocument{
			UnitID: identity.UnitID,
			FormID: formID,
		}
	}
	if doc.UnitID == "" {
		doc.UnitID = identity.UnitID
	}
	if doc.FormID == "" {
		doc.FormID = formID
	}
	if doc.DisplayName == "" {
		doc.DisplayName = identity.DisplayName
	}
	if doc.Rarity == "" {
		doc.Rarity = identity.Rarity
	}
	if doc.Type == "" {
		doc.Type = identity.Type
	}
	if doc.SourceBaseURL == "" {
		doc.SourceBaseURL = identity.SourceBaseURL
	}
	doc.AssetsIndex = mergeAssetIndex(doc.AssetsIndex, rec.AssetsIndex)
	if i := findVariantIndex(doc, rec.Key); i >= 0 {
		doc.Variants[i] = rec
	} else {
		doc.Variants = append(doc.Variants, rec)
	}
	annotateAwakeningChain(doc)
	return doc
}

// variantsByFormID groups the family's variant records by the form they
// belong to.
func variantsByFormID(doc *FamilyDocument) map[string][]VariantRecord {
	byForm := make(map[string][]VariantRecord)
	for _, rec := range doc.Variants {
		fid := rec.FormID
		if fid == "" {
			fid = doc.FormID
		}
		byForm[fid] = append(byForm[fid], rec)
	}
	return byForm
}

// baseVariantForForm prefers the plain base record over any enhanced
// step when reading per-form identity data like awakening links.
func baseVariantForForm(recs []VariantRecord) VariantRecord {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].EZA != recs[j].EZA {
			return !recs[i].EZA
		}
		return recs[i].Step < recs[j].Step
	})
	return recs[0]
}

// chainRank orders forms within a family for fork resolution: higher
// rarity wins, then the numerically larger form id.
func chainRank(rec VariantRecord, fid string) (int, string) {
	return rarityRankOf(rec.Rarity), fid
}

func rankLess(r1 int, id1 string, r2 int, id2 string) bool {
	if r1 != r2 {
		return r1 < r2
	}
	if len(id1) != len(id2) {
		return len(id1) < len(id2)
	}
	return id1 < id2
}

// annotateAwakeningChain walks each form's awakens-to edges, preferring
// targets that are themselves members of the family, and stamps each
// variant with the chain head it eventually reaches plus whether its own
// form is that head. External edges are followed only while the target
// form is present in the document; a missing target ends the walk at the
// last known form. Forks resolve toward the higher-ranked branch.
func annotateAwakeningChain(doc *FamilyDocument) {
	byForm := variantsByFormID(doc)

	next := make(map[string]string, len(byForm))
	hasEdges := false
	for fid, recs := range byForm {
		base := baseVariantForForm(recs)
		if len(base.Awakening.ToIDs) == 0 {
			continue
		}
		hasEdges = true
		chosen := ""
		var chosenRank int
		var chosenID string
		for _, to := range base.Awakening.ToIDs {
			recsTo, internal := byForm[to]
			if !internal {
				continue
			}
			cand := baseVariantForForm(recsTo)
			r, id := chainRank(cand, to)
			if chosen == "" || rankLess(chosenRank, chosenID, r, id) {
				chosen, chosenRank, chosenID = to, r, id
			}
		}
		if chosen != "" {
			next[fid] = chosen
		}
	}

	headOf := func(start string) string {
		cur := start
		visited := map[string]bool{cur: true}
		for {
			to, ok := next[cur]
			if !ok {
				return cur
			}
			if visited[to] {
				return cur
			}
			visited[to] = true
			cur = to
		}
	}

	for i := range doc.Variants {
		rec := &doc.Variants[i]
		fid := rec.FormID
		if fid == "" {
			fid = doc.FormID
		}
		if !hasEdges {
			rec.AwakenChainHeadID = fid
			rec.IsFullyAwakened = true
		} else {
			head := headOf(fid)
			rec.AwakenChainHeadID = head
			rec.IsFullyAwakened = head == fid
		}
	}
}
