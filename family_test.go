package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity(id string) FamilyIdentity {
	return FamilyIdentity{
		UnitID:        id,
		DisplayName:   "Super Saiyan Goku",
		Rarity:        "UR",
		Type:          "AGL",
		SourceBaseURL: "https://dokkaninfo.com/cards/" + id,
	}
}

func testVariant(key, formID, rarity string, toIDs ...string) VariantRecord {
	return VariantRecord{
		Key:       key,
		FormID:    formID,
		Rarity:    rarity,
		Awakening: Awakening{ToIDs: toIDs},
	}
}

func variantByKey(t *testing.T, doc *FamilyDocument, key string) VariantRecord {
	t.Helper()
	i := findVariantIndex(doc, key)
	require.GreaterOrEqual(t, i, 0, "variant %q not in document", key)
	return doc.Variants[i]
}

func TestMergeVariantIntoFamilySeedsDocument(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "UR"))

	require.NotNil(t, doc)
	assert.Equal(t, "100", doc.UnitID)
	assert.Equal(t, "Super Saiyan Goku", doc.DisplayName)
	require.Len(t, doc.Variants, 1)
	assert.Equal(t, "base", doc.Variants[0].Key)
}

func TestMergeVariantIntoFamilyBackfillsWithoutClobbering(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "UR"))

	partial := FamilyIdentity{UnitID: "100", DisplayName: "Renamed"}
	doc = mergeVariantIntoFamily(doc, partial, "100", testVariant("eza_step_1", "100", "UR"))

	assert.Equal(t, "Super Saiyan Goku", doc.DisplayName, "identity set once stays")
	assert.Len(t, doc.Variants, 2)
}

func TestMergeVariantIntoFamilyUpsertsByKey(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "UR"))

	updated := testVariant("base", "100", "UR")
	updated.ReleaseDate = "10/30/2022 12:00 AM"
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", updated)

	assert.Len(t, doc.Variants, 1)
	assert.Equal(t, "10/30/2022 12:00 AM", variantByKey(t, doc, "base").ReleaseDate)
}

func TestMergeVariantKeepsScrapeOrder(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "UR"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("eza_step_2", "100", "UR"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("eza_step_10", "100", "UR"))
	// Re-scraping an earlier step must update in place, not move it.
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("eza_step_2", "100", "UR"))

	require.Len(t, doc.Variants, 3)
	keys := make([]string, len(doc.Variants))
	for i, rec := range doc.Variants {
		keys[i] = rec.Key
	}
	assert.Equal(t, []string{"base", "eza_step_2", "eza_step_10"}, keys)
}

func TestMergeVariantUnionsAssetIndex(t *testing.T) {
	v1 := testVariant("base", "100", "UR")
	v1.AssetsIndex = buildAssetIndex([]string{"dokkaninfo.com/assets/img/card/100/100.png"})
	v2 := testVariant("eza_step_1", "100", "UR")
	v2.AssetsIndex = buildAssetIndex([]string{
		"dokkaninfo.com/assets/img/card/100/100.png",
		"dokkaninfo.com/assets/img/card/100/card_100_bg.png",
	})

	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", v1)
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", v2)

	assert.Len(t, doc.AssetsIndex["card_art"], 2)
}

func TestMergeVariantRefreshesAwakeningAnnotations(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "SSR", "200"))
	assert.Equal(t, "100", variantByKey(t, doc, "base").AwakenChainHeadID,
		"edge target not in document yet")

	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("form_200_base", "200", "UR"))

	base := variantByKey(t, doc, "base")
	assert.Equal(t, "200", base.AwakenChainHeadID, "annotations fresh right after the merge")
	assert.False(t, base.IsFullyAwakened)
	assert.True(t, variantByKey(t, doc, "form_200_base").IsFullyAwakened)
}

func TestAnnotateAwakeningChain(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "SSR", "200"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("form_200_base", "200", "UR", "300"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("form_300_base", "300", "LR"))

	annotateAwakeningChain(doc)

	for _, rec := range doc.Variants {
		assert.Equal(t, "300", rec.AwakenChainHeadID, rec.Key)
	}
	assert.False(t, variantByKey(t, doc, "base").IsFullyAwakened)
	assert.False(t, variantByKey(t, doc, "form_200_base").IsFullyAwakened)
	assert.True(t, variantByKey(t, doc, "form_300_base").IsFullyAwakened)
}

func TestAnnotateAwakeningChainNoEdges(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "UR"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("form_200_base", "200", "UR"))

	annotateAwakeningChain(doc)

	assert.True(t, variantByKey(t, doc, "base").IsFullyAwakened)
	assert.Equal(t, "100", variantByKey(t, doc, "base").AwakenChainHeadID)
	assert.True(t, variantByKey(t, doc, "form_200_base").IsFullyAwakened)
	assert.Equal(t, "200", variantByKey(t, doc, "form_200_base").AwakenChainHeadID)
}

func TestAnnotateAwakeningChainExternalEdgeStops(t *testing.T) {
	// The awakens-to target is not part of this family document: the walk
	// ends at the last known form instead of inventing a member.
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "UR", "999999"))

	annotateAwakeningChain(doc)

	assert.Equal(t, "100", variantByKey(t, doc, "base").AwakenChainHeadID)
	assert.True(t, variantByKey(t, doc, "base").IsFullyAwakened)
}

func TestAnnotateAwakeningChainForkPrefersHigherRank(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "SSR", "200", "300"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("form_200_base", "200", "UR"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("form_300_base", "300", "LR"))

	annotateAwakeningChain(doc)

	assert.Equal(t, "300", variantByKey(t, doc, "base").AwakenChainHeadID, "LR branch outranks UR")
}

func TestAnnotateAwakeningChainCycleTerminates(t *testing.T) {
	doc := mergeVariantIntoFamily(nil, testIdentity("100"), "100", testVariant("base", "100", "UR", "200"))
	doc = mergeVariantIntoFamily(doc, testIdentity("100"), "100", testVariant("form_200_base", "200", "UR", "100"))

	annotateAwakeningChain(doc)

	for _, rec := range doc.Variants {
		assert.NotEmpty(t, rec.AwakenChainHeadID, rec.Key)
	}
}

func TestBaseVariantForForm(t *testing.T) {
	recs := []VariantRecord{
		{Key: "eza_step_2", EZA: true, Step: 2},
		{Key: "base"},
		{Key: "eza_step_1", EZA: true, Step: 1},
	}
	assert.Equal(t, "base", baseVariantForForm(recs).Key)
}
