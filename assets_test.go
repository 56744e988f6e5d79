package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLToAssetRel(t *testing.T) {
	rel := urlToAssetRel("https://dokkaninfo.com/assets/img/card/1012345/1012345.png")
	assert.Equal(t, "dokkaninfo.com/assets/img/card/1012345/1012345.png", rel)

	assert.Equal(t, "www.dokkaninfo.com/img/x.webp", urlToAssetRel("https://www.dokkaninfo.com/img/x.webp"))
	assert.Empty(t, urlToAssetRel("https://cdn.example.com/img/x.png"), "foreign hosts are not archived")
	assert.Empty(t, urlToAssetRel("https://dokkaninfo.com/cards/1012345"), "non-asset paths are skipped")
	assert.Empty(t, urlToAssetRel("not a url"))
}

func TestClassifyAsset(t *testing.T) {
	cases := []struct {
		rel      string
		category string
		subtype  string
	}{
		{"dokkaninfo.com/assets/img/layout/en/logo.png", "site", "chrome"},
		{"dokkaninfo.com/assets/img/card_category/label/en/label_42.png", "category_label", "label"},
		{"dokkaninfo.com/assets/img/banner/event_123.png", "event_banner", "banner"},
		{"dokkaninfo.com/assets/img/equipment/eq_1.png", "equipment", "equipment"},
		{"dokkaninfo.com/assets/img/character/thumb/card_1012345_thumb.png", "thumbnail", "thumb"},
		{"dokkaninfo.com/assets/img/card/1012345/1012345.png", "card_art", "full_card"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_character.png", "card_art", "character"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_bg.png", "card_art", "bg"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_circle.png", "card_art", "circle"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_effect.png", "card_art", "effect"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_cutin_1.png", "card_art", "cutin"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_sp_name.png", "card_art", "super_name"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_sp02_phrase.png", "card_art", "super_phrase_2"},
		{"dokkaninfo.com/assets/img/card/1012345/card_1012345_extra.png", "card_art", "card_asset"},
		{"dokkaninfo.com/assets/sound/voice_1.mp3", "other", "other"},
	}
	for _, tc := range cases {
		category, subtype := classifyAsset(tc.rel)
		assert.Equal(t, tc.category, category, tc.rel)
		assert.Equal(t, tc.subtype, subtype, tc.rel)
	}
}

func TestExtractAssetCardIDAndLocale(t *testing.T) {
	assert.Equal(t, "1012345", extractAssetCardID("dokkaninfo.com/assets/img/card/1012345/some.png"))
	assert.Equal(t, "1012345", extractAssetCardID("dokkaninfo.com/assets/img/thumb/card_1012345_thumb.png"))
	assert.Equal(t, "1012345", extractAssetCardID("dokkaninfo.com/assets/img/card_art/1012345.png"))
	assert.Equal(t, "", extractAssetCardID("dokkaninfo.com/assets/img/layout/logo.png"))

	assert.Equal(t, "en", extractLocaleFromRel("dokkaninfo.com/assets/img/card_category/label/en/label_42.png"))
	assert.Equal(t, "jp", extractLocaleFromRel("dokkaninfo.com/assets/img/jp/label_42.png"))
	assert.Equal(t, "", extractLocaleFromRel("dokkaninfo.com/assets/img/label_42.png"))
}

func TestBuildAssetIndex(t *testing.T) {
	rels := []string{
		"dokkaninfo.com/assets/img/card/1012345/1012345.png",
		"dokkaninfo.com/assets/img/card/1012345/1012345.png",
		"dokkaninfo.com/assets/img/character/thumb/card_1012345_thumb.png",
		"",
	}
	idx := buildAssetIndex(rels)

	require.Len(t, idx["card_art"], 1, "duplicates collapse")
	assert.Equal(t, "full_card", idx["card_art"][0].Subtype)
	assert.Equal(t, "1012345", idx["card_art"][0].CardID)
	require.Len(t, idx["thumbnail"], 1)
}

func TestMergeAssetIndex(t *testing.T) {
	a := buildAssetIndex([]string{"dokkaninfo.com/assets/img/card/1/1.png"})
	b := buildAssetIndex([]string{
		"dokkaninfo.com/assets/img/card/1/1.png",
		"dokkaninfo.com/assets/img/card/1/card_1_bg.png",
	})

	merged := mergeAssetIndex(a, b)
	assert.Len(t, merged["card_art"], 2)

	again := mergeAssetIndex(merged, b)
	assert.Len(t, again["card_art"], 2, "merge is idempotent")

	fromNil := mergeAssetIndex(nil, b)
	assert.Len(t, fromNil["card_art"], 2)
}

func TestPruneAssetIndex(t *testing.T) {
	idx := buildAssetIndex([]string{
		"dokkaninfo.com/assets/img/card/1/1.png",
		"dokkaninfo.com/assets/img/card_category/label/en/label_42.png",
		"dokkaninfo.com/assets/img/card_category/label/jp/label_42.png",
		"dokkaninfo.com/assets/img/layout/en/logo.png",
	})

	pruned := pruneAssetIndex(idx,
		map[string]bool{"card_art": true, "category_label": true},
		map[string]bool{"en": true})

	assert.Len(t, pruned["card_art"], 1, "no-locale assets always survive")
	require.Len(t, pruned["category_label"], 1)
	assert.Equal(t, "en", pruned["category_label"][0].Locale)
	assert.Empty(t, pruned["site"])
}

func TestPickDisplayImage(t *testing.T) {
	full := buildAssetIndex([]string{
		"dokkaninfo.com/assets/img/card/1012345/1012345.png",
		"dokkaninfo.com/assets/img/card/1012345/card_1012345_character.png",
	})
	path, tier := pickDisplayImage(full, "1012345")
	assert.Equal(t, "dokkaninfo.com/assets/img/card/1012345/1012345.png", path)
	assert.Equal(t, "full_card", tier)

	characterOnly := buildAssetIndex([]string{
		"dokkaninfo.com/assets/img/card/1012345/card_1012345_character.png",
	})
	path, tier = pickDisplayImage(characterOnly, "1012345")
	assert.Equal(t, "character", tier)
	assert.Contains(t, path, "_character")

	thumbOnly := buildAssetIndex([]string{
		"dokkaninfo.com/assets/img/character/thumb/card_1012345_thumb.png",
	})
	_, tier = pickDisplayImage(thumbOnly, "1012345")
	assert.Equal(t, "thumbnail", tier)

	path, tier = pickDisplayImage(AssetIndex{}, "42")
	assert.Equal(t, "placeholder/42.png", path)
	assert.Equal(t, "placeholder", tier)
}
