package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFormIDFromURL(t *testing.T) {
	assert.Equal(t, "1012345", extractFormIDFromURL("https://dokkaninfo.com/cards/1012345?eza=true&step=3"))
	assert.Equal(t, "", extractFormIDFromURL("https://dokkaninfo.com/categories/42"))
}

func TestParseReleaseDOM(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<div class="row"><b>Release Date</b></div>
		<div class="row">10/30/2022 12:00 AM PDT</div>
		<div class="row"><b>EZA Release Date</b></div>
		<div class="row">12/25/2023 5:30 PM PST</div>
	</body>`)

	rel, tz, ezaRel := parseReleaseDOM(doc)
	assert.Equal(t, "10/30/2022 12:00 AM", rel)
	assert.Equal(t, "PDT", tz)
	assert.Equal(t, "12/25/2023 5:30 PM", ezaRel)
}

func TestParseReleaseText(t *testing.T) {
	rel, tz := parseReleaseText("Some header Release Date 10/30/2022 12:00 AM PDT more text")
	assert.Equal(t, "10/30/2022 12:00 AM", rel)
	assert.Equal(t, "PDT", tz)

	rel, tz = parseReleaseText("nothing here")
	assert.Empty(t, rel)
	assert.Empty(t, tz)
}

func TestParseStats(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<table>
			<tr><th><b>Stats</b></th><th>Base Min</th><th>Base Max</th><th>55%</th><th>100%</th></tr>
			<tr><th>HP</th><td>4,000</td><td>12,000</td><td>15,000</td><td>18,000</td></tr>
			<tr><th>ATK</th><td>3,500</td><td>11,000</td><td>14,000</td><td>17,500</td></tr>
			<tr><th>DEF</th><td>2,000</td><td>6,000</td><td>8,000</td><td>10,000</td></tr>
		</table>
	</body>`)
	pageText := "Cost: 58 Max Lv: 150 SA Lv: 20"

	stats := parseStats(doc, pageText)

	assert.Equal(t, 58, stats.Cost)
	assert.Equal(t, 150, stats.MaxLv)
	assert.Equal(t, 20, stats.SALv)
	require.NotNil(t, stats.HP)
	assert.Equal(t, 12000, stats.HP["Base Max"])
	assert.Equal(t, 17500, stats.ATK["100%"])
	assert.Equal(t, 8000, stats.DEF["55%"])
}

func TestParseStatsNoTable(t *testing.T) {
	doc := mustDoc(t, `<body></body>`)
	stats := parseStats(doc, "Cost: 42")
	assert.Equal(t, 42, stats.Cost)
	assert.Nil(t, stats.HP)
}

func TestDetectRarity(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<div class="card-icon-item card-icon-item-rarity card-info-above-thumb">
			<img src="/assets/img/layout/en/cha_rare_sm_lr.png">
		</div>
	</body>`)
	assert.Equal(t, "LR", detectRarity(doc, nil))

	empty := mustDoc(t, `<body></body>`)
	urls := []string{"https://dokkaninfo.com/assets/img/layout/en/cha_rare_ur.png"}
	assert.Equal(t, "UR", detectRarity(empty, urls))
	assert.Equal(t, "", detectRarity(empty, nil))
}

func TestDetectTypeToken(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<div class="row justify-content-center align-items-center padding-top-bottom-10 border border-2 border-agl bg-agl">
			<b>Super Saiyan Goku</b>
		</div>
	</body>`)
	assert.Equal(t, "AGL", detectTypeToken(doc))
}

func TestParseObtainType(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<div class="row padding-top-bottom-10"><span>Summonable</span></div>
	</body>`)
	assert.Equal(t, "Summonable", parseObtainType(doc))

	none := mustDoc(t, `<body><div class="row">Other</div></body>`)
	assert.Equal(t, "", parseObtainType(none))
}

func TestParseCategoryNames(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<a href="/categories/42"><img alt="Super Saiyans" src="/assets/img/card_category/label/en/label_42.png"></a>
		<a href="/categories/7"><img alt="Pure Saiyans" src="/assets/img/card_category/label/en/label_7.png"></a>
		<a href="/categories/9"><img alt="icon" src="/assets/img/card_category/label/en/label_9.png"></a>
		<img src="/assets/img/card_category/label/en/label_1.png" alt="Majin Buu Saga">
	</body>`)

	cats := parseCategoryNames(doc)
	assert.Equal(t, []string{"Super Saiyans", "Pure Saiyans", "Majin Buu Saga"}, cats)
}

func TestCleanCategoryNames(t *testing.T) {
	cats := cleanCategoryNames([]string{
		"Super Saiyans",
		"Super Saiyans",
		"rarity",
		"label_42.png",
		"100%",
		"Categories",
		"",
	})
	assert.Equal(t, []string{"Super Saiyans"}, cats)
}

func TestParseCategoriesDetailed(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<a href="/categories/42"><img alt="Super Saiyans" src="https://dokkaninfo.com/assets/img/card_category/label/en/label_42.png"></a>
		<a href="/categories/42"><img alt="Super Saiyans" src="https://dokkaninfo.com/assets/img/card_category/label/en/label_42.png"></a>
	</body>`)

	items := parseCategoriesDetailed(doc, "https://dokkaninfo.com/cards/1012345")
	require.Len(t, items, 1, "identical records collapse")
	assert.Equal(t, "42", items[0].ID)
	assert.Equal(t, "Super Saiyans", items[0].Name)
	assert.Equal(t, "en", items[0].Locale)
	assert.Equal(t, "dokkaninfo.com/assets/img/card_category/label/en/label_42.png", items[0].AssetRel)
}

func TestParseAwakenLinks(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<div>Awakened From</div>
		<div class="row d-flex flex-wrap border border-1 card-icon">
			<a class="card-icon" href="/cards/1012344"><img src="x.png"></a>
		</div>
		<div>Dokkan Awaken</div>
		<div class="row d-flex flex-wrap border border-1 card-icon">
			<a class="card-icon" href="/cards/1012346"><img src="y.png"></a>
		</div>
	</body>`)

	awak := parseAwakenLinks(doc, "UR")
	assert.Equal(t, []string{"1012344"}, awak.FromIDs)
	assert.Equal(t, []string{"1012346"}, awak.ToIDs)
}

func TestParseAwakenLinksRarityFallback(t *testing.T) {
	markup := `
	<body>
		<div class="row d-flex flex-wrap border border-1 card-icon">
			<a class="card-icon" href="/cards/1012344"></a>
		</div>
	</body>`

	lr := parseAwakenLinks(mustDoc(t, markup), "LR")
	assert.Equal(t, []string{"1012344"}, lr.FromIDs)
	assert.Empty(t, lr.ToIDs)

	ur := parseAwakenLinks(mustDoc(t, markup), "UR")
	assert.Empty(t, ur.FromIDs)
	assert.Equal(t, []string{"1012344"}, ur.ToIDs)
}

func TestParseFamilyTileIDs(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<div class="row cursor-pointer unselectable border border-2 border-dark margin-top-bottom-5">
			<div class="col-5"><a href="/cards/1011110"><img src="/card_1011110_thumb.png"></a></div>
			<div class="col-5"><a href="/cards/1022220"><img src="/card_1022220_thumb.png"></a></div>
			<div class="col-5"><img src="/assets/img/card/card_1033330_thumb.png"></div>
		</div>
	</body>`)

	ids := parseFamilyTileIDs(doc)
	assert.Equal(t, []string{"1022220", "1033330"}, ids, "first tile is the current form and is skipped")
}

func TestParseDisplayName(t *testing.T) {
	doc := mustDoc(t, `<html><head><title>fallback</title></head><body><h1>Boiling Power Super Saiyan Goku</h1></body></html>`)
	assert.Equal(t, "Boiling Power Super Saiyan Goku", parseDisplayName(doc))

	noH1 := mustDoc(t, `<html><head><title>Super Gogeta | Card Archive</title></head><body></body></html>`)
	assert.Equal(t, "Super Gogeta | Card Archive", parseDisplayName(noH1))
}
