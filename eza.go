package main

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// superEZACaps maps a rarity tier to its terminal enhancement step. A
// rarity with no entry never produces a super step and never extends a
// backfill, which keeps step enumeration conservative for unseen tiers.
var superEZACaps = map[string]int{
	"UR": 8,
	"LR": 4,
}

func superEZAStepForRarity(rarity string) int {
	return superEZACaps[strings.ToUpper(rarity)]
}

// hasEZAStatsColumns reports whether the stats table carries
// enhanced-tier columns.
func hasEZAStatsColumns(doc *goquery.Document) bool {
	found := false
	doc.Find("th").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToUpper(condenseSpaces(s.Text())), "EZA") {
			found = true
			return false
		}
		return true
	})
	return found
}

func hasEZAReleaseBlock(doc *goquery.Document) bool {
	_, _, ezaRel := parseReleaseDOM(doc)
	return ezaRel != ""
}

// hasEZAEvidence is the hard-evidence gate: an enhancement progression is
// only considered real when the page shows an EZA release-date block or
// enhanced-tier stat columns. Step-selector markup alone proves nothing;
// a false positive here plants phantom variant keys in the family
// document.
func hasEZAEvidence(doc *goquery.Document) bool {
	return hasEZAReleaseBlock(doc) || hasEZAStatsColumns(doc)
}

// stepsFromDropdown reads every selectable value out of the step selector
// option list.
func stepsFromDropdown(doc *goquery.Document) []int {
	seen := make(map[int]bool)
	var steps []int
	doc.Find("div.multiselect ul.multiselect__content li.multiselect__element span.multiselect__option span").
		Each(func(i int, s *goquery.Selection) {
			if v, err := strconv.Atoi(condenseSpaces(s.Text())); err == nil && !seen[v] {
				seen[v] = true
				steps = append(steps, v)
			}
		})
	for i := 1; i < len(steps); i++ {
		for j := i; j > 0 && steps[j-1] > steps[j]; j-- {
			steps[j-1], steps[j] = steps[j], steps[j-1]
		}
	}
	return steps
}

// selectedStepValue reads the single currently-selected step when the
// full option list is not rendered. Returns 0 when absent.
func selectedStepValue(doc *goquery.Document) int {
	single := doc.Find("div.multiselect__tags span.multiselect__single").First()
	if single.Length() == 0 {
		return 0
	}
	v, err := strconv.Atoi(condenseSpaces(single.Text()))
	if err != nil {
		return 0
	}
	return v
}

// hasPreEZAToggle reports whether the page carries the two-state
// PRE-EZA / EZA toggle.
func hasPreEZAToggle(doc *goquery.Document) bool {
	pre, eza := false, false
	doc.Find("b").Each(func(i int, s *goquery.Selection) {
		switch strings.ToUpper(condenseSpaces(s.Text())) {
		case "PRE-EZA":
			pre = true
		case "EZA":
			eza = true
		}
	})
	return pre && eza
}

func stepRange(max int) []int {
	if max < 1 {
		return nil
	}
	steps := make([]int, max)
	for i := range steps {
		steps[i] = i + 1
	}
	return steps
}

// discoverEZASteps enumerates the enhancement steps for the current page.
// It fails closed: without hard evidence the result is empty no matter
// what selector markup is present. With evidence, dropdown values are
// backfilled 1..max so unlisted interior steps are not skipped; a lone
// selected value extends to the rarity's expected cap.
func discoverEZASteps(doc *goquery.Document, rarityHint string) []int {
	if doc == nil || !hasEZAEvidence(doc) {
		return nil
	}

	if steps := stepsFromDropdown(doc); len(steps) > 0 {
		return stepRange(steps[len(steps)-1])
	}

	cur := selectedStepValue(doc)
	if cur == 0 {
		return nil
	}
	if capStep := superEZAStepForRarity(rarityHint); capStep > cur {
		return stepRange(capStep)
	}
	return stepRange(cur)
}

// isSuperEZAStep flags the terminal "super" step: the step must be the
// enumerated maximum and that maximum must equal the rarity's cap. At
// most one step per progression can satisfy this.
func isSuperEZAStep(step, maxStep int, rarity string) bool {
	capStep := superEZAStepForRarity(rarity)
	return capStep != 0 && step == maxStep && maxStep == capStep
}
