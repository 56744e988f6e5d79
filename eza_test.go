package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const ezaDropdownFixture = `
<body>
	<div class="row"><b>EZA Release Date</b></div>
	<div class="row">12/25/2023 12:00 AM PST</div>
	<div class="multiselect">
		<ul class="multiselect__content">
			<li class="multiselect__element"><span class="multiselect__option"><span>3</span></span></li>
			<li class="multiselect__element"><span class="multiselect__option"><span>1</span></span></li>
			<li class="multiselect__element"><span class="multiselect__option"><span>2</span></span></li>
		</ul>
	</div>
</body>`

func TestDiscoverEZAStepsFromDropdown(t *testing.T) {
	doc := mustDoc(t, ezaDropdownFixture)

	assert.Equal(t, []int{1, 2, 3}, discoverEZASteps(doc, "UR"))
}

func TestDiscoverEZAStepsFailsClosedWithoutEvidence(t *testing.T) {
	// Step selector markup alone is not evidence of a real progression.
	doc := mustDoc(t, `
	<body>
		<div class="multiselect">
			<ul class="multiselect__content">
				<li class="multiselect__element"><span class="multiselect__option"><span>3</span></span></li>
			</ul>
		</div>
	</body>`)

	assert.Empty(t, discoverEZASteps(doc, "UR"))
}

func TestDiscoverEZAStepsSingleValueExtendsToRarityCap(t *testing.T) {
	doc := mustDoc(t, `
	<body>
		<table><tr><th>Base Max</th><th>EZA B. Max</th></tr></table>
		<div class="multiselect">
			<div class="multiselect__tags"><span class="multiselect__single">2</span></div>
		</div>
	</body>`)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, discoverEZASteps(doc, "UR"))
	assert.Equal(t, []int{1, 2, 3, 4}, discoverEZASteps(doc, "LR"))
	assert.Equal(t, []int{1, 2}, discoverEZASteps(doc, "SSR"), "unknown cap keeps the observed value")
}

func TestDiscoverEZAStepsNoSelector(t *testing.T) {
	doc := mustDoc(t, `
	<body><table><tr><th>EZA 100%</th></tr></table></body>`)

	assert.Empty(t, discoverEZASteps(doc, "UR"))
}

func TestHasEZAEvidence(t *testing.T) {
	statCols := mustDoc(t, `<body><table><tr><th>EZA B. Max</th></tr></table></body>`)
	assert.True(t, hasEZAEvidence(statCols))

	release := mustDoc(t, `
	<body>
		<div class="row"><b>EZA Release Date</b></div>
		<div class="row">01/15/2024 12:00 AM PST</div>
	</body>`)
	assert.True(t, hasEZAEvidence(release))

	plain := mustDoc(t, `<body><div class="row"><b>Release Date</b></div><div class="row">01/15/2024 12:00 AM PST</div></body>`)
	assert.False(t, hasEZAEvidence(plain))
}

func TestHasPreEZAToggle(t *testing.T) {
	both := mustDoc(t, `<body><b>PRE-EZA</b><b>EZA</b></body>`)
	assert.True(t, hasPreEZAToggle(both))

	one := mustDoc(t, `<body><b>EZA</b></body>`)
	assert.False(t, hasPreEZAToggle(one))
}

func TestIsSuperEZAStep(t *testing.T) {
	assert.True(t, isSuperEZAStep(8, 8, "UR"))
	assert.True(t, isSuperEZAStep(4, 4, "LR"))
	assert.False(t, isSuperEZAStep(7, 8, "UR"))
	assert.False(t, isSuperEZAStep(4, 4, "UR"), "max below the rarity cap is a plain step")
	assert.False(t, isSuperEZAStep(3, 3, "SSR"))
}
