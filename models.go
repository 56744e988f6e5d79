package main

// SkillRef is a named skill with its effect text (super / ultra super attacks).
type SkillRef struct {
	Name   string `json:"name,omitempty"`
	Effect string `json:"effect,omitempty"`
}

// PassiveLine is one list item of the passive skill, annotated by the
// DOM walk: the bolded sub-heading it appeared under and the once/permanent
// marker icons found on it.
type PassiveLine struct {
	Text      string   `json:"text"`
	Context   string   `json:"context,omitempty"`
	Once      bool     `json:"once"`
	Permanent bool     `json:"permanent"`
	Arrows    []string `json:"arrows,omitempty"`
	Icons     []string `json:"icons,omitempty"`
}

// PassiveSkill carries both the rendered effect string and the ordered
// line records it was rendered from.
type PassiveSkill struct {
	Name   string        `json:"name,omitempty"`
	Effect string        `json:"effect,omitempty"`
	Lines  []PassiveLine `json:"lines,omitempty"`
}

// Transformation holds the transform clause pulled out of the passive.
type Transformation struct {
	CanTransform bool   `json:"can_transform"`
	Condition    string `json:"condition,omitempty"`
}

// ReversibleExchange holds the reversible-exchange clause pulled out of the passive.
type ReversibleExchange struct {
	CanExchange bool   `json:"can_exchange"`
	Condition   string `json:"condition,omitempty"`
}

// ActiveSkill is the active skill block with its activation conditions.
type ActiveSkill struct {
	Name                 string `json:"name,omitempty"`
	Effect               string `json:"effect,omitempty"`
	ActivationConditions string `json:"activation_conditions,omitempty"`
}

// SkillBlock is a standby or finish skill: effect lines plus the lines
// collected after the condition sub-label.
type SkillBlock struct {
	Name       string `json:"name,omitempty"`
	Effect     string `json:"effect,omitempty"`
	Conditions string `json:"conditions,omitempty"`
	Type       string `json:"type,omitempty"`
}

// DomainEffect is one "Domain Effect(s)" block.
type DomainEffect struct {
	Name   string `json:"name,omitempty"`
	Effect string `json:"effect,omitempty"`
	Type   string `json:"type,omitempty"`
}

// CategoryDetail is one category chip with its per-locale icon asset.
type CategoryDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	AssetRel string `json:"asset_rel,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// StatsTable is the numeric stat table. The per-stat maps are keyed by the
// table's column headers ("Base Min", "Base Max", "55%", "100%",
// "EZA B. Max", "EZA 100%").
type StatsTable struct {
	Cost  int            `json:"cost,omitempty"`
	MaxLv int            `json:"max_lv,omitempty"`
	SALv  int            `json:"sa_lv,omitempty"`
	HP    map[string]int `json:"hp,omitempty"`
	ATK   map[string]int `json:"atk,omitempty"`
	DEF   map[string]int `json:"def,omitempty"`
}

// Awakening lists the form ids this variant's page links as awakening
// sources and targets.
type Awakening struct {
	FromIDs []string `json:"from_ids"`
	ToIDs   []string `json:"to_ids"`
}

// Kit is everything parsed out of one detail page's skill sections.
type Kit struct {
	LeaderSkill              string             `json:"leader_skill,omitempty"`
	SuperAttack              SkillRef           `json:"super_attack"`
	UltraSuperAttack         SkillRef           `json:"ultra_super_attack"`
	PassiveSkill             PassiveSkill       `json:"passive_skill"`
	Transformation           Transformation     `json:"transformation"`
	ReversibleExchange       ReversibleExchange `json:"reversible_exchange"`
	TransformationConditions string             `json:"transformation_conditions,omitempty"`
	ActiveSkill              ActiveSkill        `json:"active_skill"`
	StandbySkill             *SkillBlock        `json:"standby_skill,omitempty"`
	FinishSkills             []SkillBlock       `json:"finish_skills,omitempty"`
	LinkSkills               []string           `json:"link_skills,omitempty"`
	Categories               []string           `json:"categories,omitempty"`
	CategoriesDetailed       []CategoryDetail   `json:"categories_detailed,omitempty"`
	Stats                    StatsTable         `json:"stats"`
	Domains                  []DomainEffect     `json:"domains,omitempty"`
}

// AssetRef is one classified asset inside an AssetIndex bucket. The bucket
// key carries the category, so the ref itself only keeps the finer fields.
type AssetRef struct {
	Path    string `json:"path"`
	Subtype string `json:"subtype,omitempty"`
	CardID  string `json:"card_id,omitempty"`
	Locale  string `json:"locale,omitempty"`
	Note    string `json:"note,omitempty"`
}

// AssetIndex maps an asset category to its classified entries.
type AssetIndex map[string][]AssetRef

// VariantRecord is one scraped rendering of one form at one enhancement
// step. Key is unique within a family document.
type VariantRecord struct {
	Key          string `json:"key"`
	VariantLabel string `json:"variant_label,omitempty"`
	FormID       string `json:"form_id"`
	DisplayName  string `json:"display_name,omitempty"`
	Rarity       string `json:"rarity,omitempty"`
	Type         string `json:"type,omitempty"`
	EZA          bool   `json:"eza"`
	Step         int    `json:"step,omitempty"`
	IsSuperEZA   bool   `json:"is_super_eza"`

	SourceURL      string `json:"source_url"`
	ReleaseDate    string `json:"release_date,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	EZAReleaseDate string `json:"eza_release_date,omitempty"`
	ObtainType     string `json:"obtain_type,omitempty"`
	RarityRank     int    `json:"rarity_rank"`

	Awakening   Awakening  `json:"awakening"`
	Kit         Kit        `json:"kit"`
	AssetsIndex AssetIndex `json:"assets_index,omitempty"`

	// Derived by the awakening resolver after every merge.
	AwakenChainHeadID string `json:"awaken_chain_head_id,omitempty"`
	IsFullyAwakened   bool   `json:"is_fully_awakened"`
}

// FamilyIdentity is the unit-level identity a single page scrape yields;
// it seeds (or backfills) the owning family document.
type FamilyIdentity struct {
	UnitID        string
	DisplayName   string
	Rarity        string
	Type          string
	SourceBaseURL string
}

// FamilyDocument is the durable, mergeable aggregate for one unit lineage:
// the base form plus its enhancement steps and alternate transformations.
type FamilyDocument struct {
	UnitID        string `json:"unit_id"`
	FormID        string `json:"form_id"`
	DisplayName   string `json:"display_name,omitempty"`
	Rarity        string `json:"rarity,omitempty"`
	Type          string `json:"type,omitempty"`
	SourceBaseURL string `json:"source_base_url,omitempty"`

	// Ordered by first scrape: a key is appended once, later scrapes of
	// the same key update the record in place.
	Variants    []VariantRecord `json:"variants"`
	AssetsIndex AssetIndex      `json:"assets_index"`
}

// CategoryAsset is one icon asset of a category, per locale.
type CategoryAsset struct {
	Path   string `json:"path"`
	Locale string `json:"locale,omitempty"`
}

// CategoryNode is one entry of the global category registry, accumulated
// additively across every family ever processed.
type CategoryNode struct {
	ID     string            `json:"id"`
	Labels map[string]string `json:"labels"`
	Assets []CategoryAsset   `json:"assets"`
	Slug   string            `json:"slug,omitempty"`
}

// IndexEntry maps one known form id to its owning family folder, the
// variant keys already archived for it (in document order), and the
// best display artwork found for the family.
type IndexEntry struct {
	Folder           string   `json:"folder"`
	DisplayName      string   `json:"display_name,omitempty"`
	Rarity           string   `json:"rarity,omitempty"`
	Type             string   `json:"type,omitempty"`
	Variants         []string `json:"variants"`
	DisplayImage     string   `json:"display_image,omitempty"`
	DisplayImageTier string   `json:"display_image_tier,omitempty"`
	SavedAt          string   `json:"saved_at,omitempty"`
}

var rarityRank = map[string]int{
	"N":   0,
	"R":   1,
	"SR":  2,
	"SSR": 3,
	"UR":  4,
	"LR":  5,
}

func rarityRankOf(rarity string) int {
	if r, ok := rarityRank[rarity]; ok {
		return r
	}
	return -1
}
