package models

import (
	"strings"
	"time"
)

// Ability is one of the six ability scores.
type Ability string

const (
	AbilityStrength     Ability = "strength"
	AbilityDexterity    Ability = "dexterity"
	AbilityConstitution Ability = "constitution"
	AbilityIntelligence Ability = "intelligence"
	AbilityWisdom       Ability = "wisdom"
	AbilityCharisma     Ability = "charisma"
)

var Abilities = []Ability{
	AbilityStrength, AbilityDexterity, AbilityConstitution,
	AbilityIntelligence, AbilityWisdom, AbilityCharisma,
}

// ParseAbility validates an ability name.
func ParseAbility(name string) (Ability, error) {
	a := Ability(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Abilities {
		if a == known {
			return a, nil
		}
	}
	return "", newValidationError("unknown ability %q", name)
}

const (
	MinAbilityScore     = 1
	MaxAbilityScore     = 30
	DefaultAbilityScore = 8
	DefaultSanity       = 60
	MaxNameLength       = 100
)

// ClampAbilityScore pins a score to the legal range.
func ClampAbilityScore(score int) int {
	if score < MinAbilityScore {
		return MinAbilityScore
	}
	if score > MaxAbilityScore {
		return MaxAbilityScore
	}
	return score
}

// AbilityScores holds the six raw scores of a character sheet.
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// DefaultAbilityScores returns every score at DefaultAbilityScore.
func DefaultAbilityScores() AbilityScores {
	return AbilityScores{
		Strength:     DefaultAbilityScore,
		Dexterity:    DefaultAbilityScore,
		Constitution: DefaultAbilityScore,
		Intelligence: DefaultAbilityScore,
		Wisdom:       DefaultAbilityScore,
		Charisma:     DefaultAbilityScore,
	}
}

// Character is a player's sheet inside one campaign.
type Character struct {
	ID         int64  `json:"id"`
	CampaignID int64  `json:"campaign"`
	UserID     UserID `json:"user"`
	UserName   string `json:"user_name"`
	Name       string `json:"name"`
	Level      int    `json:"level"`

	OriginID   *int64 `json:"origin"`
	LineageID  *int64 `json:"lineage"`
	ClassID    *int64 `json:"char_class"`
	SubclassID *int64 `json:"subclass"`

	FeatureIDs       []int64 `json:"chosen_features"`
	FeatureOptionIDs []int64 `json:"chosen_feature_options"`

	AbilityScores

	Hp     int `json:"hp"`
	Mana   int `json:"mana"`
	Sanity int `json:"sanity"`

	Status    Status    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreChanges is a partial set of ability scores. A nil field leaves the
// current value alone.
type ScoreChanges struct {
	Strength     *int `json:"strength,omitempty"`
	Dexterity    *int `json:"dexterity,omitempty"`
	Constitution *int `json:"constitution,omitempty"`
	Intelligence *int `json:"intelligence,omitempty"`
	Wisdom       *int `json:"wisdom,omitempty"`
	Charisma     *int `json:"charisma,omitempty"`
}

func (sc ScoreChanges) applyTo(scores *AbilityScores) {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&scores.Strength, sc.Strength)
	set(&scores.Dexterity, sc.Dexterity)
	set(&scores.Constitution, sc.Constitution)
	set(&scores.Intelligence, sc.Intelligence)
	set(&scores.Wisdom, sc.Wisdom)
	set(&scores.Charisma, sc.Charisma)
}

// NewCharacterInput describes a character sheet to create. Abilities missing
// from Scores start at DefaultAbilityScore.
type NewCharacterInput struct {
	CampaignID int64
	UserID     UserID
	Name       string
	Level      int
	Scores     ScoreChanges
}

// NewCharacter builds a DRAFT character with defaults applied and scores clamped.
func NewCharacter(input NewCharacterInput, now time.Time) (*Character, error) {
	c := &Character{
		CampaignID:    input.CampaignID,
		UserID:        input.UserID,
		Name:          strings.TrimSpace(input.Name),
		Level:         input.Level,
		AbilityScores: DefaultAbilityScores(),
		Sanity:        DefaultSanity,
		Status:        StatusDraft,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	if c.Level == 0 {
		c.Level = 1
	}
	input.Scores.applyTo(&c.AbilityScores)
	c.clampScores()

	if err := c.validateFields(); err != nil {
		return nil, err
	}
	return c, nil
}

// Score returns the raw score for an ability.
func (c *Character) Score(a Ability) (int, error) {
	switch a {
	case AbilityStrength:
		return c.Strength, nil
	case AbilityDexterity:
		return c.Dexterity, nil
	case AbilityConstitution:
		return c.Constitution, nil
	case AbilityIntelligence:
		return c.Intelligence, nil
	case AbilityWisdom:
		return c.Wisdom, nil
	case AbilityCharisma:
		return c.Charisma, nil
	}
	return 0, newValidationError("unknown ability %q", string(a))
}

// Modifiers returns the ability modifier for every ability.
func (c *Character) Modifiers() map[Ability]int {
	mods := make(map[Ability]int, len(Abilities))
	for _, a := range Abilities {
		score, _ := c.Score(a)
		mods[a] = AbilityModifier(score)
	}
	return mods
}

// ProficiencyBonus is the bonus for the character's current level.
func (c *Character) ProficiencyBonus() int {
	return ProficiencyBonus(c.Level)
}

// CanView reports whether u may read this sheet.
func (c *Character) CanView(campaign *Campaign, u UserID) bool {
	return c.UserID == u || campaign.IsMember(u)
}

// CanEdit reports whether u may edit sheet fields and resources.
func (c *Character) CanEdit(campaign *Campaign, u UserID) bool {
	return c.UserID == u || campaign.IsOwner(u)
}

// CharacterPatch carries optional sheet updates. Ability scores sit at the top
// level, as on the sheet itself. Status is never patched directly.
type CharacterPatch struct {
	ScoreChanges

	Name             *string  `json:"name"`
	Level            *int     `json:"level"`
	OriginID         *int64   `json:"origin"`
	LineageID        *int64   `json:"lineage"`
	ClassID          *int64   `json:"char_class"`
	SubclassID       *int64   `json:"subclass"`
	FeatureIDs       *[]int64 `json:"chosen_features"`
	FeatureOptionIDs *[]int64 `json:"chosen_feature_options"`
	Hp               *int     `json:"hp"`
	Mana             *int     `json:"mana"`
	Sanity           *int     `json:"sanity"`
	Notes            *string  `json:"notes"`
}

// Apply returns a copy of c with the patch applied. Scores are clamped.
func (c Character) Apply(p CharacterPatch) (*Character, error) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.OriginID != nil {
		c.OriginID = optionalID(*p.OriginID)
	}
	if p.LineageID != nil {
		c.LineageID = optionalID(*p.LineageID)
	}
	if p.ClassID != nil {
		c.ClassID = optionalID(*p.ClassID)
	}
	if p.SubclassID != nil {
		c.SubclassID = optionalID(*p.SubclassID)
	}
	if p.FeatureIDs != nil {
		c.FeatureIDs = append([]int64(nil), (*p.FeatureIDs)...)
	}
	if p.FeatureOptionIDs != nil {
		c.FeatureOptionIDs = append([]int64(nil), (*p.FeatureOptionIDs)...)
	}
	p.ScoreChanges.applyTo(&c.AbilityScores)
	if p.Hp != nil {
		c.Hp = *p.Hp
	}
	if p.Mana != nil {
		c.Mana = *p.Mana
	}
	if p.Sanity != nil {
		c.Sanity = *p.Sanity
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	c.clampScores()

	if err := c.validateFields(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateLineage enforces that a chosen lineage belongs to the chosen origin.
// lineage is the record referenced by c.LineageID, or nil when none is set.
func (c *Character) ValidateLineage(lineage *OriginLineage) error {
	if c.LineageID == nil {
		return nil
	}
	if lineage == nil {
		return newValidationError("lineage %d does not exist", *c.LineageID)
	}
	if c.OriginID == nil {
		return newValidationError("a lineage can only be chosen together with an origin")
	}
	if lineage.OriginID != *c.OriginID {
		return newValidationError("lineage %q does not belong to the chosen origin", lineage.Name)
	}
	return nil
}

func (c *Character) validateFields() error {
	if c.Name == "" {
		return newValidationError("character name is required")
	}
	if len(c.Name) > MaxNameLength {
		return newValidationError("character name must be at most %d characters", MaxNameLength)
	}
	if c.Level < 1 {
		return newValidationError("level must be a positive integer")
	}
	return nil
}

func (c *Character) clampScores() {
	c.Strength = ClampAbilityScore(c.Strength)
	c.Dexterity = ClampAbilityScore(c.Dexterity)
	c.Constitution = ClampAbilityScore(c.Constitution)
	c.Intelligence = ClampAbilityScore(c.Intelligence)
	c.Wisdom = ClampAbilityScore(c.Wisdom)
	c.Charisma = ClampAbilityScore(c.Charisma)
}

// optionalID maps 0 to "unset" so JSON clients can clear a reference.
func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
