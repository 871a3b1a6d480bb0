package models

const (
	ProficiencyNone       = 0
	ProficiencyProficient = 1
	ProficiencyExpertise  = 2
)

// Skill is shared reference data.
type Skill struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Ability Ability `json:"ability"`
}

// CharacterSkill joins a character with a skill. TotalValue is derived on read.
type CharacterSkill struct {
	ID               int64 `json:"id"`
	CharacterID      int64 `json:"character"`
	Skill            Skill `json:"skill"`
	ProficiencyLevel int   `json:"proficiency_level"`
	TotalValue       int   `json:"total_value"`
}

// Compute fills TotalValue from the character's current sheet.
func (cs *CharacterSkill) Compute(c *Character) error {
	total, err := SkillTotal(c, cs.Skill, cs.ProficiencyLevel)
	if err != nil {
		return err
	}
	cs.TotalValue = total
	return nil
}
