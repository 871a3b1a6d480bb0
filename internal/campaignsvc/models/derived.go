package models

// Derived values are recomputed from stored fields on every read and never persisted.

// AbilityModifier returns floor((score - 10) / 2), rounding toward negative infinity.
func AbilityModifier(score int) int {
	return floorDiv(score-10, 2)
}

// ProficiencyBonus returns 2 at level 1 and grows by one every four levels.
func ProficiencyBonus(level int) int {
	return 2 + floorDiv(level-1, 4)
}

// ValidateProficiencyLevel rejects anything outside none (0), proficient (1) and expertise (2).
func ValidateProficiencyLevel(level int) error {
	switch level {
	case ProficiencyNone, ProficiencyProficient, ProficiencyExpertise:
		return nil
	default:
		return &ValidationError{
			Message: ErrInvalidProficiencyLevel.Error(),
			Err:     ErrInvalidProficiencyLevel,
		}
	}
}

// SkillTotal is the ability modifier for the skill's ability plus the proficiency
// bonus scaled by the proficiency level.
func SkillTotal(c *Character, skill Skill, proficiencyLevel int) (int, error) {
	if err := ValidateProficiencyLevel(proficiencyLevel); err != nil {
		return 0, err
	}
	score, err := c.Score(skill.Ability)
	if err != nil {
		return 0, err
	}
	return AbilityModifier(score) + ProficiencyBonus(c.Level)*proficiencyLevel, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
