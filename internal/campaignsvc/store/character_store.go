package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CharacterStore struct {
	db *pgxpool.Pool
}

func NewCharacterStore(db *pgxpool.Pool) *CharacterStore {
	return &CharacterStore{db: db}
}

const characterSelect = `
	SELECT ch.id, ch.campaign_id, ch.user_id, u.name, ch.name, ch.level,
	       ch.origin_id, ch.lineage_id, ch.class_id, ch.subclass_id,
	       ch.strength, ch.dexterity, ch.constitution, ch.intelligence, ch.wisdom, ch.charisma,
	       ch.hp, ch.mana, ch.sanity, ch.status, ch.notes, ch.created_at, ch.updated_at,
	       COALESCE((SELECT array_agg(f.feature_id ORDER BY f.feature_id)
	                 FROM character_features f WHERE f.character_id = ch.id), '{}'),
	       COALESCE((SELECT array_agg(o.feature_option_id ORDER BY o.feature_option_id)
	                 FROM character_feature_options o WHERE o.character_id = ch.id), '{}')
	FROM characters ch
	JOIN users u ON u.user_id = ch.user_id
`

func scanCharacter(row pgx.Row) (*models.Character, error) {
	c := &models.Character{}
	err := row.Scan(
		&c.ID,
		&c.CampaignID,
		&c.UserID,
		&c.UserName,
		&c.Name,
		&c.Level,
		&c.OriginID,
		&c.LineageID,
		&c.ClassID,
		&c.SubclassID,
		&c.Strength,
		&c.Dexterity,
		&c.Constitution,
		&c.Intelligence,
		&c.Wisdom,
		&c.Charisma,
		&c.Hp,
		&c.Mana,
		&c.Sanity,
		&c.Status,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.FeatureIDs,
		&c.FeatureOptionIDs,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func loadCharacter(ctx context.Context, q querier, id int64) (*models.Character, error) {
	c, err := scanCharacter(q.QueryRow(ctx, characterSelect+`WHERE ch.id = $1`, id))
	if err != nil {
		return nil, translate(err, "get character")
	}
	return c, nil
}

// lockCharacter takes the row lock that serializes every read-check-write on
// one character, then loads it together with its campaign.
func lockCharacter(ctx context.Context, tx pgx.Tx, id int64) (*models.Character, *models.Campaign, error) {
	var campaignID int64
	err := tx.QueryRow(ctx, `SELECT campaign_id FROM characters WHERE id = $1 FOR UPDATE`, id).Scan(&campaignID)
	if err != nil {
		return nil, nil, translate(err, "lock character")
	}
	c, err := loadCharacter(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	campaign, err := loadCampaign(ctx, tx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	return c, campaign, nil
}

func (s *CharacterStore) queryCharacters(ctx context.Context, where string, args ...any) ([]*models.Character, error) {
	rows, err := s.db.Query(ctx, characterSelect+where+` ORDER BY ch.created_at, ch.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var characters []*models.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character row: %w", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return characters, nil
}

// CreateCharacter inserts a new sheet after authorize approves the campaign,
// checks the lineage against the origin and gives the character a
// proficiency-0 row for every known skill, all in one transaction.
func (s *CharacterStore) CreateCharacter(ctx context.Context, c *models.Character, authorize func(*models.Campaign) error) (*models.Character, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM campaigns WHERE id = $1 FOR SHARE`, c.CampaignID); err != nil {
		return nil, fmt.Errorf("lock campaign %d: %w", c.CampaignID, err)
	}
	campaign, err := loadCampaign(ctx, tx, c.CampaignID)
	if err != nil {
		return nil, err
	}
	if err := authorize(campaign); err != nil {
		return nil, err
	}
	if err := validateReferences(ctx, tx, c); err != nil {
		return nil, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO characters (
			campaign_id, user_id, name, level,
			origin_id, lineage_id, class_id, subclass_id,
			strength, dexterity, constitution, intelligence, wisdom, charisma,
			hp, mana, sanity, status, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id
	`,
		c.CampaignID, int64(c.UserID), c.Name, c.Level,
		c.OriginID, c.LineageID, c.ClassID, c.SubclassID,
		c.Strength, c.Dexterity, c.Constitution, c.Intelligence, c.Wisdom, c.Charisma,
		c.Hp, c.Mana, c.Sanity, string(c.Status), c.Notes,
	).Scan(&id)
	if err != nil {
		return nil, translate(err, "create character")
	}

	if err := replaceChoices(ctx, tx, id, c); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO character_skills (character_id, skill_id)
		SELECT $1, id FROM skills
		ON CONFLICT ON CONSTRAINT unique_character_skill DO NOTHING
	`, id); err != nil {
		return nil, fmt.Errorf("seed character skills: %w", err)
	}

	created, err := loadCharacter(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

func (s *CharacterStore) GetCharacter(ctx context.Context, id int64) (*models.Character, error) {
	return loadCharacter(ctx, s.db, id)
}

// ListCharactersByCampaign lists a campaign's sheets, optionally filtered by status.
func (s *CharacterStore) ListCharactersByCampaign(ctx context.Context, campaignID int64, status *models.Status) ([]*models.Character, error) {
	if status != nil {
		return s.queryCharacters(ctx, `WHERE ch.campaign_id = $1 AND ch.status = $2`, campaignID, string(*status))
	}
	return s.queryCharacters(ctx, `WHERE ch.campaign_id = $1`, campaignID)
}

// ListCharactersForUser lists the user's own sheets plus every sheet in a
// campaign the user owns or plays in.
func (s *CharacterStore) ListCharactersForUser(ctx context.Context, user models.UserID, status *models.Status) ([]*models.Character, error) {
	where := `
	WHERE (ch.user_id = $1
	   OR EXISTS (SELECT 1 FROM campaigns c WHERE c.id = ch.campaign_id AND c.owner_id = $1)
	   OR EXISTS (SELECT 1 FROM campaign_players p WHERE p.campaign_id = ch.campaign_id AND p.user_id = $1))`
	if status != nil {
		return s.queryCharacters(ctx, where+` AND ch.status = $2`, int64(user), string(*status))
	}
	return s.queryCharacters(ctx, where, int64(user))
}

// UpdateCharacter locks the row and hands the current sheet to mutate, which
// returns the sheet to store. Status is not written here.
func (s *CharacterStore) UpdateCharacter(ctx context.Context, id int64, mutate func(*models.Character, *models.Campaign) (*models.Character, error)) (*models.Character, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, campaign, err := lockCharacter(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	updated, err := mutate(current, campaign)
	if err != nil {
		return nil, err
	}
	if err := validateReferences(ctx, tx, updated); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE characters SET
			name = $2, level = $3,
			origin_id = $4, lineage_id = $5, class_id = $6, subclass_id = $7,
			strength = $8, dexterity = $9, constitution = $10,
			intelligence = $11, wisdom = $12, charisma = $13,
			hp = $14, mana = $15, sanity = $16, notes = $17,
			updated_at = now()
		WHERE id = $1
	`,
		id, updated.Name, updated.Level,
		updated.OriginID, updated.LineageID, updated.ClassID, updated.SubclassID,
		updated.Strength, updated.Dexterity, updated.Constitution,
		updated.Intelligence, updated.Wisdom, updated.Charisma,
		updated.Hp, updated.Mana, updated.Sanity, updated.Notes,
	)
	if err != nil {
		return nil, translate(err, "update character")
	}
	if err := replaceChoices(ctx, tx, id, updated); err != nil {
		return nil, err
	}

	stored, err := loadCharacter(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return stored, nil
}

// ChangeStatus runs decide against the locked character. When decide succeeds
// the new status and the returned log entry are committed together; otherwise
// nothing is written.
func (s *CharacterStore) ChangeStatus(ctx context.Context, id int64, decide func(*models.Character, *models.Campaign) (*models.CampaignLog, error)) (*models.Character, *models.CampaignLog, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, campaign, err := lockCharacter(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	entry, err := decide(c, campaign)
	if err != nil {
		return nil, nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE characters SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, string(c.Status)).Scan(&c.UpdatedAt)
	if err != nil {
		return nil, nil, translate(err, "update character status")
	}
	if err := insertLog(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return c, entry, nil
}

func (s *CharacterStore) DeleteCharacter(ctx context.Context, id int64, authorize func(*models.Character, *models.Campaign) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, campaign, err := lockCharacter(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := authorize(c, campaign); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete character %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListCharacterSkills returns the character's skill rows ordered by skill name.
// TotalValue is left for the caller to derive.
func (s *CharacterStore) ListCharacterSkills(ctx context.Context, characterID int64) ([]*models.CharacterSkill, error) {
	rows, err := s.db.Query(ctx, `
		SELECT cs.id, cs.character_id, s.id, s.name, s.ability, cs.proficiency_level
		FROM character_skills cs
		JOIN skills s ON s.id = cs.skill_id
		WHERE cs.character_id = $1
		ORDER BY s.name
	`, characterID)
	if err != nil {
		return nil, fmt.Errorf("list character skills: %w", err)
	}
	defer rows.Close()

	var skills []*models.CharacterSkill
	for rows.Next() {
		cs := &models.CharacterSkill{}
		if err := rows.Scan(&cs.ID, &cs.CharacterID, &cs.Skill.ID, &cs.Skill.Name, &cs.Skill.Ability, &cs.ProficiencyLevel); err != nil {
			return nil, fmt.Errorf("scan character skill row: %w", err)
		}
		skills = append(skills, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return skills, nil
}

// UpdateCharacterSkill sets the proficiency level of an existing row.
// It returns ErrNotFound when the character has no row for that skill.
func (s *CharacterStore) UpdateCharacterSkill(ctx context.Context, characterID, skillID int64, level int) (*models.CharacterSkill, error) {
	cs := &models.CharacterSkill{}
	err := s.db.QueryRow(ctx, `
		UPDATE character_skills cs
		SET proficiency_level = $3
		FROM skills s
		WHERE cs.character_id = $1 AND cs.skill_id = $2 AND s.id = cs.skill_id
		RETURNING cs.id, cs.character_id, s.id, s.name, s.ability, cs.proficiency_level
	`, characterID, skillID, level).Scan(&cs.ID, &cs.CharacterID, &cs.Skill.ID, &cs.Skill.Name, &cs.Skill.Ability, &cs.ProficiencyLevel)
	if err != nil {
		return nil, translate(err, "update character skill")
	}
	return cs, nil
}

// validateReferences enforces the origin/lineage invariant before a sheet is written.
func validateReferences(ctx context.Context, q querier, c *models.Character) error {
	if c.LineageID == nil {
		return nil
	}
	lineage, err := getLineage(ctx, q, *c.LineageID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return c.ValidateLineage(lineage)
}

func replaceChoices(ctx context.Context, tx pgx.Tx, characterID int64, c *models.Character) error {
	if _, err := tx.Exec(ctx, `DELETE FROM character_features WHERE character_id = $1`, characterID); err != nil {
		return fmt.Errorf("clear character features: %w", err)
	}
	if len(c.FeatureIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO character_features (character_id, feature_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, characterID, c.FeatureIDs); err != nil {
			return translate(err, "store character features")
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM character_feature_options WHERE character_id = $1`, characterID); err != nil {
		return fmt.Errorf("clear character feature options: %w", err)
	}
	if len(c.FeatureOptionIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO character_feature_options (character_id, feature_option_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, characterID, c.FeatureOptionIDs); err != nil {
			return translate(err, "store character feature options")
		}
	}
	return nil
}
