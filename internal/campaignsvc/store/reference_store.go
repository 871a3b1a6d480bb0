package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferenceStore struct {
	db *pgxpool.Pool
}

func NewReferenceStore(db *pgxpool.Pool) *ReferenceStore {
	return &ReferenceStore{db: db}
}

func getLineage(ctx context.Context, q querier, id int64) (*models.OriginLineage, error) {
	l := &models.OriginLineage{}
	err := q.QueryRow(ctx, `
		SELECT id, origin_id, name, description FROM origin_lineages WHERE id = $1
	`, id).Scan(&l.ID, &l.OriginID, &l.Name, &l.Description)
	if err != nil {
		return nil, translate(err, "get lineage")
	}
	return l, nil
}

func (s *ReferenceStore) ListOrigins(ctx context.Context) ([]*models.Origin, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, o.name, o.description, l.id, l.name, l.description
		FROM origins o
		LEFT JOIN origin_lineages l ON l.origin_id = o.id
		ORDER BY o.name, l.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list origins: %w", err)
	}
	defer rows.Close()

	origins := []*models.Origin{}
	byID := map[int64]*models.Origin{}
	for rows.Next() {
		var (
			o                 models.Origin
			lineageID         *int64
			lineageName, desc *string
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &lineageID, &lineageName, &desc); err != nil {
			return nil, fmt.Errorf("scan origin row: %w", err)
		}
		origin, ok := byID[o.ID]
		if !ok {
			o.Lineages = []models.OriginLineage{}
			origin = &o
			byID[o.ID] = origin
			origins = append(origins, origin)
		}
		if lineageID != nil {
			origin.Lineages = append(origin.Lineages, models.OriginLineage{
				ID:          *lineageID,
				OriginID:    origin.ID,
				Name:        *lineageName,
				Description: *desc,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return origins, nil
}

func (s *ReferenceStore) ListClasses(ctx context.Context) ([]*models.Class, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.name, c.description, sc.id, sc.name, sc.description
		FROM classes c
		LEFT JOIN subclasses sc ON sc.class_id = c.id
		ORDER BY c.name, sc.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	classes := []*models.Class{}
	byID := map[int64]*models.Class{}
	for rows.Next() {
		var (
			c             models.Class
			subID         *int64
			subName, desc *string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &subID, &subName, &desc); err != nil {
			return nil, fmt.Errorf("scan class row: %w", err)
		}
		class, ok := byID[c.ID]
		if !ok {
			c.Subclasses = []models.Subclass{}
			class = &c
			byID[c.ID] = class
			classes = append(classes, class)
		}
		if subID != nil {
			class.Subclasses = append(class.Subclasses, models.Subclass{
				ID:          *subID,
				ClassID:     class.ID,
				Name:        *subName,
				Description: *desc,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return classes, nil
}

// ListFeatures returns features with their options. A non-nil classID keeps
// the class's own features and those of its subclasses.
func (s *ReferenceStore) ListFeatures(ctx context.Context, classID *int64) ([]*models.Feature, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.type, f.class_id, f.subclass_id, f.name, f.description, f.level_required,
		       o.id, o.name, o.description
		FROM features f
		LEFT JOIN feature_options o ON o.feature_id = f.id
		WHERE $1::bigint IS NULL
		   OR f.class_id = $1
		   OR f.subclass_id IN (SELECT id FROM subclasses WHERE class_id = $1)
		ORDER BY f.level_required, f.name, f.id, o.name
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	features := []*models.Feature{}
	byID := map[int64]*models.Feature{}
	for rows.Next() {
		var (
			f                models.Feature
			optID            *int64
			optName, optDesc *string
		)
		err := rows.Scan(&f.ID, &f.Type, &f.ClassID, &f.SubclassID, &f.Name, &f.Description, &f.LevelRequired,
			&optID, &optName, &optDesc)
		if err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		feature, ok := byID[f.ID]
		if !ok {
			f.Options = []models.FeatureOption{}
			feature = &f
			byID[f.ID] = feature
			features = append(features, feature)
		}
		if optID != nil {
			feature.Options = append(feature.Options, models.FeatureOption{
				ID:          *optID,
				FeatureID:   feature.ID,
				Name:        *optName,
				Description: *optDesc,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return features, nil
}

func (s *ReferenceStore) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, ability FROM skills ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	skills := []*models.Skill{}
	for rows.Next() {
		sk := &models.Skill{}
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Ability); err != nil {
			return nil, fmt.Errorf("scan skill row: %w", err)
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return skills, nil
}

// Import upserts the catalog by name in a single transaction. Features are
// resolved against class and subclass names and must pass Feature.Validate.
// Every existing character gains a proficiency-0 row for new skills.
func (s *ReferenceStore) Import(ctx context.Context, catalog *models.Catalog) (*models.ImportSummary, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sum := &models.ImportSummary{}

	for _, o := range catalog.Origins {
		var originID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO origins (name, description) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
			RETURNING id
		`, o.Name, o.Description).Scan(&originID)
		if err != nil {
			return nil, translate(err, "import origin "+o.Name)
		}
		sum.Origins++
		for _, l := range o.Lineages {
			if _, err := tx.Exec(ctx, `
				INSERT INTO origin_lineages (origin_id, name, description) VALUES ($1, $2, $3)
				ON CONFLICT ON CONSTRAINT unique_origin_lineage DO UPDATE SET description = EXCLUDED.description
			`, originID, l.Name, l.Description); err != nil {
				return nil, translate(err, "import lineage "+l.Name)
			}
			sum.Lineages++
		}
	}

	for _, c := range catalog.Classes {
		var classID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO classes (name, description) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
			RETURNING id
		`, c.Name, c.Description).Scan(&classID)
		if err != nil {
			return nil, translate(err, "import class "+c.Name)
		}
		sum.Classes++
		for _, sc := range c.Subclasses {
			if _, err := tx.Exec(ctx, `
				INSERT INTO subclasses (class_id, name, description) VALUES ($1, $2, $3)
				ON CONFLICT ON CONSTRAINT unique_class_subclass DO UPDATE SET description = EXCLUDED.description
			`, classID, sc.Name, sc.Description); err != nil {
				return nil, translate(err, "import subclass "+sc.Name)
			}
			sum.Subclasses++
		}
	}

	for _, cf := range catalog.Features {
		f := cf.Feature
		if err := resolveFeatureOwner(ctx, tx, &f, cf.Class, cf.Subclass); err != nil {
			return nil, err
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		featureID, err := upsertFeature(ctx, tx, &f)
		if err != nil {
			return nil, err
		}
		sum.Features++
		for _, opt := range f.Options {
			if err := upsertFeatureOption(ctx, tx, featureID, opt); err != nil {
				return nil, err
			}
			sum.Options++
		}
	}

	for _, sk := range catalog.Skills {
		if _, err := models.ParseAbility(string(sk.Ability)); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO skills (name, ability) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET ability = EXCLUDED.ability
		`, sk.Name, string(sk.Ability)); err != nil {
			return nil, translate(err, "import skill "+sk.Name)
		}
		sum.Skills++
	}
	if len(catalog.Skills) > 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO character_skills (character_id, skill_id)
			SELECT ch.id, s.id FROM characters ch CROSS JOIN skills s
			ON CONFLICT ON CONSTRAINT unique_character_skill DO NOTHING
		`); err != nil {
			return nil, fmt.Errorf("backfill character skills: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return sum, nil
}

func resolveFeatureOwner(ctx context.Context, tx pgx.Tx, f *models.Feature, className, subclassName string) error {
	f.ClassID, f.SubclassID = nil, nil
	className = strings.TrimSpace(className)
	subclassName = strings.TrimSpace(subclassName)

	if subclassName != "" {
		var id int64
		err := tx.QueryRow(ctx, `
			SELECT sc.id FROM subclasses sc JOIN classes c ON c.id = sc.class_id
			WHERE c.name = $1 AND sc.name = $2
		`, className, subclassName).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &models.ValidationError{Message: fmt.Sprintf("feature %q: unknown subclass %q of class %q", f.Name, subclassName, className)}
			}
			return translate(err, "resolve subclass")
		}
		f.SubclassID = &id
		return nil
	}
	if className != "" {
		var id int64
		if err := tx.QueryRow(ctx, `SELECT id FROM classes WHERE name = $1`, className).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &models.ValidationError{Message: fmt.Sprintf("feature %q: unknown class %q", f.Name, className)}
			}
			return translate(err, "resolve class")
		}
		f.ClassID = &id
	}
	return nil
}

// upsertFeature matches an existing feature on name and owner.
func upsertFeature(ctx context.Context, tx pgx.Tx, f *models.Feature) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		SELECT id FROM features
		WHERE name = $1 AND class_id IS NOT DISTINCT FROM $2 AND subclass_id IS NOT DISTINCT FROM $3
	`, f.Name, f.ClassID, f.SubclassID).Scan(&id)
	switch {
	case err == nil:
		if _, err := tx.Exec(ctx, `
			UPDATE features SET type = $2, description = $3, level_required = $4 WHERE id = $1
		`, id, string(f.Type), f.Description, f.LevelRequired); err != nil {
			return 0, translate(err, "update feature "+f.Name)
		}
		return id, nil
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO features (type, class_id, subclass_id, name, description, level_required)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, string(f.Type), f.ClassID, f.SubclassID, f.Name, f.Description, f.LevelRequired).Scan(&id)
		if err != nil {
			return 0, translate(err, "insert feature "+f.Name)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("find feature %s: %w", f.Name, err)
	}
}

func upsertFeatureOption(ctx context.Context, tx pgx.Tx, featureID int64, opt models.FeatureOption) error {
	tag, err := tx.Exec(ctx, `
		UPDATE feature_options SET description = $3 WHERE feature_id = $1 AND name = $2
	`, featureID, opt.Name, opt.Description)
	if err != nil {
		return translate(err, "update feature option "+opt.Name)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO feature_options (feature_id, name, description) VALUES ($1, $2, $3)
	`, featureID, opt.Name, opt.Description); err != nil {
		return translate(err, "insert feature option "+opt.Name)
	}
	return nil
}
