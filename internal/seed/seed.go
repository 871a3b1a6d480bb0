package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a reference data file.
type File struct {
	Origins  []Origin  `yaml:"origins"`
	Classes  []Class   `yaml:"classes"`
	Features []Feature `yaml:"features"`
	Skills   []Skill   `yaml:"skills"`
}

type Origin struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Lineages    []Lineage `yaml:"lineages"`
}

type Lineage struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Class struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Subclasses  []Subclass `yaml:"subclasses"`
}

type Subclass struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Feature names its owner. A subclass feature names the parent class too.
type Feature struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Type          string   `yaml:"type"`
	Class         string   `yaml:"class"`
	Subclass      string   `yaml:"subclass"`
	LevelRequired int      `yaml:"level_required"`
	Options       []Option `yaml:"options"`
}

type Option struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Skill struct {
	Name    string `yaml:"name"`
	Ability string `yaml:"ability"`
}

// LoadFile reads and converts a reference data file.
func LoadFile(path string) (*models.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Load(bytes.NewReader(raw))
}

// Load decodes YAML into a catalog. Unknown keys are rejected so that typos
// do not silently drop data.
func Load(r io.Reader) (*models.Catalog, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return f.Catalog()
}

// Catalog converts the file into domain types, checking names and abilities.
func (f *File) Catalog() (*models.Catalog, error) {
	c := &models.Catalog{}

	for _, o := range f.Origins {
		if strings.TrimSpace(o.Name) == "" {
			return nil, fmt.Errorf("origin without a name")
		}
		origin := models.Origin{Name: strings.TrimSpace(o.Name), Description: o.Description}
		for _, l := range o.Lineages {
			if strings.TrimSpace(l.Name) == "" {
				return nil, fmt.Errorf("origin %q: lineage without a name", o.Name)
			}
			origin.Lineages = append(origin.Lineages, models.OriginLineage{Name: strings.TrimSpace(l.Name), Description: l.Description})
		}
		c.Origins = append(c.Origins, origin)
	}

	for _, cl := range f.Classes {
		if strings.TrimSpace(cl.Name) == "" {
			return nil, fmt.Errorf("class without a name")
		}
		class := models.Class{Name: strings.TrimSpace(cl.Name), Description: cl.Description}
		for _, sc := range cl.Subclasses {
			if strings.TrimSpace(sc.Name) == "" {
				return nil, fmt.Errorf("class %q: subclass without a name", cl.Name)
			}
			class.Subclasses = append(class.Subclasses, models.Subclass{Name: strings.TrimSpace(sc.Name), Description: sc.Description})
		}
		c.Classes = append(c.Classes, class)
	}

	for _, ft := range f.Features {
		feature := models.CatalogFeature{
			Feature: models.Feature{
				Type:          models.FeatureType(strings.ToLower(strings.TrimSpace(ft.Type))),
				Name:          strings.TrimSpace(ft.Name),
				Description:   ft.Description,
				LevelRequired: ft.LevelRequired,
			},
			Class:    strings.TrimSpace(ft.Class),
			Subclass: strings.TrimSpace(ft.Subclass),
		}
		if feature.LevelRequired == 0 {
			feature.LevelRequired = 1
		}
		if feature.Type == "" {
			feature.Type = models.FeatureTypeClass
			if feature.Subclass != "" {
				feature.Type = models.FeatureTypeSubclass
			}
		}
		for _, opt := range ft.Options {
			feature.Options = append(feature.Options, models.FeatureOption{Name: strings.TrimSpace(opt.Name), Description: opt.Description})
		}
		c.Features = append(c.Features, feature)
	}

	for _, sk := range f.Skills {
		ability, err := models.ParseAbility(sk.Ability)
		if err != nil {
			return nil, fmt.Errorf("skill %q: %w", sk.Name, err)
		}
		if strings.TrimSpace(sk.Name) == "" {
			return nil, fmt.Errorf("skill without a name")
		}
		c.Skills = append(c.Skills, models.Skill{Name: strings.TrimSpace(sk.Name), Ability: ability})
	}

	return c, nil
}
