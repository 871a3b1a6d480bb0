package models

import "strings"

type Origin struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Lineages    []OriginLineage `json:"lineages"`
}

type OriginLineage struct {
	ID          int64  `json:"id"`
	OriginID    int64  `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Class struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Subclasses  []Subclass `json:"subclasses"`
}

type Subclass struct {
	ID          int64  `json:"id"`
	ClassID     int64  `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FeatureType says whether a feature hangs off a class or a subclass.
type FeatureType string

const (
	FeatureTypeClass    FeatureType = "class"
	FeatureTypeSubclass FeatureType = "subclass"
)

type Feature struct {
	ID            int64           `json:"id"`
	Type          FeatureType     `json:"type"`
	ClassID       *int64          `json:"class,omitempty"`
	SubclassID    *int64          `json:"subclass,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	LevelRequired int             `json:"level_required"`
	Options       []FeatureOption `json:"options"`
}

type FeatureOption struct {
	ID          int64  `json:"id"`
	FeatureID   int64  `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate enforces the class/subclass linkage rules of a feature.
func (f *Feature) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return newValidationError("feature name is required")
	}
	if f.LevelRequired < 1 {
		return newValidationError("feature %q: level_required must be at least 1", f.Name)
	}
	if f.ClassID != nil && f.SubclassID != nil {
		return newValidationError("feature %q cannot be linked to both a class and a subclass", f.Name)
	}
	switch f.Type {
	case FeatureTypeClass:
		if f.ClassID == nil {
			return newValidationError("class feature %q must be linked to a class", f.Name)
		}
	case FeatureTypeSubclass:
		if f.SubclassID == nil {
			return newValidationError("subclass feature %q must be linked to a subclass", f.Name)
		}
	default:
		return newValidationError("feature %q has unknown type %q", f.Name, string(f.Type))
	}
	return nil
}

// CatalogFeature is a feature whose owner is named instead of identified.
// Subclass features name both the parent class and the subclass.
type CatalogFeature struct {
	Feature
	Class    string
	Subclass string
}

// Catalog is a full set of reference data to import.
type Catalog struct {
	Origins  []Origin
	Classes  []Class
	Features []CatalogFeature
	Skills   []Skill
}

// ImportSummary counts the rows written by a catalog import.
type ImportSummary struct {
	Origins    int `json:"origins"`
	Lineages   int `json:"lineages"`
	Classes    int `json:"classes"`
	Subclasses int `json:"subclasses"`
	Features   int `json:"features"`
	Options    int `json:"options"`
	Skills     int `json:"skills"`
}
