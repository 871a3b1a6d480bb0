package service

import (
	"context"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	log "github.com/sirupsen/logrus"
)

type ReferenceStore interface {
	ListOrigins(ctx context.Context) ([]*models.Origin, error)
	ListClasses(ctx context.Context) ([]*models.Class, error)
	ListFeatures(ctx context.Context, classID *int64) ([]*models.Feature, error)
	ListSkills(ctx context.Context) ([]*models.Skill, error)
	Import(ctx context.Context, catalog *models.Catalog) (*models.ImportSummary, error)
}

type ReferenceService struct {
	store ReferenceStore
}

func NewReferenceService(store ReferenceStore) *ReferenceService {
	return &ReferenceService{store: store}
}

func (s *ReferenceService) ListOrigins(ctx context.Context) ([]*models.Origin, error) {
	return s.store.ListOrigins(ctx)
}

func (s *ReferenceService) ListClasses(ctx context.Context) ([]*models.Class, error) {
	return s.store.ListClasses(ctx)
}

func (s *ReferenceService) ListFeatures(ctx context.Context, classID *int64) ([]*models.Feature, error) {
	return s.store.ListFeatures(ctx, classID)
}

func (s *ReferenceService) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	return s.store.ListSkills(ctx)
}

// Import validates every feature up front so that a bad catalog is rejected
// before the transaction starts.
func (s *ReferenceService) Import(ctx context.Context, catalog *models.Catalog) (*models.ImportSummary, error) {
	for _, f := range catalog.Features {
		if err := validateCatalogFeature(f); err != nil {
			return nil, err
		}
	}
	for _, sk := range catalog.Skills {
		if _, err := models.ParseAbility(string(sk.Ability)); err != nil {
			return nil, err
		}
	}

	sum, err := s.store.Import(ctx, catalog)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"origins":  sum.Origins,
		"classes":  sum.Classes,
		"features": sum.Features,
		"skills":   sum.Skills,
	}).Info("reference data imported")
	return sum, nil
}

// validateCatalogFeature checks the owner names before they are resolved to ids.
func validateCatalogFeature(f models.CatalogFeature) error {
	candidate := f.Feature
	candidate.ClassID, candidate.SubclassID = nil, nil
	placeholder := int64(-1)
	switch f.Feature.Type {
	case models.FeatureTypeClass:
		if f.Subclass != "" {
			return &models.ValidationError{Message: "class feature " + f.Name + " cannot name a subclass"}
		}
		if f.Class != "" {
			candidate.ClassID = &placeholder
		}
	case models.FeatureTypeSubclass:
		if f.Subclass != "" && f.Class != "" {
			candidate.SubclassID = &placeholder
		}
	}
	return candidate.Validate()
}
