package culvert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Service applies registry business rules on top of the repository:
// boundary validation of identifying fields and condition ratings.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates the culvert registry service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates and registers a new culvert.
func (s *Service) Create(ctx context.Context, c *Culvert) error {
	if err := validate(c); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}

	s.logger.Info("culvert registered",
		"culvert_id", c.ID,
		"serial_number", c.SerialNumber,
		"address", c.Address,
	)
	return nil
}

// Get retrieves a culvert by ID.
func (s *Service) Get(ctx context.Context, id string) (*Culvert, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all registered culverts, or those matching an address
// fragment when one is given.
func (s *Service) List(ctx context.Context, addressFragment string) ([]Culvert, error) {
	if strings.TrimSpace(addressFragment) != "" {
		return s.repo.SearchByAddress(ctx, addressFragment)
	}
	return s.repo.List(ctx)
}

// Update validates and replaces an existing culvert record.
func (s *Service) Update(ctx context.Context, c *Culvert) error {
	if c.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be blank"}
	}
	if err := validate(c); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return err
	}

	s.logger.Info("culvert updated", "culvert_id", c.ID)
	return nil
}

// Delete removes a culvert record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("culvert deleted", "culvert_id", id)
	return nil
}

// Count returns the number of registered culverts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// validate applies the boundary rules shared by create and update.
func validate(c *Culvert) error {
	if strings.TrimSpace(c.Address) == "" {
		return &ValidationError{Field: "address", Reason: "must not be blank"}
	}
	if strings.TrimSpace(c.SerialNumber) == "" {
		return &ValidationError{Field: "serial_number", Reason: "must not be blank"}
	}

	ratings := []struct {
		name  string
		value *float64
	}{
		{"strength_rating", c.StrengthRating},
		{"safety_rating", c.SafetyRating},
		{"maintainability_rating", c.MaintainabilityRating},
		{"general_condition_rating", c.GeneralConditionRating},
	}
	for _, r := range ratings {
		if r.value == nil {
			continue
		}
		if *r.value < minRating || *r.value > maxRating {
			return &ValidationError{
				Field:  r.name,
				Reason: fmt.Sprintf("must be between %.1f and %.1f", minRating, maxRating),
			}
		}
	}

	return nil
}
