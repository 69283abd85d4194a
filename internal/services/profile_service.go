package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"khetbook/internal/location"
	"khetbook/internal/log"
	"khetbook/internal/profile"
	"khetbook/internal/repository"
)

type ProfileService struct {
	profiles  repository.ProfileStore
	hierarchy *location.Hierarchy
	validate  *validator.Validate
	logger    *log.Logger
	now       func() time.Time
}

func NewProfileService(profiles repository.ProfileStore, h *location.Hierarchy, logger *log.Logger) *ProfileService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ProfileService{
		profiles:  profiles,
		hierarchy: h,
		validate:  newValidator(),
		logger:    logger.WithComponent(log.ComponentProfile),
		now:       time.Now,
	}
}

func (s *ProfileService) Get(ctx context.Context, accountID string) (profile.FarmerProfile, error) {
	return s.profiles.GetProfile(ctx, accountID)
}

// Create stores the account's only profile. A second call fails with
// repository.ErrConflict.
func (s *ProfileService) Create(ctx context.Context, accountID string, p profile.Payload) (profile.FarmerProfile, error) {
	if err := s.check(p); err != nil {
		return profile.FarmerProfile{}, err
	}
	now := s.now().UTC()
	fp := profile.FarmerProfile{Payload: p, AccountID: accountID, CreatedAt: now, UpdatedAt: now}
	if err := s.profiles.CreateProfile(ctx, fp); err != nil {
		return profile.FarmerProfile{}, fmt.Errorf("create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Profile created", log.FieldAccountID, accountID)
	return fp, nil
}

func (s *ProfileService) Update(ctx context.Context, accountID string, p profile.Payload) (profile.FarmerProfile, error) {
	if err := s.check(p); err != nil {
		return profile.FarmerProfile{}, err
	}
	existing, err := s.profiles.GetProfile(ctx, accountID)
	if err != nil {
		return profile.FarmerProfile{}, err
	}
	fp := profile.FarmerProfile{
		Payload:   p,
		AccountID: accountID,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.profiles.UpdateProfile(ctx, fp); err != nil {
		return profile.FarmerProfile{}, fmt.Errorf("update profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Profile updated", log.FieldAccountID, accountID)
	return fp, nil
}

// check validates field constraints and that the location keys form an
// existing district/taluka/village chain.
func (s *ProfileService) check(p profile.Payload) error {
	if err := checkStruct(s.validate, p); err != nil {
		return err
	}
	if err := s.hierarchy.Validate(p.Location.Path()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
