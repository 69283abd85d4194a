package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"khetbook/internal/crop"
	"khetbook/internal/log"
	"khetbook/internal/repository"
)

type CropService struct {
	crops    repository.CropStore
	validate *validator.Validate
	logger   *log.Logger
	now      func() time.Time
}

func NewCropService(crops repository.CropStore, logger *log.Logger) *CropService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CropService{
		crops:    crops,
		validate: newValidator(),
		logger:   logger.WithComponent(log.ComponentCrop),
		now:      time.Now,
	}
}

func (s *CropService) List(ctx context.Context, accountID string) ([]crop.Record, error) {
	out, err := s.crops.ListCrops(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	return out, nil
}

// Create registers a new crop cycle. New crops always start active.
func (s *CropService) Create(ctx context.Context, accountID string, d crop.Draft) (crop.Record, error) {
	if err := checkStruct(s.validate, d); err != nil {
		return crop.Record{}, err
	}
	r, err := crop.New(d, s.now())
	if err != nil {
		return crop.Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	r.ID = uuid.NewString()
	r.AccountID = accountID
	if err := s.crops.CreateCrop(ctx, r); err != nil {
		return crop.Record{}, fmt.Errorf("save crop: %w", err)
	}
	s.logger.InfoContext(ctx, "Crop created",
		log.FieldAccountID, accountID, log.FieldCropID, r.ID, "name", r.DisplayName())
	return r, nil
}

// SetStatus moves a crop to target. Any status may follow any other.
func (s *CropService) SetStatus(ctx context.Context, accountID, id string, target crop.Status) (crop.Record, error) {
	r, err := s.crops.GetCrop(ctx, accountID, id)
	if err != nil {
		return crop.Record{}, err
	}
	next, err := crop.SetStatus(r.Status, target)
	if err != nil {
		return crop.Record{}, err
	}
	if err := s.crops.UpdateCropStatus(ctx, accountID, id, next); err != nil {
		return crop.Record{}, fmt.Errorf("update crop status: %w", err)
	}
	s.logger.InfoContext(ctx, "Crop status changed",
		log.FieldCropID, id, "from", r.Status, "to", next)
	r.Status = next
	return r, nil
}

// Delete removes the crop only. Ledger records that reference it are kept.
func (s *CropService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.crops.DeleteCrop(ctx, accountID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Crop deleted", log.FieldAccountID, accountID, log.FieldCropID, id)
	return nil
}
