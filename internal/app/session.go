// Package app holds the farmer-facing flows of the command line client:
// validate locally, send, then re-fetch what the screen shows.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"khetbook/internal/cache"
	"khetbook/internal/client"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/location"
	"khetbook/internal/log"
	"khetbook/internal/profile"
)

var (
	// ErrNoProfile means the account has not created its profile yet.
	ErrNoProfile = errors.New("no profile yet")
	// ErrNameRequired rejects a profile draft without a name.
	ErrNameRequired = errors.New("name is required")
)

// API is the remote persistence service. *client.Client implements it.
type API interface {
	RequestOTP(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) error
	Logout() error

	ListCrops(ctx context.Context) ([]crop.Record, error)
	CreateCrop(ctx context.Context, d crop.Draft) (crop.Record, error)
	SetCropStatus(ctx context.Context, id string, status crop.Status) (crop.Record, error)
	DeleteCrop(ctx context.Context, id string) error

	ListRecords(ctx context.Context, kind ledger.Kind, cropID string) ([]ledger.Record, error)
	CreateRecord(ctx context.Context, r ledger.Record) (ledger.Record, error)
	UpdateRecord(ctx context.Context, r ledger.Record) (ledger.Record, error)
	DeleteRecord(ctx context.Context, kind ledger.Kind, id string) error

	GetProfile(ctx context.Context) (profile.FarmerProfile, error)
	CreateProfile(ctx context.Context, p profile.Payload) (profile.FarmerProfile, error)
	UpdateProfile(ctx context.Context, p profile.Payload) (profile.FarmerProfile, error)
}

const profileKey = "me"

// Session is the state shared by every screen of one login: the API, the
// location table in the display language and a read-through cache of the
// farmer's profile. The cache is emptied on login and logout.
type Session struct {
	api       API
	hierarchy *location.Hierarchy
	mapper    *profile.Mapper
	profiles  *cache.LRUCache[profile.FarmerProfile]
	logger    *log.Logger
	now       func() time.Time
}

func NewSession(api API, h *location.Hierarchy, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Discard()
	}
	return &Session{
		api:       api,
		hierarchy: h,
		mapper:    profile.NewMapper(h),
		profiles:  cache.NewLRUCache[profile.FarmerProfile](1, 30*time.Minute),
		logger:    logger.WithComponent(log.ComponentApp),
		now:       time.Now,
	}
}

func (s *Session) Hierarchy() *location.Hierarchy { return s.hierarchy }

func (s *Session) Mapper() *profile.Mapper { return s.mapper }

func (s *Session) RequestCode(ctx context.Context, phone string) error {
	return s.api.RequestOTP(ctx, phone)
}

// Login verifies the code and starts a fresh session.
func (s *Session) Login(ctx context.Context, phone, code string) error {
	if err := s.api.Verify(ctx, phone, code); err != nil {
		return err
	}
	s.profiles.Purge()
	return nil
}

// Logout forgets the session token and everything cached for it.
func (s *Session) Logout() error {
	s.profiles.Purge()
	return s.api.Logout()
}

// Profile returns the farmer's profile, loading it at most once per
// session.
func (s *Session) Profile(ctx context.Context) (profile.FarmerProfile, error) {
	return s.profiles.GetOrLoad(profileKey, func() (profile.FarmerProfile, error) {
		p, err := s.api.GetProfile(ctx)
		var se *client.ServerError
		if errors.As(err, &se) && se.NotFound() {
			return profile.FarmerProfile{}, ErrNoProfile
		}
		return p, err
	})
}

// ProfileDisplay is the profile with labels in the session language.
func (s *Session) ProfileDisplay(ctx context.Context) (profile.Display, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return profile.Display{}, err
	}
	return s.mapper.ToDisplay(p), nil
}

// SaveProfile resolves the draft to keys, then creates the profile or
// updates the existing one.
func (s *Session) SaveProfile(ctx context.Context, d profile.Draft) (profile.FarmerProfile, error) {
	p, err := s.mapper.ToStorage(d)
	if err != nil {
		return profile.FarmerProfile{}, err
	}
	if p.Name == "" {
		return profile.FarmerProfile{}, ErrNameRequired
	}

	_, err = s.Profile(ctx)
	var saved profile.FarmerProfile
	switch {
	case errors.Is(err, ErrNoProfile):
		saved, err = s.api.CreateProfile(ctx, p)
	case err == nil:
		saved, err = s.api.UpdateProfile(ctx, p)
	}
	if err != nil {
		return profile.FarmerProfile{}, fmt.Errorf("save profile: %w", err)
	}
	s.profiles.Set(profileKey, saved)
	return saved, nil
}
