// Package memory is the in-process Store used for development and tests.
// Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/profile"
	"khetbook/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	accounts map[string]repository.Account // by phone
	otps     map[string]repository.OTPCode
	crops    map[string][]crop.Record
	records  map[string][]ledger.Record
	profiles map[string]profile.FarmerProfile
}

func New() *Store {
	return &Store{
		accounts: map[string]repository.Account{},
		otps:     map[string]repository.OTPCode{},
		crops:    map[string][]crop.Record{},
		records:  map[string][]ledger.Record{},
		profiles: map[string]profile.FarmerProfile{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) EnsureAccount(_ context.Context, phone, id string, now time.Time) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[phone]; ok {
		return a, nil
	}
	a := repository.Account{ID: id, Phone: phone, CreatedAt: now}
	s.accounts[phone] = a
	return a, nil
}

func (s *Store) SaveOTP(_ context.Context, code repository.OTPCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	code.Hash = append([]byte(nil), code.Hash...)
	s.otps[code.Phone] = code
	return nil
}

func (s *Store) GetOTP(_ context.Context, phone string) (repository.OTPCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.otps[phone]
	if !ok {
		return repository.OTPCode{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *Store) IncrementOTPAttempts(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.otps[phone]
	if !ok {
		return repository.ErrNotFound
	}
	c.Attempts++
	s.otps[phone] = c
	return nil
}

func (s *Store) DeleteOTP(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, phone)
	return nil
}

func (s *Store) ListCrops(_ context.Context, accountID string) ([]crop.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]crop.Record(nil), s.crops[accountID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetCrop(_ context.Context, accountID, id string) (crop.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.crops[accountID] {
		if c.ID == id {
			return c, nil
		}
	}
	return crop.Record{}, repository.ErrNotFound
}

func (s *Store) CreateCrop(_ context.Context, c crop.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.crops[c.AccountID] {
		if existing.ID == c.ID {
			return repository.ErrConflict
		}
	}
	s.crops[c.AccountID] = append(s.crops[c.AccountID], c)
	return nil
}

func (s *Store) UpdateCropStatus(_ context.Context, accountID, id string, status crop.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.crops[accountID]
	for i := range list {
		if list[i].ID == id {
			list[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Store) DeleteCrop(_ context.Context, accountID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.crops[accountID]
	for i := range list {
		if list[i].ID == id {
			s.crops[accountID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Store) ListRecords(_ context.Context, accountID string, f repository.RecordFilter) ([]ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Record
	for _, r := range s.records[accountID] {
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if f.CropID != "" && r.CropID != f.CropID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) find(accountID string, kind ledger.Kind, id string) int {
	for i, r := range s.records[accountID] {
		if r.ID == id && r.Kind == kind {
			return i
		}
	}
	return -1
}

func (s *Store) GetRecord(_ context.Context, accountID string, kind ledger.Kind, id string) (ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(accountID, kind, id); i >= 0 {
		return s.records[accountID][i], nil
	}
	return ledger.Record{}, repository.ErrNotFound
}

func (s *Store) CreateRecord(_ context.Context, accountID string, r ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(accountID, r.Kind, r.ID) >= 0 {
		return repository.ErrConflict
	}
	s.records[accountID] = append(s.records[accountID], r)
	return nil
}

func (s *Store) UpdateRecord(_ context.Context, accountID string, r ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(accountID, r.Kind, r.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.records[accountID][i] = r
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, accountID string, kind ledger.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(accountID, kind, id)
	if i < 0 {
		return repository.ErrNotFound
	}
	list := s.records[accountID]
	s.records[accountID] = append(list[:i:i], list[i+1:]...)
	return nil
}

func (s *Store) GetProfile(_ context.Context, accountID string) (profile.FarmerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return profile.FarmerProfile{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) CreateProfile(_ context.Context, p profile.FarmerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.AccountID]; ok {
		return repository.ErrConflict
	}
	s.profiles[p.AccountID] = p
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, p profile.FarmerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.profiles[p.AccountID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	s.profiles[p.AccountID] = p
	return nil
}
