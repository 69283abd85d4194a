// Package repository declares the persistence ports of the server. The
// memory and SQLite backends both implement Store.
package repository

import (
	"context"
	"errors"
	"time"

	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/profile"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Account is a phone-number login.
type Account struct {
	ID        string
	Phone     string
	CreatedAt time.Time
}

// OTPCode is the pending one-time code of a phone number. Only the bcrypt
// hash is stored.
type OTPCode struct {
	Phone     string
	Hash      []byte
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time
}

// RecordFilter narrows a ledger listing. Empty fields match everything.
type RecordFilter struct {
	Kind   ledger.Kind
	CropID string
}

// Ports for the persistence backends.
type (
	AccountStore interface {
		// EnsureAccount returns the account of phone, creating it with id
		// when none exists.
		EnsureAccount(ctx context.Context, phone, id string, now time.Time) (Account, error)
		SaveOTP(ctx context.Context, code OTPCode) error
		GetOTP(ctx context.Context, phone string) (OTPCode, error)
		IncrementOTPAttempts(ctx context.Context, phone string) error
		DeleteOTP(ctx context.Context, phone string) error
	}

	CropStore interface {
		// ListCrops returns the account's crops, newest first.
		ListCrops(ctx context.Context, accountID string) ([]crop.Record, error)
		GetCrop(ctx context.Context, accountID, id string) (crop.Record, error)
		CreateCrop(ctx context.Context, c crop.Record) error
		UpdateCropStatus(ctx context.Context, accountID, id string, status crop.Status) error
		DeleteCrop(ctx context.Context, accountID, id string) error
	}

	LedgerStore interface {
		// ListRecords returns matching records, latest date first.
		ListRecords(ctx context.Context, accountID string, f RecordFilter) ([]ledger.Record, error)
		GetRecord(ctx context.Context, accountID string, kind ledger.Kind, id string) (ledger.Record, error)
		CreateRecord(ctx context.Context, accountID string, r ledger.Record) error
		UpdateRecord(ctx context.Context, accountID string, r ledger.Record) error
		DeleteRecord(ctx context.Context, accountID string, kind ledger.Kind, id string) error
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, accountID string) (profile.FarmerProfile, error)
		// CreateProfile fails with ErrConflict when the account has one.
		CreateProfile(ctx context.Context, p profile.FarmerProfile) error
		UpdateProfile(ctx context.Context, p profile.FarmerProfile) error
	}
)

// Store is the full set of ports a backend provides.
type Store interface {
	AccountStore
	CropStore
	LedgerStore
	ProfileStore
	Close() error
}
