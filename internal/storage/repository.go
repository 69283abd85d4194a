// Package storage is the SQLite implementation of repository.Store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"khetbook/internal/core"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/log"
	"khetbook/internal/profile"
	"khetbook/internal/repository"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ repository.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway and this keeps
	// "database is locked" out of request paths.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	version, err := migrateSchema(dbPath, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("SQLite repository ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Accounts and one-time codes

func (r *SQLiteRepository) EnsureAccount(ctx context.Context, phone, id string, now time.Time) (repository.Account, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, phone, created_at) VALUES (?, ?, ?) ON CONFLICT (phone) DO NOTHING`,
		id, phone, formatTime(now))
	if err != nil {
		return repository.Account{}, fmt.Errorf("insert account: %w", err)
	}

	var (
		a       repository.Account
		created string
	)
	err = r.db.QueryRowContext(ctx, `SELECT id, phone, created_at FROM accounts WHERE phone = ?`, phone).
		Scan(&a.ID, &a.Phone, &created)
	if err != nil {
		return repository.Account{}, fmt.Errorf("load account: %w", err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return repository.Account{}, err
	}
	return a, nil
}

func (r *SQLiteRepository) SaveOTP(ctx context.Context, code repository.OTPCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_codes (phone, code_hash, expires_at, attempts, created_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (phone) DO UPDATE SET
			code_hash = excluded.code_hash,
			expires_at = excluded.expires_at,
			attempts = 0,
			created_at = excluded.created_at`,
		code.Phone, code.Hash, formatTime(code.ExpiresAt), formatTime(code.CreatedAt))
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetOTP(ctx context.Context, phone string) (repository.OTPCode, error) {
	var (
		c                  repository.OTPCode
		expires, createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT phone, code_hash, expires_at, attempts, created_at FROM otp_codes WHERE phone = ?`, phone).
		Scan(&c.Phone, &c.Hash, &expires, &c.Attempts, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.OTPCode{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.OTPCode{}, fmt.Errorf("get otp: %w", err)
	}
	if c.ExpiresAt, err = parseTime(expires); err != nil {
		return repository.OTPCode{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return repository.OTPCode{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) IncrementOTPAttempts(ctx context.Context, phone string) error {
	err := expectOne(r.db.ExecContext(ctx, `UPDATE otp_codes SET attempts = attempts + 1 WHERE phone = ?`, phone))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("increment otp attempts: %w", err)
	}
	return err
}

func (r *SQLiteRepository) DeleteOTP(ctx context.Context, phone string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE phone = ?`, phone); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// Crops

const cropColumns = `id, account_id, season, year, name, emoji, sub_variety, batch, area_value, area_unit, status, notes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCrop(s scanner) (crop.Record, error) {
	var (
		c       crop.Record
		created string
	)
	err := s.Scan(&c.ID, &c.AccountID, &c.Season, &c.Year, &c.Name, &c.Emoji, &c.SubVariety, &c.Batch,
		&c.Area.Value, &c.Area.Unit, &c.Status, &c.Notes, &created)
	if err != nil {
		return crop.Record{}, err
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return crop.Record{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) ListCrops(ctx context.Context, accountID string) ([]crop.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE account_id = ? ORDER BY created_at DESC, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	defer rows.Close()

	out := []crop.Record{}
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crop: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCrop(ctx context.Context, accountID, id string) (crop.Record, error) {
	c, err := scanCrop(r.db.QueryRowContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE account_id = ? AND id = ?`, accountID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return crop.Record{}, repository.ErrNotFound
	}
	if err != nil {
		return crop.Record{}, fmt.Errorf("get crop: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCrop(ctx context.Context, c crop.Record) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO crops (`+cropColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AccountID, string(c.Season), c.Year, c.Name, c.Emoji, c.SubVariety, c.Batch,
		c.Area.Value, string(c.Area.Unit), string(c.Status), c.Notes, formatTime(c.CreatedAt))
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create crop: %w", err)
	}
	r.logger.DebugContext(ctx, "Crop saved", log.FieldCropID, c.ID, log.FieldAccountID, c.AccountID)
	return nil
}

func (r *SQLiteRepository) UpdateCropStatus(ctx context.Context, accountID, id string, status crop.Status) error {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE crops SET status = ? WHERE account_id = ? AND id = ?`, string(status), accountID, id))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("update crop status: %w", err)
	}
	return err
}

func (r *SQLiteRepository) DeleteCrop(ctx context.Context, accountID, id string) error {
	err := expectOne(r.db.ExecContext(ctx, `DELETE FROM crops WHERE account_id = ? AND id = ?`, accountID, id))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete crop: %w", err)
	}
	return err
}

// Ledger records

const recordColumns = `id, kind, crop_id, category, note, date, total_cents, details, created_at`

func scanRecord(s scanner) (ledger.Record, error) {
	var (
		rec                    ledger.Record
		category, date, detail string
		created                string
		totalCents             int64
	)
	if err := s.Scan(&rec.ID, &rec.Kind, &rec.CropID, &category, &rec.Note, &date, &totalCents, &detail, &created); err != nil {
		return ledger.Record{}, err
	}
	rec.Category = ledger.Category(category)
	rec.Total = core.Money{Cents: totalCents}

	var err error
	if rec.Date, err = core.ParseDate(date); err != nil {
		return ledger.Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return ledger.Record{}, err
	}
	if rec.Details, err = ledger.DecodePayload(rec.Category, []byte(detail)); err != nil {
		return ledger.Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListRecords(ctx context.Context, accountID string, f repository.RecordFilter) ([]ledger.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM ledger_records WHERE account_id = ?`
	args := []any{accountID}
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	if f.CropID != "" {
		query += ` AND crop_id = ?`
		args = append(args, f.CropID)
	}
	query += ` ORDER BY date DESC, created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []ledger.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, accountID string, kind ledger.Kind, id string) (ledger.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM ledger_records WHERE account_id = ? AND kind = ? AND id = ?`, accountID, string(kind), id))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Record{}, repository.ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, accountID string, rec ledger.Record) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO ledger_records (account_id, `+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		accountID, rec.ID, string(rec.Kind), rec.CropID, string(rec.Category), rec.Note, rec.Date.String(), rec.Total.Cents,
		string(details), formatTime(rec.CreatedAt))
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	r.logger.DebugContext(ctx, "Ledger record saved",
		log.FieldRecordID, rec.ID, log.FieldRecordKind, rec.Kind, log.FieldTotalCents, rec.Total.Cents)
	return nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, accountID string, rec ledger.Record) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}
	err = expectOne(r.db.ExecContext(ctx, `
		UPDATE ledger_records
		SET crop_id = ?, category = ?, note = ?, date = ?, total_cents = ?, details = ?
		WHERE account_id = ? AND kind = ? AND id = ?`,
		rec.CropID, string(rec.Category), rec.Note, rec.Date.String(), rec.Total.Cents, string(details),
		accountID, string(rec.Kind), rec.ID))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("update record: %w", err)
	}
	return err
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, accountID string, kind ledger.Kind, id string) error {
	err := expectOne(r.db.ExecContext(ctx,
		`DELETE FROM ledger_records WHERE account_id = ? AND kind = ? AND id = ?`, accountID, string(kind), id))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete record: %w", err)
	}
	return err
}

// Profiles

func (r *SQLiteRepository) GetProfile(ctx context.Context, accountID string) (profile.FarmerProfile, error) {
	var (
		p                profile.FarmerProfile
		created, updated string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT account_id, name, district, taluka, village, land_value, land_unit,
		       water_source, labour_type, has_tractor, analytics_consent, created_at, updated_at
		FROM profiles WHERE account_id = ?`, accountID).
		Scan(&p.AccountID, &p.Name, &p.Location.District, &p.Location.Taluka, &p.Location.Village,
			&p.TotalLand.Value, &p.TotalLand.Unit, &p.WaterSource, &p.LabourType,
			&p.HasTractor, &p.AnalyticsConsent, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.FarmerProfile{}, repository.ErrNotFound
	}
	if err != nil {
		return profile.FarmerProfile{}, fmt.Errorf("get profile: %w", err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return profile.FarmerProfile{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return profile.FarmerProfile{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) CreateProfile(ctx context.Context, p profile.FarmerProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (account_id, name, district, taluka, village, land_value, land_unit,
		                      water_source, labour_type, has_tractor, analytics_consent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AccountID, p.Name, p.Location.District, p.Location.Taluka, p.Location.Village,
		p.TotalLand.Value, string(p.TotalLand.Unit), string(p.WaterSource), string(p.LabourType),
		p.HasTractor, p.AnalyticsConsent, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p profile.FarmerProfile) error {
	err := expectOne(r.db.ExecContext(ctx, `
		UPDATE profiles SET name = ?, district = ?, taluka = ?, village = ?, land_value = ?, land_unit = ?,
		       water_source = ?, labour_type = ?, has_tractor = ?, analytics_consent = ?, updated_at = ?
		WHERE account_id = ?`,
		p.Name, p.Location.District, p.Location.Taluka, p.Location.Village,
		p.TotalLand.Value, string(p.TotalLand.Unit), string(p.WaterSource), string(p.LabourType),
		p.HasTractor, p.AnalyticsConsent, formatTime(p.UpdatedAt), p.AccountID))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("update profile: %w", err)
	}
	return err
}
