// Package auth implements phone login with one-time codes and the signed
// session tokens handed out after verification.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"khetbook/internal/log"
	"khetbook/internal/repository"
)

const (
	codeDigits  = 6
	maxAttempts = 5
)

var (
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
)

// Sender delivers a code to a phone.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log. It stands in for an SMS gateway.
type LogSender struct {
	Logger *log.Logger
}

func (s LogSender) SendOTP(ctx context.Context, phone, code string) error {
	s.Logger.InfoContext(ctx, "One-time code issued", "phone", maskPhone(phone), "code", code)
	return nil
}

type Service struct {
	accounts repository.AccountStore
	sender   Sender
	secret   []byte
	codeTTL  time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewService(accounts repository.AccountStore, sender Sender, secret string, codeTTL time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentAuth)
	if sender == nil {
		sender = LogSender{Logger: logger}
	}
	return &Service{
		accounts: accounts,
		sender:   sender,
		secret:   []byte(secret),
		codeTTL:  codeTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// NormalizePhone reduces an Indian mobile number to its ten digits. A +91,
// 91 or 0 prefix and spaces or dashes are accepted.
func NormalizePhone(s string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		case r == '+' && i == 0:
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 || digits[0] < '6' {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// RequestOTP issues a fresh code for phone, replacing any pending one.
func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	now := s.now().UTC()
	if err := s.accounts.SaveOTP(ctx, repository.OTPCode{
		Phone:     phone,
		Hash:      hash,
		ExpiresAt: now.Add(s.codeTTL),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

// Verify checks code against the pending one for phone. On success the code
// is consumed, the account is created if needed and a session token is
// returned.
func (s *Service) Verify(ctx context.Context, phone, code string) (string, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	pending, err := s.accounts.GetOTP(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCode
	}
	if err != nil {
		return "", fmt.Errorf("load code: %w", err)
	}

	now := s.now().UTC()
	if now.After(pending.ExpiresAt) {
		_ = s.accounts.DeleteOTP(ctx, phone)
		return "", ErrInvalidCode
	}
	if pending.Attempts >= maxAttempts {
		_ = s.accounts.DeleteOTP(ctx, phone)
		return "", ErrTooManyAttempts
	}
	if bcrypt.CompareHashAndPassword(pending.Hash, []byte(strings.TrimSpace(code))) != nil {
		if err := s.accounts.IncrementOTPAttempts(ctx, phone); err != nil {
			return "", fmt.Errorf("count attempt: %w", err)
		}
		s.logger.WarnContext(ctx, "Wrong one-time code", "phone", maskPhone(phone), "attempt", pending.Attempts+1)
		return "", ErrInvalidCode
	}

	if err := s.accounts.DeleteOTP(ctx, phone); err != nil {
		return "", fmt.Errorf("consume code: %w", err)
	}
	acct, err := s.accounts.EnsureAccount(ctx, phone, uuid.NewString(), now)
	if err != nil {
		return "", fmt.Errorf("ensure account: %w", err)
	}
	token, err := SignToken(s.secret, acct.ID, now)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	s.logger.InfoContext(ctx, "Login verified", log.FieldAccountID, acct.ID)
	return token, nil
}

// Authenticate resolves a bearer token to its account id.
func (s *Service) Authenticate(token string) (string, error) {
	return ParseToken(s.secret, token)
}

func generateCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
