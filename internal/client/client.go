// Package client talks to the khetbook persistence API. Every call is a
// single round trip bounded by the client timeout; nothing is retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/log"
	"khetbook/internal/profile"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
	session *SessionStore
	logger  *log.Logger
}

func New(baseURL string, timeout time.Duration, session *SessionStore, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: session,
		logger:  logger.WithComponent(log.ComponentClient),
	}
}

// do sends in as JSON and decodes the response into out. Either may be nil.
func (c *Client) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token, err := c.session.Load()
		if errors.Is(err, ErrNoSession) {
			return ErrNotLoggedIn
		}
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		te := classify(op, err)
		c.logger.DebugContext(ctx, "Request failed", log.FieldOperation, op, "kind", te.Kind.String(), log.FieldError, err)
		return te
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classify(op, err)
	}
	c.logger.DebugContext(ctx, "Request completed",
		log.FieldOperation, op,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serverError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// RequestOTP asks the server to send a login code to phone.
func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/otp", false, map[string]string{"phone": phone}, nil)
}

// Verify exchanges the code for a session token and stores it.
func (c *Client) Verify(ctx context.Context, phone, code string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify", false, map[string]string{"phone": phone, "code": code}, &out); err != nil {
		return err
	}
	if out.Token == "" {
		return &ServerError{Status: http.StatusOK, Message: genericServerMessage}
	}
	return c.session.Save(out.Token)
}

// Logout forgets the session token.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) LoggedIn() bool {
	_, err := c.session.Load()
	return err == nil
}

func (c *Client) ListCrops(ctx context.Context) ([]crop.Record, error) {
	var out []crop.Record
	if err := c.do(ctx, http.MethodGet, "/api/crops", true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCrop(ctx context.Context, d crop.Draft) (crop.Record, error) {
	var out crop.Record
	err := c.do(ctx, http.MethodPost, "/api/crops", true, d, &out)
	return out, err
}

func (c *Client) SetCropStatus(ctx context.Context, id string, status crop.Status) (crop.Record, error) {
	var out crop.Record
	err := c.do(ctx, http.MethodPatch, "/api/crops/"+url.PathEscape(id)+"/status", true, map[string]crop.Status{"status": status}, &out)
	return out, err
}

func (c *Client) DeleteCrop(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/crops/"+url.PathEscape(id), true, nil, nil)
}

func recordsPath(kind ledger.Kind) string {
	if kind == ledger.KindIncome {
		return "/api/incomes"
	}
	return "/api/expenses"
}

// ListRecords lists expenses or incomes, optionally only those of cropID.
func (c *Client) ListRecords(ctx context.Context, kind ledger.Kind, cropID string) ([]ledger.Record, error) {
	path := recordsPath(kind)
	if cropID != "" {
		path += "?" + url.Values{"cropId": {cropID}}.Encode()
	}
	var out []ledger.Record
	if err := c.do(ctx, http.MethodGet, path, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRecord(ctx context.Context, kind ledger.Kind, id string) (ledger.Record, error) {
	var out ledger.Record
	err := c.do(ctx, http.MethodGet, recordsPath(kind)+"/"+url.PathEscape(id), true, nil, &out)
	return out, err
}

func (c *Client) CreateRecord(ctx context.Context, r ledger.Record) (ledger.Record, error) {
	var out ledger.Record
	err := c.do(ctx, http.MethodPost, recordsPath(r.Kind), true, r, &out)
	return out, err
}

func (c *Client) UpdateRecord(ctx context.Context, r ledger.Record) (ledger.Record, error) {
	var out ledger.Record
	err := c.do(ctx, http.MethodPut, recordsPath(r.Kind)+"/"+url.PathEscape(r.ID), true, r, &out)
	return out, err
}

func (c *Client) DeleteRecord(ctx context.Context, kind ledger.Kind, id string) error {
	return c.do(ctx, http.MethodDelete, recordsPath(kind)+"/"+url.PathEscape(id), true, nil, nil)
}

// GetProfile returns the caller's profile; a *ServerError with NotFound
// reports that none exists yet.
func (c *Client) GetProfile(ctx context.Context) (profile.FarmerProfile, error) {
	var out profile.FarmerProfile
	err := c.do(ctx, http.MethodGet, "/api/profile", true, nil, &out)
	return out, err
}

func (c *Client) CreateProfile(ctx context.Context, p profile.Payload) (profile.FarmerProfile, error) {
	var out profile.FarmerProfile
	err := c.do(ctx, http.MethodPost, "/api/profile", true, p, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, p profile.Payload) (profile.FarmerProfile, error) {
	var out profile.FarmerProfile
	err := c.do(ctx, http.MethodPut, "/api/profile", true, p, &out)
	return out, err
}
