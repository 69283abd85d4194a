package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"khetbook/internal/auth"
	apphttp "khetbook/internal/http"
	"khetbook/internal/location"
	"khetbook/internal/repository/memory"
	"khetbook/internal/services"
)

const testPhone = "9876543210"

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *captureSender) SendOTP(_ context.Context, phone, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[phone] = code
	return nil
}

func (c *captureSender) code(phone string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[phone]
}

type harness struct {
	t       *testing.T
	url     string
	session string
	sender  *captureSender
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	sender := &captureSender{}
	srv := apphttp.NewServer(":0", apphttp.Deps{
		Auth:               auth.NewService(store, sender, "0123456789abcdef0123456789abcdef", 5*time.Minute, nil),
		Ledger:             services.NewLedgerService(store, store, nil, nil),
		Crops:              services.NewCropService(store, nil),
		Profiles:           services.NewProfileService(store, location.MustLoad("en"), nil),
		RateLimitPerMinute: 1000,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return &harness{
		t:       t,
		url:     ts.URL,
		session: filepath.Join(t.TempDir(), "session"),
		sender:  sender,
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--api-url", h.url, "--session", h.session, "--lang", "en"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("khetbook %s: %v (%s)", strings.Join(args, " "), err, userMessage(err))
	}
	return out
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("login", testPhone)
	code := h.sender.code(testPhone)
	if code == "" {
		h.t.Fatal("no code captured")
	}
	h.mustRun("verify", testPhone, code)
}

// firstID returns the first column of the first data row of a table.
func firstID(t *testing.T, out string) string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("no rows in %q", out)
	}
	return strings.Fields(lines[1])[0]
}

func TestRequiresLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("crops", "list")
	if err == nil {
		t.Fatal("expected an error without a session")
	}
	if got := userMessage(err); got != "Please log in first." {
		t.Fatalf("message = %q", got)
	}
}

func TestLocations(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("locations")
	if !strings.Contains(out, "pune") || !strings.Contains(out, "Nashik") {
		t.Fatalf("districts missing: %s", out)
	}
	out = h.mustRun("locations", "Pune", "Haveli")
	if !strings.Contains(out, "Wagholi") {
		t.Fatalf("villages missing: %s", out)
	}
	out = h.mustRun("locations", "atlantis")
	if strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Fatalf("unknown district should list nothing: %s", out)
	}
}

func TestFarmerWorkflow(t *testing.T) {
	h := newHarness(t)
	h.login()

	if _, err := h.run("profile", "show"); err == nil || !strings.Contains(userMessage(err), "No profile yet") {
		t.Fatalf("profile show before set: %v", err)
	}
	h.mustRun("profile", "set", "--name", "Sunita", "--district", "Pune", "--taluka", "Haveli",
		"--village", "Wagholi", "--land", "3", "--water", "well", "--labour", "family")
	h.mustRun("profile", "set", "--water", "Canal")
	out := h.mustRun("profile", "show")
	for _, want := range []string{"Sunita", "Wagholi", "Canal", "3 acre"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile missing %q:\n%s", want, out)
		}
	}

	out = h.mustRun("crops", "add", "cotton", "--season", "kharif", "--year", "2024", "--area", "2", "--batch", "A")
	if !strings.Contains(out, "Cotton 🌱 (A)") {
		t.Fatalf("crop not listed:\n%s", out)
	}
	cropID := firstID(t, out)

	_, err := h.run("expense", "add", "machinery", "machineType=tractor", "hours=3", "ratePerHour=800")
	if err == nil || userMessage(err) != "Please enter Crop" {
		t.Fatalf("expense without crop: %v", err)
	}

	out = h.mustRun("expense", "add", "machinery", "--crop", cropID, "--date", "2024-07-01",
		"machineType=tractor", "hours=3", "ratePerHour=800")
	if !strings.Contains(out, "₹2400.00") {
		t.Fatalf("derived total missing:\n%s", out)
	}
	h.mustRun("income", "add", "crop_sale", "--crop", cropID, "quantityQuintal=10", "ratePerQuintal=7000")

	out = h.mustRun("summary")
	for _, want := range []string{"₹2400.00", "₹70000.00", "₹67600.00", "Cotton"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}

	xlsx := filepath.Join(t.TempDir(), "ledger.xlsx")
	h.mustRun("export", "--out", xlsx)

	out = h.mustRun("crops", "next", cropID)
	if !strings.Contains(out, "harvested") {
		t.Fatalf("crop not advanced:\n%s", out)
	}

	h.mustRun("logout")
	if _, err := h.run("summary"); err == nil {
		t.Fatal("expected an error after logout")
	}
}

func TestParseFields(t *testing.T) {
	got, err := parseFields([]string{"hours=3", " ratePerHour =800", "note=a=b"})
	if err != nil {
		t.Fatal(err)
	}
	if got["hours"] != "3" || got["ratePerHour"] != "800" || got["note"] != "a=b" {
		t.Fatalf("parseFields = %v", got)
	}
	if _, err := parseFields([]string{"hours"}); err == nil {
		t.Fatal("expected error for a bare word")
	}
}

func TestFieldsCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("expense", "fields", "labour")
	for _, want := range []string{"mode", "daily", "numberOfPeople", "contractAmount"} {
		if !strings.Contains(out, want) {
			t.Fatalf("fields missing %q:\n%s", want, out)
		}
	}
	if _, err := h.run("income", "fields", "fuel"); err == nil {
		t.Fatal("expected unknown category error")
	}
}
