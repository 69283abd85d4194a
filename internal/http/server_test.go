package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"khetbook/internal/auth"
	"khetbook/internal/location"
	"khetbook/internal/repository/memory"
	"khetbook/internal/services"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testPhone  = "9876543210"
)

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

type testServer struct {
	t      *testing.T
	srv    *Server
	sender *captureSender
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	store := memory.New()
	sender := &captureSender{}
	srv := NewServer(":0", Deps{
		Auth:               auth.NewService(store, sender, testSecret, 5*time.Minute, nil),
		Ledger:             services.NewLedgerService(store, store, nil, nil),
		Crops:              services.NewCropService(store, nil),
		Profiles:           services.NewProfileService(store, location.MustLoad("en"), nil),
		RateLimitPerMinute: rateLimit,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv, sender: sender}
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "192.0.2.1:1234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login() string {
	ts.t.Helper()
	if rec := ts.do(http.MethodPost, "/api/auth/otp", "", `{"phone":"+91 98765 43210"}`); rec.Code != http.StatusAccepted {
		ts.t.Fatalf("otp status = %d: %s", rec.Code, rec.Body)
	}
	rec := ts.do(http.MethodPost, "/api/auth/verify", "", `{"phone":"9876543210","code":"`+ts.sender.code(testPhone)+`"}`)
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("verify status = %d: %s", rec.Code, rec.Body)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(ts.t, rec, &out)
	if out.Token == "" {
		ts.t.Fatal("empty token")
	}
	return out.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	decode(t, rec, &out)
	return out.Message
}

func TestHealthAndHeaders(t *testing.T) {
	ts := newTestServer(t, 0)
	rec := ts.do(http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, 0)
	cases := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/crops", tc.token, "")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if message(t, rec) == "" {
				t.Fatal("expected a message body")
			}
		})
	}
}

func TestAuthErrors(t *testing.T) {
	ts := newTestServer(t, 0)
	if rec := ts.do(http.MethodPost, "/api/auth/otp", "", `{"phone":"12345"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad phone status = %d", rec.Code)
	}
	ts.do(http.MethodPost, "/api/auth/otp", "", `{"phone":"9876543210"}`)
	rec := ts.do(http.MethodPost, "/api/auth/verify", "", `{"phone":"9876543210","code":"000000x"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong code status = %d", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/api/auth/otp", "", `{"phone":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("broken json status = %d", rec.Code)
	}
}

func TestCropEndpoints(t *testing.T) {
	ts := newTestServer(t, 0)
	token := ts.login()

	rec := ts.do(http.MethodGet, "/api/crops", token, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty list = %d %q", rec.Code, rec.Body)
	}

	rec = ts.do(http.MethodPost, "/api/crops", token,
		`{"season":"kharif","year":2024,"name":"cotton","batch":"A","areaValue":2,"areaUnit":"acre"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	var c struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &c)
	if c.ID == "" || c.Status != "active" {
		t.Fatalf("unexpected crop %+v", c)
	}

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		want   string
	}{
		{"move to harvested", "/api/crops/" + c.ID + "/status", `{"status":"harvested"}`, http.StatusOK, "harvested"},
		{"back to active", "/api/crops/" + c.ID + "/status", `{"status":"active"}`, http.StatusOK, "active"},
		{"unknown status", "/api/crops/" + c.ID + "/status", `{"status":"sold"}`, http.StatusBadRequest, ""},
		{"unknown crop", "/api/crops/missing/status", `{"status":"closed"}`, http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(http.MethodPatch, tc.path, token, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.status, rec.Body)
			}
			if tc.want != "" {
				var got struct {
					Status string `json:"status"`
				}
				decode(t, rec, &got)
				if got.Status != tc.want {
					t.Fatalf("crop status = %q, want %q", got.Status, tc.want)
				}
			}
		})
	}

	if rec := ts.do(http.MethodPost, "/api/crops", token, `{"season":"monsoon","year":2024,"name":"x","areaValue":1,"areaUnit":"acre"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid crop = %d", rec.Code)
	}
	if rec := ts.do(http.MethodDelete, "/api/crops/"+c.ID, token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := ts.do(http.MethodDelete, "/api/crops/"+c.ID, token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d", rec.Code)
	}
}

func TestExpenseEndpoints(t *testing.T) {
	ts := newTestServer(t, 0)
	token := ts.login()

	rec := ts.do(http.MethodPost, "/api/crops", token,
		`{"season":"rabi","year":2024,"name":"wheat","areaValue":1,"areaUnit":"acre"}`)
	var c struct {
		ID string `json:"id"`
	}
	decode(t, rec, &c)

	body := `{"category":"machinery","cropId":"` + c.ID + `","date":"2024-07-10","total":1,` +
		`"details":{"machineType":"Tractor","hours":3,"ratePerHour":800}}`
	rec = ts.do(http.MethodPost, "/api/expenses", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	var created struct {
		ID    string  `json:"id"`
		Kind  string  `json:"kind"`
		Total float64 `json:"total"`
	}
	decode(t, rec, &created)
	if created.ID == "" || created.Kind != "expense" || created.Total != 2400 {
		t.Fatalf("unexpected record %+v", created)
	}

	rejects := []struct {
		name string
		body string
		msg  string
	}{
		{"missing crop", `{"category":"seed","details":{"seedName":"BT","quantityKg":2,"totalCost":900}}`, "Please enter Crop"},
		{"income category", `{"category":"subsidy","cropId":"` + c.ID + `","details":{"schemeName":"PM-KISAN","amount":2000}}`, "Please choose a category"},
		{"unknown crop", `{"category":"machinery","cropId":"nope","details":{"machineType":"Tractor","hours":1,"ratePerHour":800}}`, ""},
		{"foreign detail field", `{"category":"machinery","cropId":"` + c.ID + `","details":{"machineType":"Tractor","hours":1,"ratePerHour":800,"days":2}}`, ""},
		{"not json", `{"category":`, ""},
	}
	for _, tc := range rejects {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/expenses", token, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
			if tc.msg != "" && message(t, rec) != tc.msg {
				t.Fatalf("message = %q, want %q", message(t, rec), tc.msg)
			}
		})
	}

	rec = ts.do(http.MethodGet, "/api/expenses?cropId="+c.ID, token, "")
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("filtered list has %d records", len(list))
	}
	rec = ts.do(http.MethodGet, "/api/expenses?cropId=other", token, "")
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Fatalf("foreign crop filter returned %d records", len(list))
	}

	if rec := ts.do(http.MethodGet, "/api/incomes/"+created.ID, token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expense readable as income: %d", rec.Code)
	}
	if rec := ts.do(http.MethodDelete, "/api/expenses/"+created.ID, token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := ts.do(http.MethodDelete, "/api/expenses/"+created.ID, token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d", rec.Code)
	}
}

func TestIncomeEndpoints(t *testing.T) {
	ts := newTestServer(t, 0)
	token := ts.login()

	rec := ts.do(http.MethodPost, "/api/incomes", token,
		`{"category":"crop_sale","date":"2024-11-02","details":{"buyerName":"APMC","quantityQuintal":12.5,"ratePerQuintal":7000}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	var created struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
	}
	decode(t, rec, &created)
	if created.Total != 87500 {
		t.Fatalf("total = %v, want 87500", created.Total)
	}

	rec = ts.do(http.MethodPut, "/api/incomes/"+created.ID, token,
		`{"category":"other","date":"2024-11-03","details":{"source":"Scrap","amount":450.5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body)
	}

	rec = ts.do(http.MethodGet, "/api/incomes/"+created.ID, token, "")
	var got struct {
		ID       string  `json:"id"`
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}
	decode(t, rec, &got)
	if got.ID != created.ID || got.Category != "other" || got.Total != 450.5 {
		t.Fatalf("unexpected income %+v", got)
	}

	if rec := ts.do(http.MethodPut, "/api/incomes/missing", token,
		`{"category":"other","details":{"source":"x","amount":1}}`); rec.Code != http.StatusNotFound {
		t.Fatalf("update missing = %d", rec.Code)
	}
}

func TestRecordsAreScopedToAccount(t *testing.T) {
	ts := newTestServer(t, 0)
	token := ts.login()
	rec := ts.do(http.MethodPost, "/api/incomes", token,
		`{"category":"subsidy","details":{"schemeName":"PM-KISAN","amount":2000}}`)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	other, err := auth.SignToken([]byte(testSecret), "someone-else", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if rec := ts.do(http.MethodGet, "/api/incomes/"+created.ID, other, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("other account read = %d", rec.Code)
	}
}

func TestProfileEndpoints(t *testing.T) {
	ts := newTestServer(t, 0)
	token := ts.login()
	body := `{"name":"Sunita","location":{"district":"pune","taluka":"haveli","village":"wagholi"},` +
		`"totalLand":{"value":3,"unit":"acre"},"waterSource":"well","labourType":"family","hasTractor":true}`

	steps := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"none yet", http.MethodGet, "", http.StatusNotFound},
		{"create", http.MethodPost, body, http.StatusCreated},
		{"create twice", http.MethodPost, body, http.StatusConflict},
		{"update", http.MethodPut, strings.Replace(body, `"well"`, `"canal"`, 1), http.StatusOK},
		{"stale location", http.MethodPut, strings.Replace(body, `"haveli"`, `"niphad"`, 1), http.StatusBadRequest},
		{"missing name", http.MethodPut, strings.Replace(body, `"Sunita"`, `""`, 1), http.StatusBadRequest},
		{"read", http.MethodGet, "", http.StatusOK},
	}
	for _, st := range steps {
		rec := ts.do(st.method, "/api/profile", token, st.body)
		if rec.Code != st.status {
			t.Fatalf("%s: status = %d, want %d: %s", st.name, rec.Code, st.status, rec.Body)
		}
	}

	rec := ts.do(http.MethodGet, "/api/profile", token, "")
	var p struct {
		WaterSource string `json:"waterSource"`
	}
	decode(t, rec, &p)
	if p.WaterSource != "canal" {
		t.Fatalf("waterSource = %q, want canal", p.WaterSource)
	}
}

func TestLocations(t *testing.T) {
	ts := newTestServer(t, 0)
	cases := []struct {
		name  string
		path  string
		lang  string
		level string
		first string
	}{
		{"regions", "/api/locations", "", "region", "pune"},
		{"sub-regions", "/api/locations?region=pune", "", "subregion", ""},
		{"settlements", "/api/locations?region=pune&subRegion=haveli", "", "settlement", ""},
		{"marathi via header", "/api/locations", "mr-IN,en;q=0.5", "region", "pune"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.lang != "" {
				req.Header.Set("Accept-Language", tc.lang)
			}
			rec := httptest.NewRecorder()
			ts.srv.Handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var out locationsResponse
			decode(t, rec, &out)
			if out.Level != tc.level || len(out.Entries) == 0 {
				t.Fatalf("unexpected response %+v", out)
			}
			if tc.first != "" && out.Entries[0].Key != tc.first {
				t.Fatalf("first key = %q, want %q", out.Entries[0].Key, tc.first)
			}
		})
	}

	rec := ts.do(http.MethodGet, "/api/locations?lang=mr", "", "")
	var out locationsResponse
	decode(t, rec, &out)
	if out.Language != "mr" || out.Entries[0].Label != "पुणे" {
		t.Fatalf("marathi response %+v", out)
	}

	rec = ts.do(http.MethodGet, "/api/locations?region=atlantis", "", "")
	decode(t, rec, &out)
	if out.Entries == nil || len(out.Entries) != 0 {
		t.Fatalf("unknown region entries = %#v", out.Entries)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		if rec := ts.do(http.MethodGet, "/api/locations", "", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := ts.do(http.MethodGet, "/api/locations", "", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if rec := ts.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz is not rate limited, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, 0)
	rec := ts.do(http.MethodGet, "/api/nothing", "", "")
	if rec.Code != http.StatusNotFound || message(t, rec) != "not found" {
		t.Fatalf("unknown route = %d %s", rec.Code, rec.Body)
	}
}
