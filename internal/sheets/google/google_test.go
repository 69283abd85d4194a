package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("expected missing spreadsheet error, got %v", err)
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	t.Run("inline json wins", func(t *testing.T) {
		got, err := credentials(Config{ServiceAccountJSON: `{"type":"service_account"}`, ServiceAccountFile: "/nope"})
		if err != nil || string(got) != `{"type":"service_account"}` {
			t.Fatalf("credentials = %q, %v", got, err)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sa.json")
		if err := os.WriteFile(path, []byte(`{"a":1}`), 0o600); err != nil {
			t.Fatal(err)
		}
		got, err := credentials(Config{ServiceAccountFile: path})
		if err != nil || string(got) != `{"a":1}` {
			t.Fatalf("credentials = %q, %v", got, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := credentials(Config{ServiceAccountFile: filepath.Join(t.TempDir(), "absent.json")}); err == nil {
			t.Fatal("expected read error")
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := credentials(Config{})
		if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
			t.Fatalf("expected missing credentials error, got %v", err)
		}
	})
}

func TestFindRow(t *testing.T) {
	ids := firstColumn([][]interface{}{{"Record ID"}, {"a"}, {}, {" b "}})
	tests := []struct {
		id   string
		want int
	}{
		{"a", 2},
		{"b", 4},
		{"c", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := findRow(ids, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Ledger", 7); got != "Ledger!A7:I7" {
		t.Fatalf("rowRange = %q", got)
	}
}
