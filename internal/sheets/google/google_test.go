package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	ports "ledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSettings(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"no spreadsheet", Options{CredentialsJSON: "{}"}, "missing spreadsheet id"},
		{"no credentials", Options{SpreadsheetID: "sheet"}, "missing service account credentials"},
		{"unreadable file", Options{SpreadsheetID: "sheet", CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}, "read service account file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestReadCredentials_PrefersInlineJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := readCredentials(Options{CredentialsFile: path, CredentialsJSON: `{"from":"env"}`})
	if err != nil || string(got) != `{"from":"env"}` {
		t.Fatalf("readCredentials() = %s, %v", got, err)
	}
	got, err = readCredentials(Options{CredentialsFile: path})
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("readCredentials(file) = %s, %v", got, err)
	}
}

func TestSheetRange(t *testing.T) {
	tests := []struct {
		sheet, cells, want string
	}{
		{"Records", "A:G", "Records!A:G"},
		{"My Records", "A1:G3", "'My Records'!A1:G3"},
		{"Bob's", "A:G", "'Bob''s'!A:G"},
	}
	for _, tt := range tests {
		if got := sheetRange(tt.sheet, tt.cells); got != tt.want {
			t.Errorf("sheetRange(%q, %q) = %q, want %q", tt.sheet, tt.cells, got, tt.want)
		}
	}
}

func TestReplaceRows_ClearsThenWrites(t *testing.T) {
	var (
		mu      sync.Mutex
		calls   []string
		written [][]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
			calls = append(calls, "clear")
			_, _ = w.Write([]byte(`{"clearedRange":"Records!A1:G10"}`))
		case r.Method == http.MethodPut:
			calls = append(calls, "update")
			if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
				t.Errorf("valueInputOption = %q", got)
			}
			var vr struct {
				Values [][]any `json:"values"`
			}
			if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
				t.Errorf("decode body: %v", err)
			}
			written = vr.Values
			_, _ = w.Write([]byte(`{"updatedRows":2}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	client := NewWithService(svc, "sheet-id", "")

	rows := []ports.Row{{Customer: "Al", Phone: "111", Date: "2024-01-01", Amount: "5.00"}}
	if err := client.ReplaceRows(context.Background(), rows); err != nil {
		t.Fatalf("ReplaceRows: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(calls, ",") != "clear,update" {
		t.Fatalf("calls = %v", calls)
	}
	if len(written) != 2 || written[0][0] != "Customer" || written[1][0] != "Al" || written[1][5] != "5.00" {
		t.Fatalf("written = %v", written)
	}
}

func TestReplaceRows_NoService(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	if err := c.ReplaceRows(context.Background(), nil); err == nil {
		t.Fatal("expected error without a service")
	}
}
