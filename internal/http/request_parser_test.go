package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ledger/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"Al","phone":"1"}`, ""},
		{"empty", ``, "request body is empty"},
		{"broken", `{"name":`, "invalid JSON"},
		{"two values", `{"name":"a"} {"name":"b"}`, "single JSON value"},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in core.CustomerInput
			err := DecodeJSON(httptest.NewRecorder(), req, &in)
			if tt.wantErr == "" {
				if err != nil || in.Name != "Al" {
					t.Fatalf("DecodeJSON() = %v, %+v", err, in)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("DecodeJSON() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value string
		want  int64
		ok    bool
	}{
		{"7", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tt.value)
		got, err := PathID(req, "id")
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("PathID(%q) = %d, %v", tt.value, got, err)
		}
	}
}

func TestSanitizeRecord(t *testing.T) {
	in := core.RecordInput{
		Date:        " 2024-01-01 ",
		Vehicle:     "TN\x0001",
		Place:       "  Main St ",
		Amount:      " 5\x07",
		Description: "line one\nline two\n",
	}
	got := sanitizeRecord(in)
	want := core.RecordInput{
		Date:        "2024-01-01",
		Vehicle:     "TN01",
		Place:       "  Main St ",
		Amount:      "5",
		Description: "line one\nline two\n",
	}
	if got != want {
		t.Fatalf("sanitizeRecord() = %+v, want %+v", got, want)
	}
}
