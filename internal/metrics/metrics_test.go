package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.Command("record.add", nil)
	m.Command("record.add", nil)
	m.Command("customer.delete", errors.New("disk full"))
	m.Export(nil)
	m.HTTPRequest(http.MethodPost, http.StatusUnprocessableEntity)
	m.MirrorSync(errors.New("quota"))
	m.SetLedgerSize(3, 11)

	out := scrape(t, m)
	for _, want := range []string{
		`ledger_commands_total{command="record.add",outcome="ok"} 2`,
		`ledger_commands_total{command="customer.delete",outcome="error"} 1`,
		`ledger_report_exports_total{outcome="ok"} 1`,
		`ledger_http_requests_total{code="422",method="POST"} 1`,
		`ledger_mirror_syncs_total{outcome="error"} 1`,
		`ledger_customers 3`,
		`ledger_records 11`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Command("x", nil)
	m.Export(nil)
	m.HTTPRequest(http.MethodGet, 200)
	m.MirrorSync(nil)
	m.SetLedgerSize(1, 1)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("nil metrics handler status = %d", rr.Code)
	}
}
