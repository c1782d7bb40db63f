package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finzen/internal/core"
)

func TestParseFilterParams(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    core.Filter
		wantErr error
	}{
		{
			name:  "empty means all",
			query: url.Values{},
			want:  core.Filter{Type: core.TypeAll, Category: core.CategoryAll, Window: core.WindowAll},
		},
		{
			name:  "range parameter",
			query: url.Values{"type": {"Expense"}, "category": {"salud"}, "range": {"week"}},
			want:  core.Filter{Type: core.TypeExpense, Category: "salud", Window: core.WindowWeek},
		},
		{
			name:  "window alias",
			query: url.Values{"window": {"today"}},
			want:  core.Filter{Type: core.TypeAll, Category: core.CategoryAll, Window: core.WindowToday},
		},
		{
			name:    "unknown type",
			query:   url.Values{"type": {"transfer"}},
			wantErr: core.ErrInvalidTypeFilter,
		},
		{
			name:    "unknown range",
			query:   url.Values{"range": {"year"}},
			wantErr: core.ErrInvalidDateWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilterParams(tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "type=expense&amount=12.50&description=%20Caf%C3%A9%01%20"
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Error("form body reported as JSON")
	}
	if got := p.Get("amount"); got != "12.50" {
		t.Errorf("amount = %q", got)
	}
	if got := p.Get("description"); got != "Café" {
		t.Errorf("description = %q, want control characters stripped", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("missing = %q", got)
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"type":"income","amount":1500.5,"category":" Salario ","password":" con espacios "}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Fatal("expected JSON")
	}
	if got := p.Get("amount"); got != "1500.5" {
		t.Errorf("amount = %q", got)
	}
	if got := p.Get("category"); got != "Salario" {
		t.Errorf("category = %q", got)
	}
	if got := p.GetRaw("password"); got != " con espacios " {
		t.Errorf("raw password = %q", got)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"broken":`))
	req.Header.Set("Content-Type", "application/json")
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected error for malformed JSON")
	}

	big := strings.Repeat("a", maxBodyBytes+10)
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("description="+big))
	if err := NewRequestBodyParser(req).Parse(); !errors.Is(err, errBodyTooLarge) {
		t.Errorf("expected errBodyTooLarge, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil || p.Get("anything") != "" {
		t.Errorf("empty body: err=%v", err)
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		ctype  string
		want   bool
	}{
		{"api path", "/api/summary", "", "", true},
		{"accept header", "/transactions", "application/json", "", true},
		{"json body", "/transactions", "", "application/json; charset=utf-8", true},
		{"browser form", "/transactions", "text/html", "application/x-www-form-urlencoded", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			if got := wantsJSON(req); got != tt.want {
				t.Fatalf("wantsJSON = %v, want %v", got, tt.want)
			}
		})
	}
}
